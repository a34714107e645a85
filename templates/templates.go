package templates

import _ "embed"

var (
	//go:embed resource/notAdmin.txt
	NotAdmin string
	//go:embed resource/guildOnly.txt
	GuildOnly string
	//go:embed resource/fetchError.txt
	FetchError string
	//go:embed resource/channelSet.txt
	ChannelSet string
	//go:embed resource/channelUnset.txt
	ChannelUnset string
	//go:embed resource/noChannelSet.txt
	NoChannelSet string
	//go:embed resource/unexpectedError.txt
	UnexpectedError string
)
