package bot

import (
	"apod-discord-bot/apod"
	"apod-discord-bot/media"
	"bytes"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColor      = 0x36393F
	footerSuffix    = "Bot by lunar_sh"
	footerSeparator = " | "

	defaultExplanation = "No explanation available."
)

// compose builds the single outbound embed for a record. Media handling:
//   - image with a processed attachment: shown inline via attachment://
//   - image without one: an "Image Link" field pointing at the source
//   - video: the embed links out and the title is suffixed
//   - anything else: link-only when a URL is present, text-only otherwise
func compose(record apod.Record, attachment *media.Attachment) *discordgo.MessageEmbed {
	explanation := record.Explanation
	if len(explanation) == 0 {
		explanation = defaultExplanation
	}
	embed := &discordgo.MessageEmbed{
		Title:       record.Title,
		Description: explanation,
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText(record),
		},
	}

	switch record.MediaType {
	case apod.MediaTypeImage:
		if attachment != nil {
			embed.Image = &discordgo.MessageEmbedImage{
				URL: "attachment://" + attachment.Name,
			}
		} else if len(record.ImageURL()) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Image Link",
				Value: fmt.Sprintf("[Click here to view image](%v)", record.ImageURL()),
			})
		}
	case apod.MediaTypeVideo:
		if len(record.URL) > 0 {
			embed.URL = record.URL
			embed.Title += " (Video)"
		}
	default:
		if len(record.URL) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Link",
				Value: fmt.Sprintf("[Click here to view](%v)", record.URL),
			})
		}
	}
	return embed
}

func footerText(record apod.Record) string {
	var parts []string
	if len(record.Copyright) > 0 {
		parts = append(parts, fmt.Sprintf("© %v", strings.TrimSpace(record.Copyright)))
	}
	if len(record.Date) > 0 {
		parts = append(parts, record.Date)
	}
	parts = append(parts, footerSuffix)
	return strings.Join(parts, footerSeparator)
}

// attachmentFiles wraps the processed picture for sending. A fresh
// reader per call, because a discordgo.File reader is consumed by the
// send that uses it.
func attachmentFiles(attachment *media.Attachment) []*discordgo.File {
	if attachment == nil {
		return nil
	}
	return []*discordgo.File{{
		Name:        attachment.Name,
		ContentType: "image/png",
		Reader:      bytes.NewReader(attachment.Bytes),
	}}
}
