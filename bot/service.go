package bot

import (
	"apod-discord-bot/apod"
	"apod-discord-bot/media"
	"apod-discord-bot/registry"
	"apod-discord-bot/templates"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// fetcher is the daily-cache surface the service needs.
type fetcher interface {
	Fetch(ctx context.Context) (apod.Record, error)
	LastDate() string
}

// processor turns a source image URL into a bounded attachment.
type processor interface {
	Process(ctx context.Context, imageURL, dateKey string) (*media.Attachment, error)
}

// sender is the slice of the Discord session used for fan-out.
type sender interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Service struct {
	apod     fetcher
	channels *registry.Registry
	pipeline processor
	session  sender

	// cycle serializes the scheduled poller against manual triggers and
	// keeps overlapping ticks from interleaving registry reloads.
	cycle sync.Mutex

	stateMu    sync.Mutex
	lastPosted string
}

func NewService(apodCache fetcher, channels *registry.Registry, pipeline processor, session sender) *Service {
	return &Service{
		apod:     apodCache,
		channels: channels,
		pipeline: pipeline,
		session:  session,
	}
}

func (s *Service) HandleInteraction(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	var err error
	switch interaction.ApplicationCommandData().Name {
	case "apod":
		err = s.ManualPost(session, interaction)
	case "set_channel":
		err = s.SetChannel(session, interaction)
	case "unset_channel":
		err = s.UnsetChannel(session, interaction)
	default:
		return
	}
	if err != nil {
		logrus.Errorf("error during handling /%v: %v", interaction.ApplicationCommandData().Name, err.Error())
		sendErr := respondEphemeral(session, interaction, templates.UnexpectedError)
		if sendErr != nil {
			logrus.Debugf("unable to deliver error message: %v", sendErr.Error())
		}
	}
}

// ManualPost fetches today's record and replies with the composed
// message in the invoking channel. Administrators only.
func (s *Service) ManualPost(session *discordgo.Session, interaction *discordgo.InteractionCreate) error {
	if interaction.Member == nil || interaction.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return respondEphemeral(session, interaction, templates.NotAdmin)
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return errors.Wrap(err, "unable to defer response")
	}

	// Shares the cycle lock with the poller so a manual trigger cannot
	// interleave with a scheduled fan-out over the same record.
	s.cycle.Lock()
	defer s.cycle.Unlock()

	ctx := context.Background()
	record, err := s.apod.Fetch(ctx)
	if err != nil {
		logrus.Errorf("unable to fetch APOD for manual trigger: %v", err.Error())
		_, sendErr := session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
			Content: templates.FetchError,
		})
		return sendErr
	}
	embed, attachment := s.composeRecord(ctx, record)
	_, err = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  attachmentFiles(attachment),
	})
	return errors.Wrap(err, "unable to send followup")
}

// SetChannel subscribes the invoking channel to daily posts, replacing
// any previous channel for the guild.
func (s *Service) SetChannel(session *discordgo.Session, interaction *discordgo.InteractionCreate) error {
	if len(interaction.GuildID) == 0 {
		return respondEphemeral(session, interaction, templates.GuildOnly)
	}
	channelID, err := strconv.ParseInt(interaction.ChannelID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "unable to parse channel id %v", interaction.ChannelID)
	}
	if err := s.channels.Set(interaction.GuildID, channelID); err != nil {
		return err
	}
	name := interaction.ChannelID
	if channel, err := session.Channel(interaction.ChannelID); err == nil {
		name = channel.Name
	}
	return respondEphemeral(session, interaction, fmt.Sprintf(templates.ChannelSet, name))
}

// UnsetChannel removes the guild's subscription if one exists.
func (s *Service) UnsetChannel(session *discordgo.Session, interaction *discordgo.InteractionCreate) error {
	if len(interaction.GuildID) == 0 {
		return respondEphemeral(session, interaction, templates.GuildOnly)
	}
	existed, err := s.channels.Unset(interaction.GuildID)
	if err != nil {
		return err
	}
	if !existed {
		return respondEphemeral(session, interaction, templates.NoChannelSet)
	}
	return respondEphemeral(session, interaction, templates.ChannelUnset)
}

// runCycle is one poll-and-post pass: fetch through the daily cache,
// compare against the last posted date, and on a new date reload the
// registry from disk and fan out sequentially. The last posted date is
// updated after all channels were attempted, whatever their outcomes.
func (s *Service) runCycle(ctx context.Context) {
	if !s.cycle.TryLock() {
		logrus.Debug("previous cycle still in progress, skipping tick")
		return
	}
	defer s.cycle.Unlock()

	record, err := s.apod.Fetch(ctx)
	if err != nil {
		logrus.Errorf("Could not fetch APOD data for scheduled check: %v", err.Error())
		return
	}
	if record.Date == s.LastPosted() {
		return
	}
	logrus.Infof("New APOD found for date %v. Posting to configured channels.", record.Date)

	channels, err := s.channels.Load()
	if err != nil {
		logrus.Errorf("unable to load channels: %v", err.Error())
		return
	}
	embed, attachment := s.composeRecord(ctx, record)
	for _, guildID := range sortedGuilds(channels) {
		s.postToChannel(guildID, channels[guildID], embed, attachment)
	}
	s.setLastPosted(record.Date)
}

func (s *Service) postToChannel(guildID string, channelID int64, embed *discordgo.MessageEmbed, attachment *media.Attachment) {
	id := strconv.FormatInt(channelID, 10)
	if _, err := s.session.Channel(id); err != nil {
		logChannelFailure(id, err)
		return
	}
	_, err := s.session.ChannelMessageSendComplex(id, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  attachmentFiles(attachment),
	})
	if err != nil {
		logChannelFailure(id, err)
		return
	}
	logrus.Infof("Successfully posted APOD to channel %v in guild %v", id, guildID)
}

func logChannelFailure(channelID string, err error) {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			logrus.Warnf("Channel %v not found.", channelID)
			return
		case http.StatusForbidden:
			logrus.Warnf("Bot lacks permissions in channel %v.", channelID)
			return
		}
	}
	logrus.Errorf("An unexpected error occurred when posting to channel %v: %v", channelID, err.Error())
}

// composeRecord runs the image pipeline when applicable and builds the
// embed. A failed pipeline degrades to a link-only embed, never to an
// aborted post.
func (s *Service) composeRecord(ctx context.Context, record apod.Record) (*discordgo.MessageEmbed, *media.Attachment) {
	var attachment *media.Attachment
	if record.MediaType == apod.MediaTypeImage && len(record.ImageURL()) > 0 {
		processed, err := s.pipeline.Process(ctx, record.ImageURL(), record.Date)
		if err != nil {
			logrus.Errorf("Failed to process image: %v", err.Error())
		} else {
			attachment = processed
		}
	}
	return compose(record, attachment), attachment
}

func (s *Service) LastPosted() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastPosted
}

func (s *Service) setLastPosted(date string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastPosted = date
}

func sortedGuilds(channels map[string]int64) []string {
	guilds := make([]string, 0, len(channels))
	for guildID := range channels {
		guilds = append(guilds, guildID)
	}
	sort.Strings(guilds)
	return guilds
}

func respondEphemeral(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string) error {
	return session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
