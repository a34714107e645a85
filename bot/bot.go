package bot

import (
	"apod-discord-bot/apod"
	"apod-discord-bot/media"
	"apod-discord-bot/registry"
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ChannelsFile      = "apod_channels.json"
	RawCacheDir       = "cached_raw"
	ProcessedCacheDir = "cache"
	HealthAddress     = ":8035"
)

type Config struct {
	DiscordBotToken string
	NasaAPIKey      string
	Debug           bool
}

var manageChannels int64 = discordgo.PermissionManageChannels

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "apod",
		Description: "Fetches and posts the latest Astronomy Picture of the Day.",
	},
	{
		Name:                     "set_channel",
		Description:              "Sets this channel for daily APOD posts.",
		DefaultMemberPermissions: &manageChannels,
	},
	{
		Name:                     "unset_channel",
		Description:              "Stops daily APOD posts in this server.",
		DefaultMemberPermissions: &manageChannels,
	},
}

func Start(ctx context.Context, config Config, confirm chan<- struct{}) error {
	if len(config.DiscordBotToken) == 0 || len(config.NasaAPIKey) == 0 {
		return errors.New("DiscordBotToken and NasaAPIKey must be set in the config")
	}
	if config.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	apodCache := apod.NewCache(apod.NewService(config.NasaAPIKey))
	pipeline, err := media.NewPipeline(RawCacheDir, ProcessedCacheDir)
	if err != nil {
		return err
	}
	channels := registry.New(ChannelsFile)

	session, err := discordgo.New("Bot " + config.DiscordBotToken)
	if err != nil {
		return errors.Wrap(err, "error during creation of a new session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	botService := NewService(apodCache, channels, pipeline, session)

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logrus.Infof("Logged in as %v", s.State.User.String())
		logrus.Infof("Bot is on %v servers", len(r.Guilds))
	})
	session.AddHandler(botService.HandleInteraction)

	if err := session.Open(); err != nil {
		return errors.Wrap(err, "unable to connect to the gateway")
	}

	if err := syncCommands(session); err != nil {
		logrus.Errorf("Failed to sync commands: %v", err.Error())
	}

	router := mux.NewRouter()
	botService.Routes(router)
	go func() {
		logrus.Fatal(http.ListenAndServe(HealthAddress, router))
	}()

	go botService.StartPolling(ctx)

	// Blocks until stop
	<-ctx.Done()
	if err := session.Close(); err != nil {
		logrus.Errorf("error during closing the session: %v", err.Error())
	}
	confirm <- struct{}{}
	return nil
}

func syncCommands(session *discordgo.Session) error {
	synced, err := session.ApplicationCommandBulkOverwrite(session.State.User.ID, "", commands)
	if err != nil {
		return errors.Wrap(err, "unable to overwrite application commands")
	}
	logrus.Infof("Synced %v command(s)", len(synced))
	return nil
}
