package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/example/imdb-bot/internal/store"
)

var commandDefs = []*discordgo.ApplicationCommand{
	{
		Name:        "setchannel",
		Description: "Choose the channel this bot watches for IMDb links",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "The channel to watch",
				Required:    true,
				ChannelTypes: []discordgo.ChannelType{
					discordgo.ChannelTypeGuildText,
				},
			},
		},
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionManageGuild),
	},
	{
		Name:        "imdbstats",
		Description: "Show how many movies and votes this server has collected",
	},
	{
		Name:        "ping",
		Description: "Round-trip check",
	},
}

func int64Ptr(v int64) *int64 { return &v }

// Commands handles the slash command surface.
type Commands struct {
	log      *zap.Logger
	settings store.SettingsStore
	movies   store.MovieStore
	ratings  store.RatingStore
	timeout  time.Duration
}

func NewCommands(log *zap.Logger, settings store.SettingsStore, movies store.MovieStore, ratings store.RatingStore, timeout time.Duration) *Commands {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Commands{log: log, settings: settings, movies: movies, ratings: ratings, timeout: timeout}
}

// Register creates the application commands on the connected session.
// Failures are logged and skipped so a permissions hiccup on one guild
// cannot take the bot down.
func (c *Commands) Register(s *discordgo.Session) {
	for _, def := range commandDefs {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", def); err != nil {
			c.log.Warn("registering command failed", zap.String("command", def.Name), zap.Error(err))
		}
	}
}

// Handle dispatches one interaction-create event.
func (c *Commands) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data := i.ApplicationCommandData()
	switch data.Name {
	case "setchannel":
		c.handleSetChannel(ctx, s, i, data)
	case "imdbstats":
		c.handleStats(ctx, s, i)
	case "ping":
		c.respond(s, i, "Pong!")
	}
}

func (c *Commands) handleSetChannel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.GuildID == "" {
		c.respond(s, i, "This command only works inside a server.")
		return
	}
	var channelID string
	for _, opt := range data.Options {
		if opt.Name == "channel" {
			channelID = opt.ChannelValue(nil).ID
		}
	}
	if channelID == "" {
		c.respond(s, i, "Pick a channel to watch.")
		return
	}

	if err := c.settings.SetChannel(ctx, i.GuildID, channelID); err != nil {
		c.log.Error("saving watch channel failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		c.respond(s, i, "Could not save the channel, try again later.")
		return
	}
	c.respond(s, i, fmt.Sprintf("Watching <#%s> for IMDb links.", channelID))
}

func (c *Commands) handleStats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	movies, err := c.movies.Count(ctx)
	if err != nil {
		c.log.Error("movie count failed", zap.Error(err))
		c.respond(s, i, "Could not load stats, try again later.")
		return
	}
	votes, err := c.ratings.Count(ctx)
	if err != nil {
		c.log.Error("rating count failed", zap.Error(err))
		c.respond(s, i, "Could not load stats, try again later.")
		return
	}
	c.respond(s, i, fmt.Sprintf("Tracking %d movies with %d votes.", movies, votes))
}

func (c *Commands) respond(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
	if err != nil {
		c.log.Warn("interaction response failed", zap.Error(err))
	}
}
