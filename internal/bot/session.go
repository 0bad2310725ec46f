package bot

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const noticeLifetime = 10 * time.Second

// DiscordGateway adapts a live discordgo session to the Gateway boundary.
type DiscordGateway struct {
	log     *zap.Logger
	session *discordgo.Session
}

var _ Gateway = (*DiscordGateway)(nil)

func NewDiscordGateway(log *zap.Logger, session *discordgo.Session) *DiscordGateway {
	return &DiscordGateway{log: log, session: session}
}

func (g *DiscordGateway) BotUserID() string {
	if g.session.State == nil || g.session.State.User == nil {
		return ""
	}
	return g.session.State.User.ID
}

func (g *DiscordGateway) FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error) {
	m, err := g.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMessage(err) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Embeds:    m.Embeds,
	}, nil
}

func (g *DiscordGateway) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (string, error) {
	m, err := g.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (g *DiscordGateway) EditEmbed(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := g.session.ChannelMessageEditEmbed(channelID, messageID, embed, discordgo.WithContext(ctx))
	return err
}

func (g *DiscordGateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return g.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (g *DiscordGateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (g *DiscordGateway) RemoveUserReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	return g.session.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx))
}

// Notify posts a transient notice and removes it again after a short delay,
// so guidance messages do not pile up in the channel.
func (g *DiscordGateway) Notify(ctx context.Context, channelID, text string) error {
	m, err := g.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	time.AfterFunc(noticeLifetime, func() {
		if err := g.session.ChannelMessageDelete(channelID, m.ID); err != nil {
			g.log.Debug("deleting notice failed", zap.String("message_id", m.ID), zap.Error(err))
		}
	})
	return nil
}

func isUnknownMessage(err error) bool {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		return rest.Message.Code == discordgo.ErrCodeUnknownMessage
	}
	return false
}

// Wire attaches the gateway event handlers. Each handler gets its own
// bounded context so a stalled call cannot block the dispatch goroutine
// forever.
func Wire(session *discordgo.Session, log *zap.Logger, detector *Detector, router *Router, commands *Commands, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("gateway ready",
			zap.String("username", r.User.Username),
			zap.Int("guilds", len(r.Guilds)))
		commands.Register(s)
	})

	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		detector.HandleMessage(ctx, IncomingMessage{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
		})
	})

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		router.HandleReactionAdd(ctx, ReactionEvent{
			UserID:    r.UserID,
			MessageID: r.MessageID,
			ChannelID: r.ChannelID,
			GuildID:   r.GuildID,
			Emoji:     r.Emoji.Name,
		})
	})

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		router.HandleReactionRemove(ctx, ReactionEvent{
			UserID:    r.UserID,
			MessageID: r.MessageID,
			ChannelID: r.ChannelID,
			GuildID:   r.GuildID,
			Emoji:     r.Emoji.Name,
		})
	})

	session.AddHandler(commands.Handle)
}

// Intents lists the gateway intents the bot needs: message content for link
// detection, reactions for voting.
func Intents() discordgo.Intent {
	return discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
}
