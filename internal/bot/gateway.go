package bot

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ErrMessageNotFound is returned by Gateway.FetchMessage when the message is
// gone or the bot cannot read it. The router treats it as "not a rating
// target", not as a failure.
var ErrMessageNotFound = errors.New("message not found")

// Message is the slice of a platform message the bot cares about.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Embeds    []*discordgo.MessageEmbed
}

// Gateway is the narrow platform boundary the rating core talks through.
// Everything behind it is Discord; everything in front of it is testable
// with fakes. All operations honour the context deadline.
type Gateway interface {
	// BotUserID identifies the bot's own account, for self-event filtering.
	BotUserID() string

	// FetchMessage retrieves a message by id; ErrMessageNotFound when the
	// message is gone or unreadable.
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)

	// SendEmbed posts an embed and returns the new message id.
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (string, error)

	// EditEmbed replaces the embed on an existing message.
	EditEmbed(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// AddReaction adds the bot's own reaction to a message.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// RemoveUserReaction removes another user's reaction. Best-effort:
	// callers tolerate permission errors.
	RemoveUserReaction(ctx context.Context, channelID, messageID, emoji, userID string) error

	// Notify posts a transient notice that the gateway deletes again after
	// a short delay.
	Notify(ctx context.Context, channelID, text string) error
}
