// Package store provides durable state for the bot: one vote per user per
// movie per channel scope, the message-to-movie registry, and per-guild
// channel settings. Every store ships a Postgres implementation for
// production and an in-memory implementation for development and tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRatingOutOfRange is returned for ratings outside [1,10].
var ErrRatingOutOfRange = errors.New("rating must be between 1 and 10")

// Scope identifies the aggregation unit for votes: one movie posted in one
// channel of one guild. Direct-message contexts carry an empty GuildID.
type Scope struct {
	IMDBID    string
	ChannelID string
	GuildID   string
}

// Movie maps a posted embed message back to the movie it depicts.
type Movie struct {
	IMDBID     string
	MessageID  string
	ChannelID  string
	GuildID    string
	TrailerURL string
	CreatedAt  time.Time
}

// Scope returns the rating scope this movie's votes aggregate under.
func (m Movie) Scope() Scope {
	return Scope{IMDBID: m.IMDBID, ChannelID: m.ChannelID, GuildID: m.GuildID}
}

// RatingStore persists votes. The unique constraint on
// (user_id, imdb_id, channel_id, guild_id) is the single source of truth for
// the one-vote-per-user invariant; implementations must not rely on
// in-process locking for it.
type RatingStore interface {
	// Upsert inserts the vote or revises an existing one, bumping
	// updated_at. Returns ErrRatingOutOfRange outside [1,10].
	Upsert(ctx context.Context, scope Scope, userID string, rating int) error
	// Delete removes the user's vote and reports whether a row existed.
	Delete(ctx context.Context, scope Scope, userID string) (bool, error)
	// UserRating returns the user's current vote, if any.
	UserRating(ctx context.Context, scope Scope, userID string) (int, bool, error)
	// Votes returns every rating in scope, for aggregate recomputes.
	Votes(ctx context.Context, scope Scope) ([]int, error)
	// Count returns the total number of persisted votes.
	Count(ctx context.Context) (int64, error)
}

// MovieStore is the registry resolving messages to movies.
type MovieStore interface {
	// Register records a posted movie message. Registering the same
	// message twice is a no-op, which makes the router's backfill path
	// safe to race with the posting pipeline.
	Register(ctx context.Context, m Movie) error
	// ResolveMessage looks a movie up by the id of the message carrying
	// its embed.
	ResolveMessage(ctx context.Context, messageID string) (Movie, bool, error)
	// FindInChannel reports whether the movie was already posted in the
	// given channel scope.
	FindInChannel(ctx context.Context, imdbID, channelID, guildID string) (Movie, bool, error)
	// Count returns the number of tracked movies.
	Count(ctx context.Context) (int64, error)
}

// SettingsStore maps a guild to its configured watch channel.
type SettingsStore interface {
	SetChannel(ctx context.Context, guildID, channelID string) error
	Channel(ctx context.Context, guildID string) (string, bool, error)
	Count(ctx context.Context) (int64, error)
}
