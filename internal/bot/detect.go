package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/imdb-bot/internal/imdb"
	"github.com/example/imdb-bot/internal/omdb"
	"github.com/example/imdb-bot/internal/platform/events"
	"github.com/example/imdb-bot/internal/render"
	"github.com/example/imdb-bot/internal/store"
)

// MediaLookup is the metadata enrichment boundary (OMDB in production).
type MediaLookup interface {
	ByIMDBID(ctx context.Context, imdbID string) (*omdb.Media, error)
}

// IncomingMessage is a raw message-create notification.
type IncomingMessage struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// Detector watches the configured channel of each guild for IMDb links and
// turns them into tracked movie posts.
type Detector struct {
	log      *zap.Logger
	gw       Gateway
	movies   store.MovieStore
	settings store.SettingsStore
	lookup   MediaLookup
	events   *events.Publisher
	timeout  time.Duration
}

func NewDetector(log *zap.Logger, gw Gateway, movies store.MovieStore, settings store.SettingsStore, lookup MediaLookup, pub *events.Publisher, timeout time.Duration) *Detector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Detector{
		log:      log,
		gw:       gw,
		movies:   movies,
		settings: settings,
		lookup:   lookup,
		events:   pub,
		timeout:  timeout,
	}
}

// HandleMessage processes one message-create notification. As with
// reactions, every failure stays inside this call.
func (d *Detector) HandleMessage(ctx context.Context, msg IncomingMessage) {
	if msg.AuthorBot || msg.AuthorID == d.gw.BotUserID() {
		return
	}

	watched, configured, err := d.settings.Channel(ctx, msg.GuildID)
	if err != nil {
		d.log.Error("settings lookup failed", zap.String("guild_id", msg.GuildID), zap.Error(err))
		return
	}
	if !configured || watched != msg.ChannelID {
		return
	}

	link, found := imdb.Parse(msg.Content)
	if !found {
		return
	}

	existing, posted, err := d.movies.FindInChannel(ctx, link.IMDBID, msg.ChannelID, msg.GuildID)
	if err != nil {
		d.log.Error("duplicate check failed", zap.String("imdb_id", link.IMDBID), zap.Error(err))
		return
	}
	if posted {
		d.handleDuplicate(ctx, msg, link, existing)
		return
	}

	media, err := d.lookup.ByIMDBID(ctx, link.IMDBID)
	if err != nil {
		if errors.Is(err, omdb.ErrNotFound) {
			d.notify(ctx, msg.ChannelID, "Movie not found")
			return
		}
		d.log.Error("metadata lookup failed", zap.String("imdb_id", link.IMDBID), zap.Error(err))
		d.notify(ctx, msg.ChannelID, "Could not look that movie up right now, try again later.")
		return
	}

	embed := render.Embed(media, link.AuthorRating, link.URL)
	postedID, err := d.gw.SendEmbed(ctx, msg.ChannelID, embed)
	if err != nil {
		d.log.Error("posting movie embed failed", zap.String("imdb_id", link.IMDBID), zap.Error(err))
		return
	}

	movie := store.Movie{
		IMDBID:    media.IMDBID,
		MessageID: postedID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}
	if err := d.movies.Register(ctx, movie); err != nil {
		// The router's fetch-and-parse fallback still makes the post
		// ratable, so keep the message up.
		d.log.Error("registering movie failed",
			zap.String("imdb_id", media.IMDBID), zap.String("message_id", postedID), zap.Error(err))
	}

	d.seedReactions(ctx, msg.ChannelID, postedID)
	d.deleteTrigger(ctx, msg)
	d.events.Publish(events.SubjectMoviePosted, "movie_posted", msg.AuthorID, map[string]any{
		"imdb_id": media.IMDBID,
		"title":   media.Title,
	})
}

// handleDuplicate refreshes the author-rating field on the already posted
// embed instead of posting the movie twice.
func (d *Detector) handleDuplicate(ctx context.Context, msg IncomingMessage, link imdb.LinkInfo, existing store.Movie) {
	updated := false
	if link.AuthorRating != "" {
		old, err := d.gw.FetchMessage(ctx, existing.ChannelID, existing.MessageID)
		if err != nil {
			d.log.Warn("fetching existing movie message failed",
				zap.String("message_id", existing.MessageID), zap.Error(err))
		} else if len(old.Embeds) > 0 && render.SetAuthorRating(old.Embeds[0], link.AuthorRating) {
			if err := d.gw.EditEmbed(ctx, existing.ChannelID, existing.MessageID, old.Embeds[0]); err != nil {
				d.log.Warn("updating existing movie message failed",
					zap.String("message_id", existing.MessageID), zap.Error(err))
			} else {
				updated = true
			}
		}
	}

	if updated {
		d.notify(ctx, msg.ChannelID, "Movie already exists, user rating updated!")
	} else {
		d.notify(ctx, msg.ChannelID, "Movie already exists")
	}
	d.deleteTrigger(ctx, msg)
}

// seedReactions pre-adds the rating emojis. Best-effort: a rate limit or
// missing permission on any of the ten adds is logged and skipped.
func (d *Detector) seedReactions(ctx context.Context, channelID, messageID string) {
	for _, emoji := range seedEmojis {
		if err := d.gw.AddReaction(ctx, channelID, messageID, emoji); err != nil {
			d.log.Warn("seeding reaction failed",
				zap.String("message_id", messageID), zap.String("emoji", emoji), zap.Error(err))
			return
		}
	}
}

func (d *Detector) deleteTrigger(ctx context.Context, msg IncomingMessage) {
	if err := d.gw.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		d.log.Warn("deleting trigger message failed",
			zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func (d *Detector) notify(ctx context.Context, channelID, text string) {
	if err := d.gw.Notify(ctx, channelID, text); err != nil {
		d.log.Warn("sending notice failed", zap.Error(err))
	}
}
