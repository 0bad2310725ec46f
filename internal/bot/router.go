// Package bot contains the Discord-facing pipelines: the reaction event
// router that turns raw reactions into rating mutations, and the message
// detector that turns IMDb links into tracked movie posts.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/imdb-bot/internal/platform/events"
	"github.com/example/imdb-bot/internal/render"
	"github.com/example/imdb-bot/internal/stats"
	"github.com/example/imdb-bot/internal/store"
)

// ReactionEvent is a raw reaction notification from the platform. It carries
// ids only; the router never assumes the message is in any local cache.
type ReactionEvent struct {
	UserID    string
	MessageID string
	ChannelID string
	GuildID   string
	Emoji     string
}

// Router validates reaction events and drives the rating store, the
// aggregator and the message re-render. One Router instance serves all
// guilds; every method is safe for concurrent use. Per-key mutual exclusion
// lives in the rating store's unique constraint, not here.
type Router struct {
	log     *zap.Logger
	gw      Gateway
	movies  store.MovieStore
	ratings store.RatingStore
	stats   *stats.Aggregator
	events  *events.Publisher
	timeout time.Duration

	renders sync.WaitGroup
}

func NewRouter(log *zap.Logger, gw Gateway, movies store.MovieStore, ratings store.RatingStore, agg *stats.Aggregator, pub *events.Publisher, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Router{
		log:     log,
		gw:      gw,
		movies:  movies,
		ratings: ratings,
		stats:   agg,
		events:  pub,
		timeout: timeout,
	}
}

// HandleReactionAdd processes one reaction-add notification. Every failure
// is contained here: the method logs, optionally notifies the user, and
// returns. Nothing is retried; the user can simply react again.
func (r *Router) HandleReactionAdd(ctx context.Context, ev ReactionEvent) {
	if ev.UserID == r.gw.BotUserID() {
		return
	}

	movie, ok := r.resolveMovie(ctx, ev)
	if !ok {
		return
	}
	scope := movie.Scope()

	value, valid := emojiValue(ev.Emoji)
	if !valid {
		r.rejectReaction(ctx, ev, "Rate with the number reactions 1️⃣–🔟.")
		return
	}

	existing, voted, err := r.ratings.UserRating(ctx, scope, ev.UserID)
	if err != nil {
		r.softFail(ctx, ev, "reading existing vote", err)
		return
	}
	if voted {
		if existing == value {
			// Idempotent re-application of the current vote.
			return
		}
		// Changing a vote goes through remove-then-add; a second live
		// reaction would make the user's intent ambiguous.
		r.rejectReaction(ctx, ev, fmt.Sprintf(
			"You already rated this %d/10. Remove that reaction first to change your vote.", existing))
		r.events.Publish(events.SubjectRatingRejected, "rating_rejected", ev.UserID, map[string]any{
			"imdb_id": scope.IMDBID,
			"held":    existing,
			"wanted":  value,
		})
		return
	}

	if err := r.ratings.Upsert(ctx, scope, ev.UserID, value); err != nil {
		if errors.Is(err, store.ErrRatingOutOfRange) {
			r.rejectReaction(ctx, ev, "Ratings go from 1 to 10.")
			return
		}
		r.softFail(ctx, ev, "persisting vote", err)
		return
	}

	r.stats.Invalidate(ctx, scope)
	r.events.Publish(events.SubjectRatingAdded, "rating_added", ev.UserID, map[string]any{
		"imdb_id": scope.IMDBID,
		"rating":  value,
	})
	r.scheduleRender(movie)
}

// HandleReactionRemove processes one reaction-remove notification. Removing
// a reaction that never corresponded to a persisted vote is a no-op.
func (r *Router) HandleReactionRemove(ctx context.Context, ev ReactionEvent) {
	if ev.UserID == r.gw.BotUserID() {
		return
	}

	movie, ok := r.resolveMovie(ctx, ev)
	if !ok {
		return
	}
	scope := movie.Scope()

	value, valid := emojiValue(ev.Emoji)
	if !valid {
		return
	}

	existing, voted, err := r.ratings.UserRating(ctx, scope, ev.UserID)
	if err != nil {
		r.softFail(ctx, ev, "reading existing vote", err)
		return
	}
	// Only the reaction backing the persisted vote retracts it. This keeps
	// the cleanup of a rejected second reaction from destroying the vote.
	if !voted || existing != value {
		return
	}

	deleted, err := r.ratings.Delete(ctx, scope, ev.UserID)
	if err != nil {
		r.softFail(ctx, ev, "deleting vote", err)
		return
	}
	if !deleted {
		return
	}

	r.stats.Invalidate(ctx, scope)
	r.events.Publish(events.SubjectRatingRemoved, "rating_removed", ev.UserID, map[string]any{
		"imdb_id": scope.IMDBID,
		"rating":  value,
	})
	r.scheduleRender(movie)
}

// Wait blocks until all in-flight re-renders finish. Used at shutdown and
// by tests.
func (r *Router) Wait() {
	r.renders.Wait()
}

// resolveMovie maps a message id to its movie. Registry first; on a miss it
// falls back to fetching the live message and parsing the embed, then
// backfills the registry so the next reaction takes the fast path. A message
// that cannot be fetched or carries no movie embed is not a rating target.
func (r *Router) resolveMovie(ctx context.Context, ev ReactionEvent) (store.Movie, bool) {
	movie, found, err := r.movies.ResolveMessage(ctx, ev.MessageID)
	if err != nil {
		r.log.Error("registry lookup failed",
			zap.String("message_id", ev.MessageID), zap.Error(err))
		return store.Movie{}, false
	}
	if found {
		return movie, true
	}

	msg, err := r.gw.FetchMessage(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		if !errors.Is(err, ErrMessageNotFound) {
			r.log.Warn("message fetch failed",
				zap.String("message_id", ev.MessageID), zap.Error(err))
		}
		return store.Movie{}, false
	}
	if msg.AuthorID != r.gw.BotUserID() || len(msg.Embeds) == 0 {
		return store.Movie{}, false
	}
	imdbID, ok := render.ExtractIMDBID(msg.Embeds[0])
	if !ok {
		return store.Movie{}, false
	}

	movie = store.Movie{
		IMDBID:    imdbID,
		MessageID: ev.MessageID,
		ChannelID: ev.ChannelID,
		GuildID:   ev.GuildID,
	}
	if err := r.movies.Register(ctx, movie); err != nil {
		// Still usable for this event; only the backfill is lost.
		r.log.Warn("registry backfill failed",
			zap.String("message_id", ev.MessageID), zap.Error(err))
	}
	return movie, true
}

// rejectReaction removes the offending reaction and tells the user why.
// Both actions are best-effort; a missing Manage Messages permission must
// not escalate.
func (r *Router) rejectReaction(ctx context.Context, ev ReactionEvent, reason string) {
	if err := r.gw.RemoveUserReaction(ctx, ev.ChannelID, ev.MessageID, ev.Emoji, ev.UserID); err != nil {
		r.log.Warn("could not remove rejected reaction",
			zap.String("user_id", ev.UserID), zap.String("emoji", ev.Emoji), zap.Error(err))
	}
	if err := r.gw.Notify(ctx, ev.ChannelID, reason); err != nil {
		r.log.Warn("could not send rejection notice", zap.Error(err))
	}
}

func (r *Router) softFail(ctx context.Context, ev ReactionEvent, what string, err error) {
	r.log.Error("rating mutation failed",
		zap.String("step", what),
		zap.String("user_id", ev.UserID),
		zap.String("message_id", ev.MessageID),
		zap.Error(err))
	if nerr := r.gw.Notify(ctx, ev.ChannelID, "Something went wrong saving your rating, please try again."); nerr != nil {
		r.log.Warn("could not send failure notice", zap.Error(nerr))
	}
}

// scheduleRender updates the movie message asynchronously so slow edits
// never block the event handler. The render gets its own deadline; the
// triggering event's context is already on the way out.
func (r *Router) scheduleRender(movie store.Movie) {
	r.renders.Add(1)
	go func() {
		defer r.renders.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.renderStats(ctx, movie)
	}()
}

func (r *Router) renderStats(ctx context.Context, movie store.Movie) {
	s, err := r.stats.Stats(ctx, movie.Scope())
	if err != nil {
		r.log.Error("stats recompute failed",
			zap.String("imdb_id", movie.IMDBID), zap.Error(err))
		return
	}

	msg, err := r.gw.FetchMessage(ctx, movie.ChannelID, movie.MessageID)
	if err != nil {
		r.log.Warn("re-render fetch failed",
			zap.String("message_id", movie.MessageID), zap.Error(err))
		return
	}
	if len(msg.Embeds) == 0 {
		return
	}
	embed := msg.Embeds[0]
	if !render.ApplyStats(embed, s) {
		return
	}
	if err := r.gw.EditEmbed(ctx, movie.ChannelID, movie.MessageID, embed); err != nil {
		r.log.Warn("re-render edit failed",
			zap.String("message_id", movie.MessageID), zap.Error(err))
	}
}
