package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/imdb-bot/internal/omdb"
	"github.com/example/imdb-bot/internal/render"
	"github.com/example/imdb-bot/internal/stats"
	"github.com/example/imdb-bot/internal/store"
)

type routerFixture struct {
	gw      *fakeGateway
	movies  *store.InMemoryMovieStore
	ratings *store.InMemoryRatingStore
	agg     *stats.Aggregator
	router  *Router
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gw := newFakeGateway()
	movies := store.NewInMemoryMovieStore()
	ratings := store.NewInMemoryRatingStore()
	agg := stats.NewAggregator(ratings, stats.NewTTLCache(time.Minute))
	r := NewRouter(zap.NewNop(), gw, movies, ratings, agg, nil, time.Second)
	return &routerFixture{gw: gw, movies: movies, ratings: ratings, agg: agg, router: r}
}

// trackMovie registers a movie and puts the matching bot message into the
// fake gateway.
func (f *routerFixture) trackMovie(t *testing.T, imdbID, messageID string) store.Movie {
	t.Helper()
	m := store.Movie{IMDBID: imdbID, MessageID: messageID, ChannelID: "chan-1", GuildID: "guild-1"}
	if err := f.movies.Register(context.Background(), m); err != nil {
		t.Fatalf("register: %v", err)
	}
	media := &omdb.Media{Title: "T", Year: "2000", IMDBID: imdbID, Type: "movie"}
	f.gw.putMessage(messageID, f.gw.BotUserID(), render.Embed(media, "", "url"))
	return m
}

func event(userID, messageID, emoji string) ReactionEvent {
	return ReactionEvent{
		UserID:    userID,
		MessageID: messageID,
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Emoji:     emoji,
	}
}

func TestReactionAdd_FreshVote(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()

	got, ok, _ := f.ratings.UserRating(ctx, m.Scope(), "user-a")
	if !ok {
		t.Fatal("expected vote to be persisted")
	}
	if got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	s, _ := f.agg.Stats(ctx, m.Scope())
	if s.Count != 1 {
		t.Fatalf("expected count 1, got %d", s.Count)
	}
	if f.gw.editCount() != 1 {
		t.Fatalf("expected 1 re-render edit, got %d", f.gw.editCount())
	}
}

func TestReactionAdd_SelfReactionIgnored(t *testing.T) {
	f := newRouterFixture(t)
	f.trackMovie(t, "tt0111161", "msg-1")

	f.router.HandleReactionAdd(context.Background(), event(f.gw.BotUserID(), "msg-1", "8️⃣"))
	f.router.Wait()

	if n, _ := f.ratings.Count(context.Background()); n != 0 {
		t.Fatalf("expected no votes, got %d", n)
	}
}

func TestReactionAdd_NotATarget(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	// Unknown message, nothing fetchable: silent no-op.
	f.router.HandleReactionAdd(ctx, event("user-a", "msg-unknown", "8️⃣"))
	f.router.Wait()

	if n, _ := f.ratings.Count(ctx); n != 0 {
		t.Fatalf("expected no votes, got %d", n)
	}
	if f.gw.noticeCount() != 0 {
		t.Fatal("not-a-target must not produce user-visible noise")
	}
}

func TestReactionAdd_NonMovieMessageIgnored(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	// A fetchable message authored by someone else carries no movie.
	f.gw.putMessage("msg-chat", "user-b")
	f.router.HandleReactionAdd(ctx, event("user-a", "msg-chat", "8️⃣"))
	f.router.Wait()

	if n, _ := f.ratings.Count(ctx); n != 0 {
		t.Fatalf("expected no votes, got %d", n)
	}
}

func TestReactionAdd_InvalidEmojiRejected(t *testing.T) {
	f := newRouterFixture(t)
	f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "👍"))
	f.router.Wait()

	if n, _ := f.ratings.Count(ctx); n != 0 {
		t.Fatalf("invalid emoji must never create a vote, got %d rows", n)
	}
	if f.gw.removedCount() != 1 {
		t.Fatalf("expected the invalid reaction to be removed, removals=%d", f.gw.removedCount())
	}
	if f.gw.noticeCount() != 1 {
		t.Fatalf("expected a rejection notice, notices=%d", f.gw.noticeCount())
	}
}

func TestReactionAdd_RejectionToleratesPermissionFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.trackMovie(t, "tt0111161", "msg-1")
	f.gw.removeErr = context.DeadlineExceeded

	// Must not panic or persist anything.
	f.router.HandleReactionAdd(context.Background(), event("user-a", "msg-1", "👍"))
	f.router.Wait()

	if n, _ := f.ratings.Count(context.Background()); n != 0 {
		t.Fatalf("expected no votes, got %d", n)
	}
}

func TestReactionAdd_IdempotentReapply(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()
	before, _ := f.agg.Stats(ctx, m.Scope())

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()
	after, _ := f.agg.Stats(ctx, m.Scope())

	if before != after {
		t.Fatalf("re-applying the same vote changed stats: %+v -> %+v", before, after)
	}
	if f.gw.noticeCount() != 0 {
		t.Fatal("idempotent re-apply must be silent")
	}
}

func TestReactionAdd_VoteChangeRejected(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()
	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "6️⃣"))
	f.router.Wait()

	got, _, _ := f.ratings.UserRating(ctx, m.Scope(), "user-a")
	if got != 8 {
		t.Fatalf("vote change via add must not overwrite; expected 8, got %d", got)
	}
	if f.gw.removedCount() != 1 {
		t.Fatal("expected the conflicting reaction to be removed")
	}
	if f.gw.noticeCount() != 1 {
		t.Fatal("expected guidance notice")
	}
}

func TestReactionRemove_RetractsVote(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()
	f.router.HandleReactionRemove(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()

	if _, ok, _ := f.ratings.UserRating(ctx, m.Scope(), "user-a"); ok {
		t.Fatal("expected vote to be retracted")
	}
	s, _ := f.agg.Stats(ctx, m.Scope())
	if s.Rated() {
		t.Fatalf("expected unrated scope, got %+v", s)
	}
}

func TestReactionRemove_NonCorrespondingIsNoop(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()

	// The cleanup of a rejected second reaction fires a remove for the
	// other emoji; the standing vote must survive it.
	f.router.HandleReactionRemove(ctx, event("user-a", "msg-1", "6️⃣"))
	f.router.Wait()

	got, ok, _ := f.ratings.UserRating(ctx, m.Scope(), "user-a")
	if !ok || got != 8 {
		t.Fatalf("expected standing vote 8 to survive, got %d (ok=%v)", got, ok)
	}

	// Removing with no vote at all is equally silent.
	f.router.HandleReactionRemove(ctx, event("user-b", "msg-1", "5️⃣"))
	f.router.Wait()
	if f.gw.noticeCount() != 0 {
		t.Fatal("no-op removals must not notify")
	}
}

func TestReactionFlow_AverageScenario(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	// A votes 8, B votes 6: average 7.0, count 2.
	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.HandleReactionAdd(ctx, event("user-b", "msg-1", "6️⃣"))
	f.router.Wait()
	s, _ := f.agg.Stats(ctx, m.Scope())
	if s.Average != 7.0 || s.Count != 2 {
		t.Fatalf("expected 7.0/2, got %+v", s)
	}

	// A removes: average 6.0, count 1.
	f.router.HandleReactionRemove(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()
	s, _ = f.agg.Stats(ctx, m.Scope())
	if s.Average != 6.0 || s.Count != 1 {
		t.Fatalf("expected 6.0/1, got %+v", s)
	}

	// A adds 8 again: back to 7.0, count 2.
	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "8️⃣"))
	f.router.Wait()
	s, _ = f.agg.Stats(ctx, m.Scope())
	if s.Average != 7.0 || s.Count != 2 {
		t.Fatalf("expected 7.0/2, got %+v", s)
	}
}

func TestReactionAdd_ColdRegistryFallback(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	// Message exists on the platform but the registry is cold, as after a
	// restart. The embed carries the movie id.
	media := &omdb.Media{Title: "T", Year: "2000", IMDBID: "tt0068646", Type: "movie"}
	f.gw.putMessage("msg-old", f.gw.BotUserID(), render.Embed(media, "", "url"))

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-old", "9️⃣"))
	f.router.Wait()

	scope := store.Scope{IMDBID: "tt0068646", ChannelID: "chan-1", GuildID: "guild-1"}
	got, ok, _ := f.ratings.UserRating(ctx, scope, "user-a")
	if !ok || got != 9 {
		t.Fatalf("expected fallback-resolved vote 9, got %d (ok=%v)", got, ok)
	}

	// The registry is warm now; later events resolve without a fetch.
	if _, found, _ := f.movies.ResolveMessage(ctx, "msg-old"); !found {
		t.Fatal("expected registry backfill")
	}
}

func TestReactionAdd_ConcurrentSameUser(t *testing.T) {
	f := newRouterFixture(t)
	m := f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, emoji := range []string{"8️⃣", "6️⃣", "3️⃣"} {
		wg.Add(1)
		go func(e string) {
			defer wg.Done()
			f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", e))
		}(emoji)
	}
	wg.Wait()
	f.router.Wait()

	// At most one row survives concurrent conflicting adds.
	votes, _ := f.ratings.Votes(ctx, m.Scope())
	if len(votes) != 1 {
		t.Fatalf("expected exactly one persisted vote, got %d", len(votes))
	}
}

func TestRerender_UpdatesUserRatingField(t *testing.T) {
	f := newRouterFixture(t)
	f.trackMovie(t, "tt0111161", "msg-1")
	ctx := context.Background()

	f.router.HandleReactionAdd(ctx, event("user-a", "msg-1", "7️⃣"))
	f.router.Wait()

	msg, err := f.gw.FetchMessage(ctx, "chan-1", "msg-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	last := msg.Embeds[0].Fields[len(msg.Embeds[0].Fields)-1]
	if last.Value != "⭐ 7.0 (1 vote)" {
		t.Fatalf("expected updated user rating field, got %q", last.Value)
	}
}
