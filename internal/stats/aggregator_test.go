package stats

import (
	"context"
	"testing"
	"time"

	"github.com/example/imdb-bot/internal/store"
)

func testScope() store.Scope {
	return store.Scope{IMDBID: "tt0111161", ChannelID: "chan-1", GuildID: "guild-1"}
}

func TestAggregator_EmptyScope(t *testing.T) {
	agg := NewAggregator(store.NewInMemoryRatingStore(), NewTTLCache(time.Minute))

	s, err := agg.Stats(context.Background(), testScope())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Rated() {
		t.Fatal("expected zero-vote scope to be unrated")
	}
	if s.Count != 0 {
		t.Fatalf("expected count 0, got %d", s.Count)
	}
}

func TestAggregator_Mean(t *testing.T) {
	ratings := store.NewInMemoryRatingStore()
	agg := NewAggregator(ratings, NewTTLCache(time.Minute))
	ctx := context.Background()
	scope := testScope()

	for i, v := range []int{8, 7, 6, 8, 9} {
		_ = ratings.Upsert(ctx, scope, string(rune('a'+i)), v)
	}

	s, err := agg.Stats(ctx, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Count != 5 {
		t.Fatalf("expected count 5, got %d", s.Count)
	}
	if s.Average != 7.6 {
		t.Fatalf("expected average 7.6, got %v", s.Average)
	}
}

func TestAggregator_CacheServesUntilInvalidated(t *testing.T) {
	ratings := store.NewInMemoryRatingStore()
	agg := NewAggregator(ratings, NewTTLCache(time.Hour))
	ctx := context.Background()
	scope := testScope()

	_ = ratings.Upsert(ctx, scope, "user-a", 8)
	s, _ := agg.Stats(ctx, scope)
	if s.Count != 1 {
		t.Fatalf("expected count 1, got %d", s.Count)
	}

	// A store write without invalidation is served stale from cache.
	_ = ratings.Upsert(ctx, scope, "user-b", 6)
	s, _ = agg.Stats(ctx, scope)
	if s.Count != 1 {
		t.Fatalf("expected stale cached count 1, got %d", s.Count)
	}

	// Invalidation forces the recompute.
	agg.Invalidate(ctx, scope)
	s, _ = agg.Stats(ctx, scope)
	if s.Count != 2 {
		t.Fatalf("expected recomputed count 2, got %d", s.Count)
	}
	if s.Average != 7.0 {
		t.Fatalf("expected average 7.0, got %v", s.Average)
	}
}

func TestAggregator_NilCacheRecomputesEveryRead(t *testing.T) {
	ratings := store.NewInMemoryRatingStore()
	agg := NewAggregator(ratings, nil)
	ctx := context.Background()
	scope := testScope()

	_ = ratings.Upsert(ctx, scope, "user-a", 10)
	s, err := agg.Stats(ctx, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Average != 10 || s.Count != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache(10 * time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "k", Stats{Average: 5, Count: 1})
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestTTLCache_Delete(t *testing.T) {
	c := NewTTLCache(time.Hour)
	ctx := context.Background()

	c.Set(ctx, "k", Stats{Average: 5, Count: 1})
	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
}
