// Package stats answers "what should the embed display right now" for a
// rating scope. It trades a small staleness window for read efficiency under
// reaction bursts; the rating store remains the sole correctness authority.
package stats

import (
	"context"
	"strings"

	"github.com/example/imdb-bot/internal/store"
)

// Stats is the derived aggregate for one scope. Count == 0 means the movie
// has no votes; Average is meaningless then and must never be displayed as 0.
type Stats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Rated reports whether the scope has at least one vote.
func (s Stats) Rated() bool { return s.Count > 0 }

// Aggregator computes and caches per-scope aggregates.
type Aggregator struct {
	ratings store.RatingStore
	cache   Cache
}

func NewAggregator(ratings store.RatingStore, cache Cache) *Aggregator {
	return &Aggregator{ratings: ratings, cache: cache}
}

// Stats serves from cache when possible, otherwise recomputes from the
// rating store and repopulates the cache. Concurrent readers may race a
// recompute and briefly observe a stale entry; acceptable for display.
func (a *Aggregator) Stats(ctx context.Context, scope store.Scope) (Stats, error) {
	key := cacheKey(scope)
	if a.cache != nil {
		if s, ok := a.cache.Get(ctx, key); ok {
			return s, nil
		}
	}

	votes, err := a.ratings.Votes(ctx, scope)
	if err != nil {
		return Stats{}, err
	}
	s := compute(votes)
	if a.cache != nil {
		a.cache.Set(ctx, key, s)
	}
	return s, nil
}

// Invalidate eagerly drops the cached entry for a scope. Called after every
// write so the next read never serves the pre-write aggregate.
func (a *Aggregator) Invalidate(ctx context.Context, scope store.Scope) {
	if a.cache != nil {
		a.cache.Delete(ctx, cacheKey(scope))
	}
}

func compute(votes []int) Stats {
	if len(votes) == 0 {
		return Stats{}
	}
	sum := 0
	for _, v := range votes {
		sum += v
	}
	return Stats{
		Average: float64(sum) / float64(len(votes)),
		Count:   len(votes),
	}
}

func cacheKey(scope store.Scope) string {
	return strings.Join([]string{scope.IMDBID, scope.ChannelID, scope.GuildID}, ":")
}
