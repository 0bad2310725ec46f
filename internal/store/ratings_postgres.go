package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRatingStore persists votes in Postgres.
type PostgresRatingStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRatingStore creates a store backed by Postgres.
func NewPostgresRatingStore(pool *pgxpool.Pool) *PostgresRatingStore {
	return &PostgresRatingStore{pool: pool}
}

func (s *PostgresRatingStore) Upsert(ctx context.Context, scope Scope, userID string, rating int) error {
	if rating < 1 || rating > 10 {
		return ErrRatingOutOfRange
	}
	const q = `INSERT INTO ratings (user_id, imdb_id, rating, channel_id, guild_id)
	           VALUES ($1, $2, $3, $4, $5)
	           ON CONFLICT (user_id, imdb_id, channel_id, guild_id) DO UPDATE SET
	             rating = EXCLUDED.rating,
	             updated_at = now()`
	_, err := s.pool.Exec(ctx, q, userID, scope.IMDBID, rating, scope.ChannelID, scope.GuildID)
	return err
}

func (s *PostgresRatingStore) Delete(ctx context.Context, scope Scope, userID string) (bool, error) {
	const q = `DELETE FROM ratings
	           WHERE user_id = $1 AND imdb_id = $2 AND channel_id = $3 AND guild_id = $4`
	ct, err := s.pool.Exec(ctx, q, userID, scope.IMDBID, scope.ChannelID, scope.GuildID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresRatingStore) UserRating(ctx context.Context, scope Scope, userID string) (int, bool, error) {
	const q = `SELECT rating FROM ratings
	           WHERE user_id = $1 AND imdb_id = $2 AND channel_id = $3 AND guild_id = $4`
	var rating int
	err := s.pool.QueryRow(ctx, q, userID, scope.IMDBID, scope.ChannelID, scope.GuildID).Scan(&rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return rating, true, nil
}

func (s *PostgresRatingStore) Votes(ctx context.Context, scope Scope) ([]int, error) {
	const q = `SELECT rating FROM ratings
	           WHERE imdb_id = $1 AND channel_id = $2 AND guild_id = $3`
	rows, err := s.pool.Query(ctx, q, scope.IMDBID, scope.ChannelID, scope.GuildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		votes = append(votes, r)
	}
	return votes, rows.Err()
}

func (s *PostgresRatingStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n)
	return n, err
}
