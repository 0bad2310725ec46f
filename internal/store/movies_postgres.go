package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMovieStore persists the message-to-movie registry in Postgres.
type PostgresMovieStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMovieStore(pool *pgxpool.Pool) *PostgresMovieStore {
	return &PostgresMovieStore{pool: pool}
}

func (s *PostgresMovieStore) Register(ctx context.Context, m Movie) error {
	const q = `INSERT INTO movies (imdb_id, message_id, channel_id, guild_id, trailer_url)
	           VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	           ON CONFLICT (message_id) DO NOTHING`
	_, err := s.pool.Exec(ctx, q, m.IMDBID, m.MessageID, m.ChannelID, m.GuildID, m.TrailerURL)
	return err
}

func (s *PostgresMovieStore) ResolveMessage(ctx context.Context, messageID string) (Movie, bool, error) {
	const q = `SELECT imdb_id, message_id, channel_id, guild_id, COALESCE(trailer_url, ''), created_at
	           FROM movies WHERE message_id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, messageID))
}

func (s *PostgresMovieStore) FindInChannel(ctx context.Context, imdbID, channelID, guildID string) (Movie, bool, error) {
	const q = `SELECT imdb_id, message_id, channel_id, guild_id, COALESCE(trailer_url, ''), created_at
	           FROM movies WHERE imdb_id = $1 AND channel_id = $2 AND guild_id = $3
	           LIMIT 1`
	return s.scanOne(s.pool.QueryRow(ctx, q, imdbID, channelID, guildID))
}

func (s *PostgresMovieStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

func (s *PostgresMovieStore) scanOne(row pgx.Row) (Movie, bool, error) {
	var m Movie
	err := row.Scan(&m.IMDBID, &m.MessageID, &m.ChannelID, &m.GuildID, &m.TrailerURL, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movie{}, false, nil
		}
		return Movie{}, false, err
	}
	return m, true, nil
}
