package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSettingsStore persists guild channel settings in Postgres.
type PostgresSettingsStore struct {
	pool *pgxpool.Pool
}

func NewPostgresSettingsStore(pool *pgxpool.Pool) *PostgresSettingsStore {
	return &PostgresSettingsStore{pool: pool}
}

func (s *PostgresSettingsStore) SetChannel(ctx context.Context, guildID, channelID string) error {
	const q = `INSERT INTO settings (guild_id, channel_id)
	           VALUES ($1, $2)
	           ON CONFLICT (guild_id) DO UPDATE SET channel_id = EXCLUDED.channel_id`
	_, err := s.pool.Exec(ctx, q, guildID, channelID)
	return err
}

func (s *PostgresSettingsStore) Channel(ctx context.Context, guildID string) (string, bool, error) {
	var channelID string
	err := s.pool.QueryRow(ctx, `SELECT channel_id FROM settings WHERE guild_id = $1`, guildID).Scan(&channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return channelID, true, nil
}

func (s *PostgresSettingsStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM settings`).Scan(&n)
	return n, err
}
