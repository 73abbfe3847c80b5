package favoritesrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/weather-favorites/internal/domain/favorites"
	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

const favoritesSchema = `
	CREATE TABLE IF NOT EXISTS favorites (
		id          BIGSERIAL PRIMARY KEY,
		city_name   TEXT NOT NULL,
		region      TEXT NOT NULL,
		city_key    TEXT NOT NULL,
		region_key  TEXT NOT NULL,
		latitude    TEXT,
		longitude   TEXT,
		data        JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (city_key, region_key)
	)
`

// PostgresRepository persists favorites in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the favorites table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, favoritesSchema); err != nil {
		return fmt.Errorf("create favorites table: %w", err)
	}
	return nil
}

// List returns entries in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]favorites.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT city_name, region, latitude, longitude, data
		FROM favorites
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []favorites.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Insert adds the entry. The unique key makes the check and insert atomic.
func (r *PostgresRepository) Insert(ctx context.Context, entry favorites.Entry) error {
	data, err := json.Marshal(recordsOrEmpty(entry.Data))
	if err != nil {
		return fmt.Errorf("encode favorite data: %w", err)
	}
	var lat, long *string
	if entry.Coordinates != nil {
		lat, long = &entry.Coordinates.Latitude, &entry.Coordinates.Longitude
	}
	key := entry.Key()

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO favorites (city_name, region, city_key, region_key, latitude, longitude, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (city_key, region_key) DO NOTHING
		RETURNING id
	`, entry.CityName, entry.Region, key.City, key.Region, lat, long, data).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return favorites.ErrDuplicate
	}
	return err
}

// Delete removes the entry with the given identity.
func (r *PostgresRepository) Delete(ctx context.Context, key favorites.Key) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM favorites
		WHERE city_key = $1 AND region_key = $2
	`, key.City, key.Region)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return favorites.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (favorites.Entry, error) {
	var (
		entry     favorites.Entry
		lat, long *string
		data      []byte
	)
	if err := row.Scan(&entry.CityName, &entry.Region, &lat, &long, &data); err != nil {
		return favorites.Entry{}, err
	}
	if lat != nil && long != nil {
		entry.Coordinates = &geo.Coordinates{Latitude: *lat, Longitude: *long}
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entry.Data); err != nil {
			return favorites.Entry{}, fmt.Errorf("decode favorite data: %w", err)
		}
	}
	return entry, nil
}

func recordsOrEmpty(records []forecast.DayRecord) []forecast.DayRecord {
	if records == nil {
		return []forecast.DayRecord{}
	}
	return records
}

var _ favorites.Repository = (*PostgresRepository)(nil)
