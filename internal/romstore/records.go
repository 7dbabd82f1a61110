package romstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ryanm101/romscraper/internal/metrics"
	"github.com/ryanm101/romscraper/internal/scraper"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("rom record not found")

// PlatformCount summarizes the stored records for one platform.
type PlatformCount struct {
	Platform string `json:"platform"`
	Roms     int    `json:"roms"`
	Scraped  int    `json:"scraped"`
}

const recordColumns = `id, path, platform, title, year, genre, developer, players, rating, plot, metadata_source`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*scraper.Record, error) {
	var rec scraper.Record
	md := &rec.Metadata
	if err := row.Scan(&rec.ID, &rec.Path, &rec.Platform, &md.Title, &md.Year, &md.Genre,
		&md.Developer, &md.Players, &md.Rating, &md.Plot, &rec.MetadataSource); err != nil {
		return nil, err
	}
	rec.Assets = make(map[scraper.AssetKind]string)
	return &rec, nil
}

// Ensure returns the stored record for path, creating one with a fresh id
// when the ROM has not been seen. The id is stable across runs.
func (s *Store) Ensure(ctx context.Context, path, platform string) (*scraper.Record, error) {
	rec, err := s.GetByPath(ctx, path)
	if err == nil {
		if platform != "" && rec.Platform != platform {
			rec.Platform = platform
			if _, err := s.conn.ExecContext(ctx, "UPDATE roms SET platform = ? WHERE id = ?", platform, rec.ID); err != nil {
				return nil, fmt.Errorf("failed to update platform: %w", err)
			}
		}
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec = scraper.NewRecord(uuid.NewString(), path, platform)
	if _, err := s.conn.ExecContext(ctx,
		"INSERT INTO roms (id, path, platform) VALUES (?, ?, ?)",
		rec.ID, rec.Path, rec.Platform); err != nil {
		return nil, fmt.Errorf("failed to insert rom: %w", err)
	}
	return rec, nil
}

// Save writes the record's metadata and replaces its asset paths.
func (s *Store) Save(ctx context.Context, rec *scraper.Record) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	md := rec.Metadata
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO roms (id, path, platform, title, year, genre, developer, players, rating, plot, metadata_source, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			platform = excluded.platform,
			title = excluded.title,
			year = excluded.year,
			genre = excluded.genre,
			developer = excluded.developer,
			players = excluded.players,
			rating = excluded.rating,
			plot = excluded.plot,
			metadata_source = excluded.metadata_source,
			scraped_at = CURRENT_TIMESTAMP
	`, rec.ID, rec.Path, rec.Platform, md.Title, md.Year, md.Genre, md.Developer,
		md.Players, md.Rating, md.Plot, rec.MetadataSource); err != nil {
		return fmt.Errorf("failed to save rom: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rom_assets WHERE rom_id = ?", rec.ID); err != nil {
		return fmt.Errorf("failed to clear assets: %w", err)
	}
	for kind, path := range rec.Assets {
		if path == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO rom_assets (rom_id, kind, path) VALUES (?, ?, ?)",
			rec.ID, kind.String(), path); err != nil {
			return fmt.Errorf("failed to save %s asset: %w", kind, err)
		}
	}

	return tx.Commit()
}

// GetByPath loads the record for a ROM file.
func (s *Store) GetByPath(ctx context.Context, path string) (*scraper.Record, error) {
	row := s.conn.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM roms WHERE path = ?", path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rom: %w", err)
	}
	if err := s.loadAssets(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records ordered by path. An empty platform lists everything.
func (s *Store) List(ctx context.Context, platform string) ([]*scraper.Record, error) {
	query := "SELECT " + recordColumns + " FROM roms"
	var args []any
	if platform != "" {
		query += " WHERE platform = ?"
		args = append(args, platform)
	}
	query += " ORDER BY path"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var recs []*scraper.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range recs {
		if err := s.loadAssets(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// Platforms counts stored records per platform.
func (s *Store) Platforms(ctx context.Context) ([]PlatformCount, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT platform, COUNT(*), SUM(CASE WHEN scraped_at IS NOT NULL THEN 1 ELSE 0 END)
		FROM roms
		GROUP BY platform
		ORDER BY platform
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []PlatformCount
	for rows.Next() {
		var pc PlatformCount
		if err := rows.Scan(&pc.Platform, &pc.Roms, &pc.Scraped); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// RefreshMetrics updates the store gauges.
func (s *Store) RefreshMetrics(ctx context.Context) error {
	return metrics.UpdateStoreMetrics(ctx, s.conn)
}

func (s *Store) loadAssets(ctx context.Context, rec *scraper.Record) error {
	rows, err := s.conn.QueryContext(ctx, "SELECT kind, path FROM rom_assets WHERE rom_id = ?", rec.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return err
		}
		kind, err := scraper.ParseAssetKind(name)
		if err != nil {
			continue
		}
		rec.SetAsset(kind, path)
	}
	return rows.Err()
}
