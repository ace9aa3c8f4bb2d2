package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

// MediaRepository reads the per-type media tables (media_series, media_anime,
// media_movies, media_games, media_books, media_manga). All six share one
// schema; writes belong to the provider-sync side.
type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const mediaColumns = `id, media_type, external_id, title, total_units, episode_runtime,
	       release_status, genres, cover_url, year, created_at, updated_at`

func mediaTable(mt models.MediaType) string {
	return "media_" + string(mt)
}

func (r *MediaRepository) FindByID(mt models.MediaType, id uuid.UUID) (*models.MediaRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, mediaColumns, mediaTable(mt))
	return r.scanOne(r.db.QueryRow(query, id))
}

func (r *MediaRepository) FindByExternalID(mt models.MediaType, externalID string) (*models.MediaRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE external_id = $1`, mediaColumns, mediaTable(mt))
	return r.scanOne(r.db.QueryRow(query, externalID))
}

func (r *MediaRepository) Search(mt models.MediaType, title string, limit int) ([]*models.MediaRecord, error) {
	if limit <= 0 {
		limit = 25
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE title ILIKE '%%' || $1 || '%%'
		ORDER BY title LIMIT $2`, mediaColumns, mediaTable(mt))
	rows, err := r.db.Query(query, title, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MediaRecord
	for rows.Next() {
		m := &models.MediaRecord{}
		if err := scanMedia(rows, m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MediaRepository) scanOne(row *sql.Row) (*models.MediaRecord, error) {
	m := &models.MediaRecord{}
	err := row.Scan(
		&m.ID, &m.Type, &m.ExternalID, &m.Title, &m.TotalUnits, &m.EpisodeRuntime,
		&m.ReleaseStatus, &m.Genres, &m.CoverURL, &m.Year, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMedia(s scanner, m *models.MediaRecord) error {
	return s.Scan(
		&m.ID, &m.Type, &m.ExternalID, &m.Title, &m.TotalUnits, &m.EpisodeRuntime,
		&m.ReleaseStatus, &m.Genres, &m.CoverURL, &m.Year, &m.CreatedAt, &m.UpdatedAt,
	)
}
