package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/tracker"
)

// ListRepository persists list entries in the per-type list tables
// (list_series, list_anime, …). Mutating methods take the tracker's Querier
// so they run inside the transaction the orchestration service opened.
type ListRepository struct {
	db *sql.DB
}

func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db}
}

const listColumns = `user_id, media_id, status, rating, comment, favorite, redo,
	       total, progress, current_season, added_at, last_updated`

func listTable(mt models.MediaType) string {
	return "list_" + string(mt)
}

func (r *ListRepository) Find(q tracker.Querier, userID, mediaID uuid.UUID, mt models.MediaType) (*models.ListEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND media_id = $2`,
		listColumns, listTable(mt))
	return scanEntry(q.QueryRow(query, userID, mediaID), mt)
}

// FindForUpdate locks the entry row until the surrounding transaction ends,
// serializing concurrent mutations of the same (user, media) pair.
func (r *ListRepository) FindForUpdate(q tracker.Querier, userID, mediaID uuid.UUID, mt models.MediaType) (*models.ListEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND media_id = $2 FOR UPDATE`,
		listColumns, listTable(mt))
	return scanEntry(q.QueryRow(query, userID, mediaID), mt)
}

func (r *ListRepository) Insert(q tracker.Querier, e *models.ListEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, media_id, status, rating, comment, favorite,
		                redo, total, progress, current_season, added_at, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`, listTable(e.MediaType))
	_, err := q.Exec(query, e.UserID, e.MediaID, e.Status, e.Rating, e.Comment,
		e.Favorite, e.Redo, e.Total, e.Progress, e.CurrentSeason, e.AddedAt, e.LastUpdated)
	return err
}

func (r *ListRepository) Update(q tracker.Querier, e *models.ListEntry) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status=$3, rating=$4, comment=$5, favorite=$6, redo=$7,
		              total=$8, progress=$9, current_season=$10, last_updated=$11
		WHERE user_id=$1 AND media_id=$2`, listTable(e.MediaType))
	res, err := q.Exec(query, e.UserID, e.MediaID, e.Status, e.Rating, e.Comment,
		e.Favorite, e.Redo, e.Total, e.Progress, e.CurrentSeason, e.LastUpdated)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("list entry not found")
	}
	return nil
}

func (r *ListRepository) Delete(q tracker.Querier, userID, mediaID uuid.UUID, mt models.MediaType) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND media_id = $2`, listTable(mt))
	res, err := q.Exec(query, userID, mediaID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("list entry not found")
	}
	return nil
}

// ListForUser returns the user's entries with media rows joined, newest first.
func (r *ListRepository) ListForUser(userID uuid.UUID, mt models.MediaType, limit, offset int) ([]*models.ListEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT l.user_id, l.media_id, l.status, l.rating, l.comment, l.favorite,
		       l.redo, l.total, l.progress, l.current_season, l.added_at, l.last_updated,
		       m.id, m.media_type, m.external_id, m.title, m.total_units, m.episode_runtime,
		       m.release_status, m.genres, m.cover_url, m.year, m.created_at, m.updated_at
		FROM %s l
		JOIN %s m ON m.id = l.media_id
		WHERE l.user_id = $1
		ORDER BY l.last_updated DESC
		LIMIT $2 OFFSET $3`, listTable(mt), mediaTable(mt))

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ListEntry
	for rows.Next() {
		e := &models.ListEntry{MediaType: mt}
		m := &models.MediaRecord{}
		if err := rows.Scan(
			&e.UserID, &e.MediaID, &e.Status, &e.Rating, &e.Comment, &e.Favorite,
			&e.Redo, &e.Total, &e.Progress, &e.CurrentSeason, &e.AddedAt, &e.LastUpdated,
			&m.ID, &m.Type, &m.ExternalID, &m.Title, &m.TotalUnits, &m.EpisodeRuntime,
			&m.ReleaseStatus, &m.Genres, &m.CoverURL, &m.Year, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.Media = m
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListWithMediaTx streams every entry of a user's list with its media record,
// inside the caller's transaction. Used by the recompute job.
func (r *ListRepository) ListWithMediaTx(q tracker.Querier, userID uuid.UUID, mt models.MediaType) ([]*models.ListEntry, error) {
	query := fmt.Sprintf(`
		SELECT l.user_id, l.media_id, l.status, l.rating, l.comment, l.favorite,
		       l.redo, l.total, l.progress, l.current_season, l.added_at, l.last_updated,
		       m.id, m.media_type, m.external_id, m.title, m.total_units, m.episode_runtime,
		       m.release_status, m.genres, m.cover_url, m.year, m.created_at, m.updated_at
		FROM %s l
		JOIN %s m ON m.id = l.media_id
		WHERE l.user_id = $1`, listTable(mt), mediaTable(mt))

	rows, err := q.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ListEntry
	for rows.Next() {
		e := &models.ListEntry{MediaType: mt}
		m := &models.MediaRecord{}
		if err := rows.Scan(
			&e.UserID, &e.MediaID, &e.Status, &e.Rating, &e.Comment, &e.Favorite,
			&e.Redo, &e.Total, &e.Progress, &e.CurrentSeason, &e.AddedAt, &e.LastUpdated,
			&m.ID, &m.Type, &m.ExternalID, &m.Title, &m.TotalUnits, &m.EpisodeRuntime,
			&m.ReleaseStatus, &m.Genres, &m.CoverURL, &m.Year, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.Media = m
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row *sql.Row, mt models.MediaType) (*models.ListEntry, error) {
	e := &models.ListEntry{MediaType: mt}
	err := row.Scan(
		&e.UserID, &e.MediaID, &e.Status, &e.Rating, &e.Comment, &e.Favorite,
		&e.Redo, &e.Total, &e.Progress, &e.CurrentSeason, &e.AddedAt, &e.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
