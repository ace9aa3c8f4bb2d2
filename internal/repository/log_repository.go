package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/tracker"
)

// LogRepository stores the per-entry audit history.
type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Append(q tracker.Querier, e *models.LogEntry) error {
	_, err := q.Exec(`
		INSERT INTO list_history (id, user_id, media_id, media_type, field, old_value, new_value, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.UserID, e.MediaID, e.MediaType, e.Field, e.OldValue, e.NewValue, e.CreatedAt)
	return err
}

func (r *LogRepository) ListForEntry(userID, mediaID uuid.UUID, mt models.MediaType, limit int) ([]*models.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(`
		SELECT id, user_id, media_id, media_type, field, old_value, new_value, created_at
		FROM list_history
		WHERE user_id = $1 AND media_id = $2 AND media_type = $3
		ORDER BY created_at DESC LIMIT $4`,
		userID, mediaID, mt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LogEntry
	for rows.Next() {
		e := &models.LogEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.MediaID, &e.MediaType,
			&e.Field, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
