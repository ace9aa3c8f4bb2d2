package achievements

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Unlock records an achievement for the user. Returns true only on first
// unlock; repeats are absorbed by the conflict clause.
func (r *Repository) Unlock(userID uuid.UUID, code string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO user_achievements (user_id, code, unlocked_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, code) DO NOTHING`, userID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ListUnlocked(userID uuid.UUID) ([]*models.UserAchievement, error) {
	rows, err := r.db.Query(`
		SELECT user_id, code, unlocked_at FROM user_achievements
		WHERE user_id = $1 ORDER BY unlocked_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.UserAchievement
	for rows.Next() {
		a := &models.UserAchievement{}
		if err := rows.Scan(&a.UserID, &a.Code, &a.UnlockedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
