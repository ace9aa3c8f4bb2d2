package users

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(u *models.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	_, err := r.db.Exec(`
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*models.User, error) {
	return r.scan(r.db.QueryRow(`
		SELECT id, username, email, password_hash, role, is_active, avatar_url, created_at, updated_at
		FROM users WHERE id = $1`, id))
}

func (r *Repository) GetByUsername(username string) (*models.User, error) {
	return r.scan(r.db.QueryRow(`
		SELECT id, username, email, password_hash, role, is_active, avatar_url, created_at, updated_at
		FROM users WHERE username = $1`, username))
}

func (r *Repository) List() ([]*models.User, error) {
	rows, err := r.db.Query(`
		SELECT id, username, email, password_hash, role, is_active, avatar_url, created_at, updated_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
			&u.IsActive, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListIDs returns every active user id. Used by bulk recompute enqueues.
func (r *Repository) ListIDs() ([]uuid.UUID, error) {
	rows, err := r.db.Query(`SELECT id FROM users WHERE is_active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) CountUsers() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *Repository) scan(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
