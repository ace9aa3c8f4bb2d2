package repository

import (
	"database/sql"

	"github.com/spf13/cast"
)

// SettingsRepository stores admin-tunable key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a setting value by key. Returns empty string if not found.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM system_settings WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetBool parses a setting as a boolean, with a fallback for missing keys.
func (r *SettingsRepository) GetBool(key string, fallback bool) bool {
	v, err := r.Get(key)
	if err != nil || v == "" {
		return fallback
	}
	return cast.ToBool(v)
}

// GetInt parses a setting as an integer, with a fallback for missing keys.
func (r *SettingsRepository) GetInt(key string, fallback int) int {
	v, err := r.Get(key)
	if err != nil || v == "" {
		return fallback
	}
	if n, err := cast.ToIntE(v); err == nil {
		return n
	}
	return fallback
}

// Set upserts a setting key-value pair.
func (r *SettingsRepository) Set(key, value string) error {
	query := `INSERT INTO system_settings (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.Exec(query, key, value)
	return err
}

// GetAll returns all settings as a map.
func (r *SettingsRepository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}
