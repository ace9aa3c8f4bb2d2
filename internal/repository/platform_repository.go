package repository

import (
	"database/sql"

	"github.com/tracknest/tracknest/internal/models"
)

// PlatformRepository maintains the platform-wide aggregate rows. They are
// rebuilt from user_stats by the nightly rollup job, never touched by the
// per-mutation fold path.
type PlatformRepository struct {
	db *sql.DB
}

func NewPlatformRepository(db *sql.DB) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// Rebuild recomputes the platform row for one media type from the per-user
// aggregates and upserts it.
func (r *PlatformRepository) Rebuild(mt models.MediaType) (*models.PlatformStats, error) {
	s := &models.PlatformStats{MediaType: mt, StatusCounts: models.StatusCounts{}}

	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(time_spent), 0), COALESCE(SUM(total_entries), 0),
		       COALESCE(SUM(total_redo), 0), COALESCE(SUM(total_specific), 0),
		       COALESCE(SUM(entries_rated), 0), COALESCE(SUM(sum_entries_rated), 0),
		       COALESCE(SUM(entries_commented), 0), COALESCE(SUM(entries_favorites), 0),
		       COUNT(*) FILTER (WHERE total_entries > 0)
		FROM user_stats WHERE media_type = $1`, mt,
	).Scan(&s.TimeSpent, &s.TotalEntries, &s.TotalRedo, &s.TotalSpecific,
		&s.EntriesRated, &s.SumEntriesRated, &s.EntriesCommented,
		&s.EntriesFavorites, &s.ActiveUsers)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT kv.key, SUM(kv.value::int)
		FROM user_stats, jsonb_each_text(status_counts) kv
		WHERE media_type = $1
		GROUP BY kv.key`, mt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		if n != 0 {
			s.StatusCounts[models.Status(key)] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.EntriesRated > 0 {
		avg := s.SumEntriesRated / float64(s.EntriesRated)
		s.AverageRating = &avg
	}

	err = r.db.QueryRow(`
		INSERT INTO platform_stats (media_type, time_spent, total_entries, total_redo,
		                            total_specific, entries_rated, sum_entries_rated,
		                            entries_commented, entries_favorites, status_counts,
		                            average_rating, active_users, computed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
		ON CONFLICT (media_type) DO UPDATE SET
		    time_spent = EXCLUDED.time_spent,
		    total_entries = EXCLUDED.total_entries,
		    total_redo = EXCLUDED.total_redo,
		    total_specific = EXCLUDED.total_specific,
		    entries_rated = EXCLUDED.entries_rated,
		    sum_entries_rated = EXCLUDED.sum_entries_rated,
		    entries_commented = EXCLUDED.entries_commented,
		    entries_favorites = EXCLUDED.entries_favorites,
		    status_counts = EXCLUDED.status_counts,
		    average_rating = EXCLUDED.average_rating,
		    active_users = EXCLUDED.active_users,
		    computed_at = NOW()
		RETURNING computed_at`,
		s.MediaType, s.TimeSpent, s.TotalEntries, s.TotalRedo, s.TotalSpecific,
		s.EntriesRated, s.SumEntriesRated, s.EntriesCommented, s.EntriesFavorites,
		s.StatusCounts, s.AverageRating, s.ActiveUsers,
	).Scan(&s.ComputedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PlatformRepository) Get(mt models.MediaType) (*models.PlatformStats, error) {
	s := &models.PlatformStats{}
	err := r.db.QueryRow(`
		SELECT media_type, time_spent, total_entries, total_redo, total_specific,
		       entries_rated, sum_entries_rated, entries_commented, entries_favorites,
		       status_counts, average_rating, active_users, computed_at
		FROM platform_stats WHERE media_type = $1`, mt,
	).Scan(&s.MediaType, &s.TimeSpent, &s.TotalEntries, &s.TotalRedo, &s.TotalSpecific,
		&s.EntriesRated, &s.SumEntriesRated, &s.EntriesCommented, &s.EntriesFavorites,
		&s.StatusCounts, &s.AverageRating, &s.ActiveUsers, &s.ComputedAt)
	if err == sql.ErrNoRows {
		return &models.PlatformStats{MediaType: mt, StatusCounts: models.StatusCounts{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
