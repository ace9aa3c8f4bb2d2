package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/tracker"
)

// StatsRepository owns the precomputed user_stats rows. The hot path mutates
// them exclusively through ApplyDelta, a single additive UPDATE, so folds
// from concurrent transactions commute instead of racing.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

const statsColumns = `user_id, media_type, time_spent, total_entries, total_redo,
	       total_specific, entries_rated, sum_entries_rated, entries_commented,
	       entries_favorites, status_counts, average_rating, last_updated`

// ApplyDelta folds d into the (userID, mt) aggregate row. Every touched
// column is an in-place increment; status counts merge key-by-key into the
// jsonb map; average_rating is derived from the post-increment rating sums in
// the same statement. Empty deltas issue no write at all.
func (r *StatsRepository) ApplyDelta(q tracker.Querier, userID uuid.UUID, mt models.MediaType, d tracker.Delta) error {
	if d.IsZero() {
		return nil
	}

	set, args := foldAssignments(d)
	args = append(args, userID, mt)
	query := fmt.Sprintf(`UPDATE user_stats SET %s WHERE user_id = $%d AND media_type = $%d`,
		strings.Join(set, ", "), len(args)-1, len(args))

	res, err := q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("fold delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// First mutation for this user × type: provision the row, then fold.
	if err := r.Provision(q, userID, mt); err != nil {
		return err
	}
	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("fold delta after provision: %w", err)
	}
	return nil
}

// foldAssignments renders the SET clauses for a delta. Status keys are
// sorted so the generated SQL is deterministic.
func foldAssignments(d tracker.Delta) ([]string, []interface{}) {
	var set []string
	var args []interface{}

	inc := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = %s + $%d", col, col, len(args)))
	}

	if d.TimeSpent != 0 {
		inc("time_spent", d.TimeSpent)
	}
	if d.TotalEntries != 0 {
		inc("total_entries", d.TotalEntries)
	}
	if d.TotalRedo != 0 {
		inc("total_redo", d.TotalRedo)
	}
	if d.TotalSpecific != 0 {
		inc("total_specific", d.TotalSpecific)
	}
	if d.EntriesCommented != 0 {
		inc("entries_commented", d.EntriesCommented)
	}
	if d.EntriesFavorites != 0 {
		inc("entries_favorites", d.EntriesFavorites)
	}

	if len(d.StatusCounts) > 0 {
		keys := make([]string, 0, len(d.StatusCounts))
		for st := range d.StatusCounts {
			keys = append(keys, string(st))
		}
		sort.Strings(keys)

		// Chained jsonb_set calls: the column may only be assigned once per
		// UPDATE, and inner status_counts references read the pre-update row.
		expr := "COALESCE(status_counts, '{}'::jsonb)"
		for _, key := range keys {
			n := d.StatusCounts[models.Status(key)]
			if n == 0 {
				continue
			}
			args = append(args, key)
			ki := len(args)
			args = append(args, n)
			vi := len(args)
			expr = fmt.Sprintf(
				"jsonb_set(%s, ARRAY[$%d::text], to_jsonb(COALESCE((status_counts->>$%d::text)::int, 0) + $%d), true)",
				expr, ki, ki, vi)
		}
		set = append(set, "status_counts = "+expr)
	}

	if d.EntriesRated != 0 || d.SumEntriesRated != 0 {
		args = append(args, d.EntriesRated)
		eri := len(args)
		args = append(args, d.SumEntriesRated)
		sri := len(args)
		set = append(set, fmt.Sprintf("entries_rated = entries_rated + $%d", eri))
		set = append(set, fmt.Sprintf("sum_entries_rated = sum_entries_rated + $%d", sri))
		set = append(set, fmt.Sprintf(
			"average_rating = CASE WHEN entries_rated + $%d <= 0 THEN NULL ELSE (sum_entries_rated + $%d) / (entries_rated + $%d) END",
			eri, sri, eri))
	}

	set = append(set, "last_updated = NOW()")
	return set, args
}

// Provision creates the zeroed aggregate row for a user × type if missing.
func (r *StatsRepository) Provision(q tracker.Querier, userID uuid.UUID, mt models.MediaType) error {
	_, err := q.Exec(`
		INSERT INTO user_stats (user_id, media_type, status_counts, last_updated)
		VALUES ($1, $2, '{}'::jsonb, NOW())
		ON CONFLICT (user_id, media_type) DO NOTHING`, userID, mt)
	return err
}

// Get returns the aggregate row, or a zeroed row when none exists yet.
func (r *StatsRepository) Get(userID uuid.UUID, mt models.MediaType) (*models.UserStats, error) {
	s := &models.UserStats{}
	err := r.db.QueryRow(fmt.Sprintf(
		`SELECT %s FROM user_stats WHERE user_id = $1 AND media_type = $2`, statsColumns),
		userID, mt,
	).Scan(
		&s.UserID, &s.MediaType, &s.TimeSpent, &s.TotalEntries, &s.TotalRedo,
		&s.TotalSpecific, &s.EntriesRated, &s.SumEntriesRated, &s.EntriesCommented,
		&s.EntriesFavorites, &s.StatusCounts, &s.AverageRating, &s.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return &models.UserStats{
			UserID: userID, MediaType: mt, StatusCounts: models.StatusCounts{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetAll returns the user's aggregate rows across all media types.
func (r *StatsRepository) GetAll(userID uuid.UUID) ([]*models.UserStats, error) {
	rows, err := r.db.Query(fmt.Sprintf(
		`SELECT %s FROM user_stats WHERE user_id = $1 ORDER BY media_type`, statsColumns), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.UserStats
	for rows.Next() {
		s := &models.UserStats{}
		if err := rows.Scan(
			&s.UserID, &s.MediaType, &s.TimeSpent, &s.TotalEntries, &s.TotalRedo,
			&s.TotalSpecific, &s.EntriesRated, &s.SumEntriesRated, &s.EntriesCommented,
			&s.EntriesFavorites, &s.StatusCounts, &s.AverageRating, &s.LastUpdated,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceTx overwrites the aggregate row wholesale. Reserved for the batch
// recompute job; the mutation path must never call it.
func (r *StatsRepository) ReplaceTx(q tracker.Querier, s *models.UserStats) error {
	_, err := q.Exec(`
		INSERT INTO user_stats (user_id, media_type, time_spent, total_entries, total_redo,
		                        total_specific, entries_rated, sum_entries_rated,
		                        entries_commented, entries_favorites, status_counts,
		                        average_rating, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
		ON CONFLICT (user_id, media_type) DO UPDATE SET
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
		    last_updated = NOW()`,
		s.UserID, s.MediaType, s.TimeSpent, s.TotalEntries, s.TotalRedo,
		s.TotalSpecific, s.EntriesRated, s.SumEntriesRated, s.EntriesCommented,
		s.EntriesFavorites, s.StatusCounts, s.AverageRating)
	return err
}
