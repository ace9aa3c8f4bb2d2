package tracker

import (
	"time"

	"github.com/tracknest/tracknest/internal/models"
)

// Delta is the signed change a single list mutation contributes to the
// aggregate stats row. Zero-valued fields mean "unchanged"; a no-op mutation
// produces the zero Delta. Deltas are folded additively, so they commute and
// associate, and removing an entry is the exact negation of adding it.
type Delta struct {
	TotalEntries     int                 `json:"total_entries,omitempty"`
	TimeSpent        float64             `json:"time_spent,omitempty"`
	TotalRedo        int                 `json:"total_redo,omitempty"`
	TotalSpecific    int                 `json:"total_specific,omitempty"`
	EntriesRated     int                 `json:"entries_rated,omitempty"`
	SumEntriesRated  float64             `json:"sum_entries_rated,omitempty"`
	EntriesCommented int                 `json:"entries_commented,omitempty"`
	EntriesFavorites int                 `json:"entries_favorites,omitempty"`
	StatusCounts     models.StatusCounts `json:"status_counts,omitempty"`
}

// Calculate diffs two list-entry states into a Delta. Either side may be nil:
// (nil, S) is an add, (S, nil) a removal, (A, B) an in-place update.
//
// The skeleton is identical for all six media types; only the unit → minutes
// conversion differs, and that comes from the Config (and, for series/anime,
// the media record's episode runtime).
func (c *Config) Calculate(old, new *models.ListEntry, media *models.MediaRecord) Delta {
	var d Delta

	switch {
	case old == nil && new != nil:
		d.TotalEntries = 1
	case old != nil && new == nil:
		d.TotalEntries = -1
	}

	if oldStatus, newStatus := entryStatus(old), entryStatus(new); oldStatus != newStatus {
		counts := models.StatusCounts{}
		if oldStatus != "" {
			counts[oldStatus]--
		}
		if newStatus != "" {
			counts[newStatus]++
		}
		d.StatusCounts = counts
	}

	unitMinutes := c.unitMinutes(media)
	oldTotal, newTotal := entryTotal(old), entryTotal(new)
	d.TimeSpent = float64(newTotal)*unitMinutes - float64(oldTotal)*unitMinutes
	d.TotalSpecific = newTotal - oldTotal
	d.TotalRedo = entryRedo(new) - entryRedo(old)

	d.EntriesRated, d.SumEntriesRated = ratingDelta(entryRating(old), entryRating(new))
	d.EntriesCommented = presenceDelta(hasComment(old), hasComment(new))
	d.EntriesFavorites = presenceDelta(isFavorite(old), isFavorite(new))

	return d
}

// ratingDelta implements the three-way rating split: gained a rating, lost a
// rating, or changed its value (which moves the sum but not the count).
func ratingDelta(old, new *float64) (entries int, sum float64) {
	switch {
	case old == nil && new != nil:
		return 1, *new
	case old != nil && new == nil:
		return -1, -*old
	case old != nil && new != nil:
		return 0, *new - *old
	}
	return 0, 0
}

// presenceDelta is the boolean analogue of ratingDelta for comment and
// favorite counters.
func presenceDelta(old, new bool) int {
	switch {
	case !old && new:
		return 1
	case old && !new:
		return -1
	}
	return 0
}

func entryStatus(e *models.ListEntry) models.Status {
	if e == nil {
		return ""
	}
	return e.Status
}

func entryTotal(e *models.ListEntry) int {
	if e == nil {
		return 0
	}
	return e.Total
}

func entryRedo(e *models.ListEntry) int {
	if e == nil {
		return 0
	}
	return e.Redo
}

func entryRating(e *models.ListEntry) *float64 {
	if e == nil {
		return nil
	}
	return e.Rating
}

func hasComment(e *models.ListEntry) bool {
	return e != nil && e.Comment != nil && *e.Comment != ""
}

func isFavorite(e *models.ListEntry) bool {
	return e != nil && e.Favorite
}

// IsZero reports whether folding d would change nothing. Empty deltas are
// skipped before they reach the database.
func (d Delta) IsZero() bool {
	if d.TotalEntries != 0 || d.TimeSpent != 0 || d.TotalRedo != 0 ||
		d.TotalSpecific != 0 || d.EntriesRated != 0 || d.SumEntriesRated != 0 ||
		d.EntriesCommented != 0 || d.EntriesFavorites != 0 {
		return false
	}
	for _, n := range d.StatusCounts {
		if n != 0 {
			return false
		}
	}
	return true
}

// Add folds other into d field-wise. Used by the batch recompute path to
// combine per-entry deltas before a single aggregate write.
func (d *Delta) Add(other Delta) {
	d.TotalEntries += other.TotalEntries
	d.TimeSpent += other.TimeSpent
	d.TotalRedo += other.TotalRedo
	d.TotalSpecific += other.TotalSpecific
	d.EntriesRated += other.EntriesRated
	d.SumEntriesRated += other.SumEntriesRated
	d.EntriesCommented += other.EntriesCommented
	d.EntriesFavorites += other.EntriesFavorites
	for st, n := range other.StatusCounts {
		if n == 0 {
			continue
		}
		if d.StatusCounts == nil {
			d.StatusCounts = models.StatusCounts{}
		}
		d.StatusCounts[st] += n
	}
}

// Negate returns the field-wise inverse of d.
func (d Delta) Negate() Delta {
	out := Delta{
		TotalEntries:     -d.TotalEntries,
		TimeSpent:        -d.TimeSpent,
		TotalRedo:        -d.TotalRedo,
		TotalSpecific:    -d.TotalSpecific,
		EntriesRated:     -d.EntriesRated,
		SumEntriesRated:  -d.SumEntriesRated,
		EntriesCommented: -d.EntriesCommented,
		EntriesFavorites: -d.EntriesFavorites,
	}
	if d.StatusCounts != nil {
		out.StatusCounts = models.StatusCounts{}
		for st, n := range d.StatusCounts {
			out.StatusCounts[st] = -n
		}
	}
	return out
}

// ApplyTo folds d into an in-memory stats row, mirroring the SQL fold. The
// recompute job builds fresh rows with it, and it doubles as the reference
// implementation the fold tests check against.
func (d Delta) ApplyTo(s *models.UserStats) {
	s.TotalEntries += d.TotalEntries
	s.TimeSpent += d.TimeSpent
	s.TotalRedo += d.TotalRedo
	s.TotalSpecific += d.TotalSpecific
	s.EntriesRated += d.EntriesRated
	s.SumEntriesRated += d.SumEntriesRated
	s.EntriesCommented += d.EntriesCommented
	s.EntriesFavorites += d.EntriesFavorites
	for st, n := range d.StatusCounts {
		if n == 0 {
			continue
		}
		if s.StatusCounts == nil {
			s.StatusCounts = models.StatusCounts{}
		}
		s.StatusCounts[st] += n
		if s.StatusCounts[st] == 0 {
			delete(s.StatusCounts, st)
		}
	}
	if s.EntriesRated > 0 {
		avg := s.SumEntriesRated / float64(s.EntriesRated)
		s.AverageRating = &avg
	} else {
		s.AverageRating = nil
	}
	s.LastUpdated = time.Now()
}
