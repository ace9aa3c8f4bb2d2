package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/tracker"
)

func TestFoldAssignmentsIncrementsOnly(t *testing.T) {
	d := tracker.Delta{
		TimeSpent:     170,
		TotalEntries:  1,
		TotalSpecific: 100,
	}
	set, args := foldAssignments(d)

	joined := strings.Join(set, ", ")
	assert.Contains(t, joined, "time_spent = time_spent + $1")
	assert.Contains(t, joined, "total_entries = total_entries + $2")
	assert.Contains(t, joined, "total_specific = total_specific + $3")
	assert.Contains(t, joined, "last_updated = NOW()")
	assert.NotContains(t, joined, "entries_rated")
	assert.NotContains(t, joined, "status_counts")
	assert.Equal(t, []interface{}{170.0, 1, 100}, args)
}

func TestFoldAssignmentsStatusCountsChained(t *testing.T) {
	d := tracker.Delta{
		StatusCounts: models.StatusCounts{
			models.StatusWatching:  -1,
			models.StatusCompleted: 1,
		},
	}
	set, args := foldAssignments(d)

	var statusClause string
	for _, s := range set {
		if strings.HasPrefix(s, "status_counts = ") {
			statusClause = s
		}
	}
	require.NotEmpty(t, statusClause)

	// One column assignment, one nested jsonb_set per touched key, keys in
	// sorted order so the statement is deterministic.
	assert.Equal(t, 2, strings.Count(statusClause, "jsonb_set("))
	assert.Equal(t, 4, len(args))
	assert.Equal(t, "COMPLETED", args[0])
	assert.Equal(t, 1, args[1])
	assert.Equal(t, "WATCHING", args[2])
	assert.Equal(t, -1, args[3])

	set2, _ := foldAssignments(d)
	assert.Equal(t, set, set2)
}

func TestFoldAssignmentsSkipsZeroStatusKeys(t *testing.T) {
	d := tracker.Delta{
		TotalEntries: 1,
		StatusCounts: models.StatusCounts{models.StatusOnHold: 0},
	}
	set, _ := foldAssignments(d)
	for _, s := range set {
		assert.NotContains(t, s, "jsonb_set")
	}
}

func TestFoldAssignmentsRatingDerivesAverage(t *testing.T) {
	d := tracker.Delta{EntriesRated: 1, SumEntriesRated: 8.5}
	set, args := foldAssignments(d)

	joined := strings.Join(set, ", ")
	assert.Contains(t, joined, "entries_rated = entries_rated + $1")
	assert.Contains(t, joined, "sum_entries_rated = sum_entries_rated + $2")
	// Average must be computed from the post-increment sums and null out when
	// the count returns to zero.
	assert.Contains(t, joined, "CASE WHEN entries_rated + $1 <= 0 THEN NULL")
	assert.Contains(t, joined, "(sum_entries_rated + $2) / (entries_rated + $1)")
	assert.Equal(t, []interface{}{1, 8.5}, args)
}

func TestFoldAssignmentsSumOnlyRatingChange(t *testing.T) {
	// A rating value change moves the sum but not the count; the average
	// clause must still be emitted.
	d := tracker.Delta{SumEntriesRated: -2}
	set, _ := foldAssignments(d)
	assert.Contains(t, strings.Join(set, ", "), "average_rating = CASE")
}
