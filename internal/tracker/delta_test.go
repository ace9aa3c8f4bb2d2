package tracker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracknest/tracknest/internal/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func mediaWithUnits(mt models.MediaType, units int) *models.MediaRecord {
	return &models.MediaRecord{
		ID:         uuid.New(),
		Type:       mt,
		Title:      "test media",
		TotalUnits: intPtr(units),
	}
}

func mustConfig(t *testing.T, mt models.MediaType) *Config {
	t.Helper()
	cfg, ok := ConfigFor(mt)
	require.True(t, ok)
	return cfg
}

func TestCalculateSameStateIsZero(t *testing.T) {
	for _, mt := range models.AllMediaTypes {
		cfg := mustConfig(t, mt)
		entry := &models.ListEntry{
			Status:   models.StatusCompleted,
			Rating:   floatPtr(8),
			Comment:  strPtr("great"),
			Favorite: true,
			Redo:     2,
			Total:    300,
			Progress: 100,
		}
		d := cfg.Calculate(entry, entry, mediaWithUnits(mt, 100))
		assert.True(t, d.IsZero(), "identical states must produce the zero delta for %s", mt)
	}
}

func TestCalculateAddAndRemoveCancel(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeManga)
	media := mediaWithUnits(models.MediaTypeManga, 120)
	entry := &models.ListEntry{
		Status:   models.StatusReading,
		Rating:   floatPtr(7.5),
		Favorite: true,
		Total:    40,
		Progress: 40,
	}

	add := cfg.Calculate(nil, entry, media)
	remove := cfg.Calculate(entry, nil, media)

	assert.Equal(t, add.Negate(), remove)

	combined := add
	combined.Add(remove)
	assert.True(t, combined.IsZero())
}

func TestCalculateTimeSpentPerType(t *testing.T) {
	cases := []struct {
		mt      models.MediaType
		media   *models.MediaRecord
		total   int
		minutes float64
	}{
		{models.MediaTypeBooks, mediaWithUnits(models.MediaTypeBooks, 400), 100, 170},
		{models.MediaTypeManga, mediaWithUnits(models.MediaTypeManga, 200), 100, 700},
		{models.MediaTypeMovies, mediaWithUnits(models.MediaTypeMovies, 120), 120, 120},
		{models.MediaTypeGames, mediaWithUnits(models.MediaTypeGames, 60), 10, 600},
		{models.MediaTypeAnime, mediaWithUnits(models.MediaTypeAnime, 12), 12, 12 * 24},
		{models.MediaTypeSeries, mediaWithUnits(models.MediaTypeSeries, 10), 10, 10 * 40},
	}

	for _, tc := range cases {
		cfg := mustConfig(t, tc.mt)
		old := &models.ListEntry{Status: cfg.ActiveStatus}
		updated := &models.ListEntry{Status: cfg.ActiveStatus, Total: tc.total, Progress: tc.total}

		d := cfg.Calculate(old, updated, tc.media)
		assert.InDelta(t, tc.minutes, d.TimeSpent, 1e-9, "time for %s", tc.mt)
		assert.Equal(t, tc.total, d.TotalSpecific, "specific units for %s", tc.mt)
	}
}

func TestCalculateEpisodeRuntimeOverride(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeSeries)
	media := mediaWithUnits(models.MediaTypeSeries, 10)
	media.EpisodeRuntime = intPtr(55)

	old := &models.ListEntry{Status: models.StatusWatching}
	updated := &models.ListEntry{Status: models.StatusWatching, Total: 4, Progress: 4}

	d := cfg.Calculate(old, updated, media)
	assert.InDelta(t, 4*55.0, d.TimeSpent, 1e-9)
}

func TestRatingDeltaThreeWay(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeMovies)
	media := mediaWithUnits(models.MediaTypeMovies, 90)
	base := &models.ListEntry{Status: models.StatusCompleted, Total: 90, Progress: 90}

	rated := *base
	rated.Rating = floatPtr(8)

	gained := cfg.Calculate(base, &rated, media)
	assert.Equal(t, 1, gained.EntriesRated)
	assert.InDelta(t, 8.0, gained.SumEntriesRated, 1e-9)

	changed := rated
	changed.Rating = floatPtr(6)
	moved := cfg.Calculate(&rated, &changed, media)
	assert.Equal(t, 0, moved.EntriesRated)
	assert.InDelta(t, -2.0, moved.SumEntriesRated, 1e-9)

	lost := cfg.Calculate(&rated, base, media)
	assert.Equal(t, -1, lost.EntriesRated)
	assert.InDelta(t, -8.0, lost.SumEntriesRated, 1e-9)
}

func TestStatusBucketMove(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeAnime)
	media := mediaWithUnits(models.MediaTypeAnime, 12)

	old := &models.ListEntry{Status: models.StatusWatching, Total: 6, Progress: 6}
	updated := &models.ListEntry{Status: models.StatusCompleted, Total: 12, Progress: 12}

	d := cfg.Calculate(old, updated, media)
	assert.Equal(t, -1, d.StatusCounts[models.StatusWatching])
	assert.Equal(t, 1, d.StatusCounts[models.StatusCompleted])
	assert.Equal(t, 0, d.TotalEntries)
}

func TestApplyToMatchesSequentialFolds(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)
	media := mediaWithUnits(models.MediaTypeBooks, 250)

	e1 := &models.ListEntry{Status: models.StatusReading, Total: 50, Progress: 50, Rating: floatPtr(7)}
	e2 := &models.ListEntry{Status: models.StatusCompleted, Total: 250, Progress: 250, Rating: floatPtr(9), Favorite: true}
	e3 := &models.ListEntry{Status: models.StatusDropped, Total: 30, Progress: 30, Comment: strPtr("not for me")}

	deltas := []Delta{
		cfg.Calculate(nil, e1, media),
		cfg.Calculate(nil, e2, media),
		cfg.Calculate(nil, e3, media),
	}

	// One-by-one folding and a single combined fold must land on the same row.
	sequential := &models.UserStats{StatusCounts: models.StatusCounts{}}
	for _, d := range deltas {
		d.ApplyTo(sequential)
	}

	var combined Delta
	for _, d := range deltas {
		combined.Add(d)
	}
	batched := &models.UserStats{StatusCounts: models.StatusCounts{}}
	combined.ApplyTo(batched)

	assert.Equal(t, sequential.TotalEntries, batched.TotalEntries)
	assert.InDelta(t, sequential.TimeSpent, batched.TimeSpent, 1e-9)
	assert.Equal(t, sequential.StatusCounts, batched.StatusCounts)
	assert.Equal(t, sequential.EntriesRated, batched.EntriesRated)
	require.NotNil(t, batched.AverageRating)
	assert.InDelta(t, 8.0, *batched.AverageRating, 1e-9)
}

func TestEntryLifecycleReturnsToBaseline(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)
	media := mediaWithUnits(models.MediaTypeBooks, 320)

	stats := &models.UserStats{StatusCounts: models.StatusCounts{}}

	// Add as plan, read some pages, rate, complete, then remove again.
	entry := &models.ListEntry{Status: models.StatusPlanToRead}
	cfg.Calculate(nil, entry, media).ApplyTo(stats)

	states := []models.ListEntry{
		{Status: models.StatusReading, Total: 100, Progress: 100},
		{Status: models.StatusReading, Total: 100, Progress: 100, Rating: floatPtr(8)},
		{Status: models.StatusCompleted, Total: 320, Progress: 320, Rating: floatPtr(8)},
	}
	prev := entry
	for i := range states {
		cfg.Calculate(prev, &states[i], media).ApplyTo(stats)
		prev = &states[i]
	}
	cfg.Calculate(prev, nil, media).ApplyTo(stats)

	assert.Equal(t, 0, stats.TotalEntries)
	assert.InDelta(t, 0, stats.TimeSpent, 1e-9)
	assert.Equal(t, 0, stats.TotalSpecific)
	assert.Equal(t, 0, stats.EntriesRated)
	assert.InDelta(t, 0, stats.SumEntriesRated, 1e-9)
	assert.Empty(t, stats.StatusCounts)
	assert.Nil(t, stats.AverageRating)
}

func TestDeltaIsZero(t *testing.T) {
	assert.True(t, Delta{}.IsZero())
	assert.True(t, Delta{StatusCounts: models.StatusCounts{models.StatusCompleted: 0}}.IsZero())
	assert.False(t, Delta{TimeSpent: 0.1}.IsZero())
	assert.False(t, Delta{StatusCounts: models.StatusCounts{models.StatusDropped: -1}}.IsZero())
}
