package tracker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracknest/tracknest/internal/models"
)

func TestStatusCompletedSetsFullConsumption(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeAnime)
	media := mediaWithUnits(models.MediaTypeAnime, 24)

	cur := models.ListEntry{Status: models.StatusWatching, Total: 10, Progress: 10}
	next, logp, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateStatus, Status: models.StatusCompleted}, media)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, next.Status)
	assert.Equal(t, 24, next.Total)
	assert.Equal(t, 24, next.Progress)
	require.NotNil(t, logp)
	assert.Equal(t, "status", logp.Field)
	assert.Equal(t, "WATCHING", logp.OldValue)
	assert.Equal(t, "COMPLETED", logp.NewValue)
}

func TestStatusCompletedUnknownLength(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeGames)
	media := &models.MediaRecord{Type: models.MediaTypeGames, Title: "endless"}

	cur := models.ListEntry{Status: models.StatusPlaying, Total: 5, Progress: 5}
	_, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateStatus, Status: models.StatusCompleted}, media)
	assert.ErrorIs(t, err, ErrUnknownLength)
}

func TestStatusBackToPlanResetsProgress(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeSeries)
	media := mediaWithUnits(models.MediaTypeSeries, 20)

	cur := models.ListEntry{
		Status: models.StatusWatching, Redo: 1, Total: 30, Progress: 10, CurrentSeason: 2,
		Rating: floatPtr(9), Favorite: true,
	}
	next, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateStatus, Status: models.StatusPlanToWatch}, media)
	require.NoError(t, err)

	assert.Equal(t, 0, next.Redo)
	assert.Equal(t, 0, next.Total)
	assert.Equal(t, 0, next.Progress)
	assert.Equal(t, 0, next.CurrentSeason)
	// Opinion fields survive the reset.
	require.NotNil(t, next.Rating)
	assert.Equal(t, 9.0, *next.Rating)
	assert.True(t, next.Favorite)
}

func TestStatusRejectsWrongMachine(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)
	media := mediaWithUnits(models.MediaTypeBooks, 100)

	cur := models.ListEntry{Status: models.StatusReading}
	_, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateStatus, Status: models.StatusWatching}, media)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRedoRepricesTotal(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeManga)
	media := mediaWithUnits(models.MediaTypeManga, 100)

	cur := models.ListEntry{Status: models.StatusCompleted, Redo: 1, Total: 200, Progress: 100}
	next, logp, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateRedo, Redo: 2}, media)
	require.NoError(t, err)

	assert.Equal(t, 2, next.Redo)
	assert.Equal(t, 300, next.Total)
	require.NotNil(t, logp)
	assert.Equal(t, "redo", logp.Field)
	assert.Equal(t, "1", logp.OldValue)
	assert.Equal(t, "2", logp.NewValue)
}

func TestRedoResetsTotalForBooks(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)
	media := mediaWithUnits(models.MediaTypeBooks, 400)

	cur := models.ListEntry{Status: models.StatusCompleted, Total: 400, Progress: 400}
	next, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateRedo, Redo: 1}, media)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Redo)
	assert.Equal(t, 0, next.Total)
}

func TestRedoValidation(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeAnime)

	cur := models.ListEntry{Status: models.StatusCompleted}
	_, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateRedo, Redo: -1}, mediaWithUnits(models.MediaTypeAnime, 12))
	assert.ErrorIs(t, err, ErrNegativeValue)

	_, _, err = cfg.Apply(cur, UpdateCommand{Type: models.UpdateRedo, Redo: 1},
		&models.MediaRecord{Type: models.MediaTypeAnime})
	assert.ErrorIs(t, err, ErrUnknownLength)
}

func TestProgressIncludesRedoCycles(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeManga)
	media := mediaWithUnits(models.MediaTypeManga, 50)

	cur := models.ListEntry{Status: models.StatusReading, Redo: 2}
	next, logp, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateChapter, Progress: 10}, media)
	require.NoError(t, err)

	assert.Equal(t, 10, next.Progress)
	assert.Equal(t, 10+2*50, next.Total)
	require.NotNil(t, logp)
	assert.Equal(t, "progress", logp.Field)
}

func TestProgressWithUnknownLength(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeGames)

	cur := models.ListEntry{Status: models.StatusPlaying, Redo: 1}
	next, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdatePlaytime, Progress: 12},
		&models.MediaRecord{Type: models.MediaTypeGames})
	require.NoError(t, err)

	// Unknown length contributes nothing per redo cycle.
	assert.Equal(t, 12, next.Total)
}

func TestSeasonIsCosmetic(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeSeries)
	media := mediaWithUnits(models.MediaTypeSeries, 20)

	cur := models.ListEntry{Status: models.StatusWatching, Total: 8, Progress: 8, CurrentSeason: 1}
	next, logp, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateSeason, Season: 2}, media)
	require.NoError(t, err)

	assert.Equal(t, 2, next.CurrentSeason)
	assert.Equal(t, 8, next.Total)
	assert.Equal(t, 8, next.Progress)
	require.NotNil(t, logp)
	assert.Equal(t, "season", logp.Field)

	// The season change moves no aggregate numbers.
	d := cfg.Calculate(&cur, &next, media)
	assert.True(t, d.IsZero())
}

func TestRatingValidation(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeMovies)
	cur := models.ListEntry{Status: models.StatusCompleted}

	_, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateRating, Rating: floatPtr(10.5)}, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)

	next, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateRating, Rating: floatPtr(10)}, nil)
	require.NoError(t, err)
	require.NotNil(t, next.Rating)
	assert.Equal(t, 10.0, *next.Rating)

	cleared, _, err := cfg.Apply(next, UpdateCommand{Type: models.UpdateRating}, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Rating)
}

func TestCommentNormalization(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)
	cur := models.ListEntry{Status: models.StatusReading, Comment: strPtr("old note")}

	next, logp, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateComment, Comment: strPtr("")}, nil)
	require.NoError(t, err)
	assert.Nil(t, next.Comment)
	assert.Nil(t, logp)
}

func TestHandlersDoNotMutateInput(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeAnime)
	media := mediaWithUnits(models.MediaTypeAnime, 12)

	cur := models.ListEntry{Status: models.StatusWatching, Total: 6, Progress: 6}
	before := cur

	_, _, err := cfg.Apply(cur, UpdateCommand{Type: models.UpdateStatus, Status: models.StatusCompleted}, media)
	require.NoError(t, err)
	assert.Equal(t, before, cur)
}

func TestNewEntryDefaultsToPlanStatus(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeManga)

	entry, err := cfg.NewEntry(uuid.New(), uuid.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlanToRead, entry.Status)
	assert.Equal(t, 0, entry.Total)
	assert.Equal(t, 0, entry.Progress)
}

func TestNewEntryCompletedPricesFullLength(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)
	media := mediaWithUnits(models.MediaTypeBooks, 100)

	entry, err := cfg.NewEntry(uuid.New(), media.ID, models.StatusCompleted, media)
	require.NoError(t, err)
	assert.Equal(t, 100, entry.Total)
	assert.Equal(t, 100, entry.Progress)

	// Adding straight into COMPLETED must contribute the same time as
	// completing through a status update would.
	d := cfg.Calculate(nil, &entry, media)
	assert.InDelta(t, 170.0, d.TimeSpent, 1e-9)
	assert.Equal(t, 1, d.StatusCounts[models.StatusCompleted])
}

func TestNewEntryCompletedUnknownLength(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeGames)

	_, err := cfg.NewEntry(uuid.New(), uuid.New(), models.StatusCompleted,
		&models.MediaRecord{Type: models.MediaTypeGames})
	assert.ErrorIs(t, err, ErrUnknownLength)
}

func TestNewEntryRejectsForeignStatus(t *testing.T) {
	cfg := mustConfig(t, models.MediaTypeBooks)

	_, err := cfg.NewEntry(uuid.New(), uuid.New(), models.StatusWatching, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAcceptsPerType(t *testing.T) {
	series := mustConfig(t, models.MediaTypeSeries)
	assert.True(t, series.Accepts(models.UpdateEpisode))
	assert.True(t, series.Accepts(models.UpdateSeason))
	assert.False(t, series.Accepts(models.UpdatePage))

	books := mustConfig(t, models.MediaTypeBooks)
	assert.True(t, books.Accepts(models.UpdatePage))
	assert.False(t, books.Accepts(models.UpdateSeason))
	assert.False(t, books.Accepts(models.UpdateEpisode))

	games := mustConfig(t, models.MediaTypeGames)
	assert.True(t, games.Accepts(models.UpdatePlaytime))
	assert.False(t, games.Accepts(models.UpdateChapter))

	movies := mustConfig(t, models.MediaTypeMovies)
	assert.True(t, movies.Accepts(models.UpdateMinute))
	assert.False(t, movies.Accepts(models.UpdateEpisode))
	assert.False(t, movies.Accepts(models.UpdateSeason))
}

func TestStatusMachinesPerType(t *testing.T) {
	cases := map[models.MediaType]models.Status{
		models.MediaTypeSeries: models.StatusPlanToWatch,
		models.MediaTypeAnime:  models.StatusPlanToWatch,
		models.MediaTypeMovies: models.StatusPlanToWatch,
		models.MediaTypeGames:  models.StatusPlanToPlay,
		models.MediaTypeBooks:  models.StatusPlanToRead,
		models.MediaTypeManga:  models.StatusPlanToRead,
	}
	for mt, plan := range cases {
		cfg := mustConfig(t, mt)
		assert.Equal(t, plan, cfg.PlanStatus, "plan status for %s", mt)
		assert.Equal(t, plan, cfg.DefaultStatus, "default status for %s", mt)
		assert.True(t, cfg.ValidStatus(models.StatusCompleted))
		assert.True(t, cfg.ValidStatus(models.StatusOnHold))
		assert.True(t, cfg.ValidStatus(models.StatusDropped))
	}
}
