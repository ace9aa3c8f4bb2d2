package tracker

import (
	"fmt"

	"github.com/tracknest/tracknest/internal/models"
)

// Minutes per specific unit for the fixed-rate types. Series and anime derive
// their rate from the media record's episode runtime instead.
const (
	MinutesPerPage     = 1.7
	MinutesPerChapter  = 7.0
	MinutesPerPlayHour = 60.0

	defaultSeriesEpisodeMinutes = 40.0
	defaultAnimeEpisodeMinutes  = 24.0
)

// Config parameterizes the tracking engine for one media type: its status
// machine members, its progress unit and the unit → minutes conversion.
// The six configs are fixed at startup; there is no runtime registration.
type Config struct {
	Type          models.MediaType
	DefaultStatus models.Status

	// PlanStatus is the type's "not started" status; transitioning into it
	// resets redo, total and progress. ActiveStatus is WATCHING/READING/PLAYING.
	PlanStatus   models.Status
	ActiveStatus models.Status

	// ProgressType is the type-specific progress command (PAGE, CHAPTER,
	// EPISODE, MINUTE or PLAYTIME). TracksSeasons additionally enables SEASON.
	ProgressType  models.UpdateType
	TracksSeasons bool

	// unitMinutes converts one specific unit into minutes for this type,
	// given the media record (series/anime rates vary per show).
	unitMinutes func(media *models.MediaRecord) float64

	// redoResetsTotal preserves the historical books behavior: changing redo
	// zeroes total instead of recomputing units × (1 + redo). Downstream
	// aggregates assume it, so it is kept per type rather than fixed.
	redoResetsTotal bool

	handlers map[models.UpdateType]UpdateHandler
}

// Statuses returns the full status set for the type.
func (c *Config) Statuses() []models.Status {
	return []models.Status{
		c.PlanStatus, c.ActiveStatus,
		models.StatusCompleted, models.StatusOnHold, models.StatusDropped,
	}
}

// ValidStatus reports whether s belongs to the type's status machine.
func (c *Config) ValidStatus(s models.Status) bool {
	for _, v := range c.Statuses() {
		if v == s {
			return true
		}
	}
	return false
}

// UnitMinutes returns the minutes represented by one specific unit of media.
func (c *Config) UnitMinutes(media *models.MediaRecord) float64 {
	return c.unitMinutes(media)
}

// UpdateTypes returns the closed set of update commands the type accepts.
func (c *Config) UpdateTypes() []models.UpdateType {
	out := []models.UpdateType{
		models.UpdateStatus, models.UpdateRedo, models.UpdateRating,
		models.UpdateComment, models.UpdateFavorite, c.ProgressType,
	}
	if c.TracksSeasons {
		out = append(out, models.UpdateSeason)
	}
	return out
}

// Accepts reports whether t is a valid update command for the type.
func (c *Config) Accepts(t models.UpdateType) bool {
	_, ok := c.handlers[t]
	return ok
}

func episodeMinutes(fallback float64) func(media *models.MediaRecord) float64 {
	return func(media *models.MediaRecord) float64 {
		if media != nil && media.EpisodeRuntime != nil && *media.EpisodeRuntime > 0 {
			return float64(*media.EpisodeRuntime)
		}
		return fallback
	}
}

func fixedMinutes(rate float64) func(media *models.MediaRecord) float64 {
	return func(*models.MediaRecord) float64 { return rate }
}

// newConfigs builds the six media-type configs and their handler tables.
// Every declared update type must resolve to a handler here; a gap is a
// wiring bug and panics at startup rather than at request time.
func newConfigs() map[models.MediaType]*Config {
	configs := map[models.MediaType]*Config{
		models.MediaTypeSeries: {
			Type:          models.MediaTypeSeries,
			DefaultStatus: models.StatusPlanToWatch,
			PlanStatus:    models.StatusPlanToWatch,
			ActiveStatus:  models.StatusWatching,
			ProgressType:  models.UpdateEpisode,
			TracksSeasons: true,
			unitMinutes:   episodeMinutes(defaultSeriesEpisodeMinutes),
		},
		models.MediaTypeAnime: {
			Type:          models.MediaTypeAnime,
			DefaultStatus: models.StatusPlanToWatch,
			PlanStatus:    models.StatusPlanToWatch,
			ActiveStatus:  models.StatusWatching,
			ProgressType:  models.UpdateEpisode,
			TracksSeasons: true,
			unitMinutes:   episodeMinutes(defaultAnimeEpisodeMinutes),
		},
		models.MediaTypeMovies: {
			Type:          models.MediaTypeMovies,
			DefaultStatus: models.StatusPlanToWatch,
			PlanStatus:    models.StatusPlanToWatch,
			ActiveStatus:  models.StatusWatching,
			ProgressType:  models.UpdateMinute,
			unitMinutes:   fixedMinutes(1), // total is stored in minutes
		},
		models.MediaTypeGames: {
			Type:          models.MediaTypeGames,
			DefaultStatus: models.StatusPlanToPlay,
			PlanStatus:    models.StatusPlanToPlay,
			ActiveStatus:  models.StatusPlaying,
			ProgressType:  models.UpdatePlaytime,
			unitMinutes:   fixedMinutes(MinutesPerPlayHour),
		},
		models.MediaTypeBooks: {
			Type:            models.MediaTypeBooks,
			DefaultStatus:   models.StatusPlanToRead,
			PlanStatus:      models.StatusPlanToRead,
			ActiveStatus:    models.StatusReading,
			ProgressType:    models.UpdatePage,
			unitMinutes:     fixedMinutes(MinutesPerPage),
			redoResetsTotal: true,
		},
		models.MediaTypeManga: {
			Type:          models.MediaTypeManga,
			DefaultStatus: models.StatusPlanToRead,
			PlanStatus:    models.StatusPlanToRead,
			ActiveStatus:  models.StatusReading,
			ProgressType:  models.UpdateChapter,
			unitMinutes:   fixedMinutes(MinutesPerChapter),
		},
	}

	for _, cfg := range configs {
		cfg.handlers = buildHandlerTable(cfg)
		for _, t := range cfg.UpdateTypes() {
			if _, ok := cfg.handlers[t]; !ok {
				panic(fmt.Sprintf("tracker: %s declares update type %s with no handler", cfg.Type, t))
			}
		}
	}
	return configs
}

var configs = newConfigs()

// ConfigFor returns the engine config for a media type.
func ConfigFor(mt models.MediaType) (*Config, bool) {
	c, ok := configs[mt]
	return c, ok
}
