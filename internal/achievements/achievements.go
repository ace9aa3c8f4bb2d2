package achievements

import (
	"log"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

// Metric names an aggregate column achievements can threshold on.
const (
	MetricTotalEntries = "total_entries"
	MetricTimeSpent    = "time_spent"
	MetricCompleted    = "completed"
	MetricFavorites    = "entries_favorites"
	MetricRedo         = "total_redo"
)

func mt(m models.MediaType) *models.MediaType { return &m }

// Definitions is the built-in achievement catalog. Thresholds read from the
// precomputed aggregate rows, so evaluation never scans list tables.
var Definitions = []models.Achievement{
	{Code: "first_entry", Name: "Getting Started", Description: "Add your first item to any list", Metric: MetricTotalEntries, Threshold: 1},
	{Code: "collector_50", Name: "Collector", Description: "Track 50 items in one list", Metric: MetricTotalEntries, Threshold: 50},
	{Code: "collector_250", Name: "Hoarder", Description: "Track 250 items in one list", Metric: MetricTotalEntries, Threshold: 250},
	{Code: "day_spent", Name: "Day Well Spent", Description: "Log 24 hours of time in one list", Metric: MetricTimeSpent, Threshold: 24 * 60},
	{Code: "week_spent", Name: "Lost a Week", Description: "Log 168 hours of time in one list", Metric: MetricTimeSpent, Threshold: 168 * 60},
	{Code: "finisher_10", Name: "Finisher", Description: "Complete 10 items in one list", Metric: MetricCompleted, Threshold: 10},
	{Code: "finisher_100", Name: "Completionist", Description: "Complete 100 items in one list", Metric: MetricCompleted, Threshold: 100},
	{Code: "bookworm", Name: "Bookworm", Description: "Complete 25 books", MediaType: mt(models.MediaTypeBooks), Metric: MetricCompleted, Threshold: 25},
	{Code: "binge_watcher", Name: "Binge Watcher", Description: "Complete 25 series", MediaType: mt(models.MediaTypeSeries), Metric: MetricCompleted, Threshold: 25},
	{Code: "replay_5", Name: "Encore", Description: "Redo items 5 times in one list", Metric: MetricRedo, Threshold: 5},
	{Code: "curator_10", Name: "Curator", Description: "Favorite 10 items in one list", Metric: MetricFavorites, Threshold: 10},
}

// Notifier pushes unlock events to configured channels.
type Notifier interface {
	NotifyAchievement(userID uuid.UUID, a models.Achievement)
}

// Evaluator unlocks achievements whose thresholds a user's aggregates now
// meet. It is invoked after stats mutations commit; unlocks are idempotent.
type Evaluator struct {
	repo     *Repository
	notifier Notifier
}

func NewEvaluator(repo *Repository, notifier Notifier) *Evaluator {
	return &Evaluator{repo: repo, notifier: notifier}
}

// Evaluate checks every definition against the given aggregate row.
func (e *Evaluator) Evaluate(stats *models.UserStats) {
	for _, def := range Definitions {
		if def.MediaType != nil && *def.MediaType != stats.MediaType {
			continue
		}
		if metricValue(stats, def.Metric) < def.Threshold {
			continue
		}

		unlocked, err := e.repo.Unlock(stats.UserID, def.Code)
		if err != nil {
			log.Printf("achievements: unlock %s for %s failed: %v", def.Code, stats.UserID, err)
			continue
		}
		if unlocked {
			log.Printf("achievements: %s unlocked %s", stats.UserID, def.Code)
			if e.notifier != nil {
				e.notifier.NotifyAchievement(stats.UserID, def)
			}
		}
	}
}

func metricValue(s *models.UserStats, metric string) float64 {
	switch metric {
	case MetricTotalEntries:
		return float64(s.TotalEntries)
	case MetricTimeSpent:
		return s.TimeSpent
	case MetricCompleted:
		return float64(s.StatusCounts[models.StatusCompleted])
	case MetricFavorites:
		return float64(s.EntriesFavorites)
	case MetricRedo:
		return float64(s.TotalRedo)
	}
	return 0
}
