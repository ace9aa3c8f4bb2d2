package api

import (
	"log"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/achievements"
	"github.com/tracknest/tracknest/internal/cache"
	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/repository"
)

// statsHooks runs after a list mutation commits: drop the cached stats row,
// re-read the fresh aggregates, check achievement thresholds and push the
// update to the user's open connections. All best-effort; the mutation has
// already committed.
type statsHooks struct {
	statsRepo *repository.StatsRepository
	cache     *cache.StatsCache
	evaluator *achievements.Evaluator
	hub       *WSHub
}

func (h *statsHooks) StatsChanged(userID uuid.UUID, mt models.MediaType) {
	if h.cache != nil {
		h.cache.Invalidate(userID, mt)
	}

	stats, err := h.statsRepo.Get(userID, mt)
	if err != nil {
		log.Printf("stats hooks: reload %s/%s failed: %v", userID, mt, err)
		return
	}
	if h.evaluator != nil {
		h.evaluator.Evaluate(stats)
	}
	if h.hub != nil {
		h.hub.BroadcastUser(userID.String(), "stats:update", stats)
	}
}
