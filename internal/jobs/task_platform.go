package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/repository"
)

// PlatformRollupHandler rebuilds the platform-wide aggregate rows from the
// per-user ones. Runs nightly via the scheduler and on demand from the admin
// endpoint; the per-mutation fold path never touches platform rows.
type PlatformRollupHandler struct {
	platformRepo *repository.PlatformRepository
	notifier     EventNotifier
}

func NewPlatformRollupHandler(platformRepo *repository.PlatformRepository, notifier EventNotifier) *PlatformRollupHandler {
	return &PlatformRollupHandler{platformRepo: platformRepo, notifier: notifier}
}

func (h *PlatformRollupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p PlatformRollupPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	types := models.AllMediaTypes
	if p.MediaType != "" {
		if !p.MediaType.Valid() {
			return fmt.Errorf("unknown media type %q", p.MediaType)
		}
		types = []models.MediaType{p.MediaType}
	}

	for _, mt := range types {
		stats, err := h.platformRepo.Rebuild(mt)
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", mt, err)
		}
		log.Printf("jobs: platform rollup %s - entries=%d users=%d time=%.0fm",
			mt, stats.TotalEntries, stats.ActiveUsers, stats.TimeSpent)
		if h.notifier != nil {
			h.notifier.Broadcast("platform:update", stats)
		}
	}
	return nil
}
