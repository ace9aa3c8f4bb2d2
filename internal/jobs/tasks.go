package jobs

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/repository"
)

// ──────── Payloads ────────

type RecomputePayload struct {
	UserID    string           `json:"user_id"`
	MediaType models.MediaType `json:"media_type"`
}

type PlatformRollupPayload struct {
	// Empty MediaType means every type.
	MediaType models.MediaType `json:"media_type,omitempty"`
}

// StatsInvalidator drops cached stats rows after a batch rebuild.
type StatsInvalidator interface {
	Invalidate(userID uuid.UUID, mt models.MediaType)
}

// EventNotifier pushes events to connected clients.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, db *sql.DB, listRepo *repository.ListRepository,
	statsRepo *repository.StatsRepository, platformRepo *repository.PlatformRepository,
	invalidator StatsInvalidator, notifier EventNotifier) {

	q.RegisterHandler(TaskStatsRecompute, NewRecomputeHandler(db, listRepo, statsRepo, invalidator))
	q.RegisterHandler(TaskPlatformRollup, NewPlatformRollupHandler(platformRepo, notifier))
}
