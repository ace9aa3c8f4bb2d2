package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/repository"
	"github.com/tracknest/tracknest/internal/tracker"
)

// RecomputeHandler rebuilds one user × type aggregate row from scratch. It is
// the compensating path for the incremental engine: every list entry is
// priced as a fresh addition (Calculate against a nil old state), the deltas
// are combined, and the row is replaced wholesale in one transaction.
type RecomputeHandler struct {
	db          *sql.DB
	listRepo    *repository.ListRepository
	statsRepo   *repository.StatsRepository
	invalidator StatsInvalidator
}

func NewRecomputeHandler(db *sql.DB, listRepo *repository.ListRepository,
	statsRepo *repository.StatsRepository, invalidator StatsInvalidator) *RecomputeHandler {
	return &RecomputeHandler{db: db, listRepo: listRepo, statsRepo: statsRepo, invalidator: invalidator}
}

func (h *RecomputeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p RecomputePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	cfg, ok := tracker.ConfigFor(p.MediaType)
	if !ok {
		return fmt.Errorf("unknown media type %q", p.MediaType)
	}

	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	entries, err := h.listRepo.ListWithMediaTx(tx, userID, cfg.Type)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	var combined tracker.Delta
	for _, e := range entries {
		combined.Add(cfg.Calculate(nil, e, e.Media))
	}

	row := &models.UserStats{
		UserID:       userID,
		MediaType:    cfg.Type,
		StatusCounts: models.StatusCounts{},
	}
	combined.ApplyTo(row)

	if err := h.statsRepo.ReplaceTx(tx, row); err != nil {
		return fmt.Errorf("replace stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if h.invalidator != nil {
		h.invalidator.Invalidate(userID, cfg.Type)
	}
	log.Printf("jobs: recomputed %s stats for %s (%d entries, %.0f minutes)",
		cfg.Type, userID, row.TotalEntries, row.TimeSpent)
	return nil
}
