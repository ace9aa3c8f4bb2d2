package tracker

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

// UpdateCommand is one field mutation on a list entry, discriminated by Type.
type UpdateCommand struct {
	Type     models.UpdateType `json:"type"`
	Status   models.Status     `json:"status,omitempty"`
	Redo     int               `json:"redo,omitempty"`
	Rating   *float64          `json:"rating,omitempty"`
	Comment  *string           `json:"comment,omitempty"`
	Favorite bool              `json:"favorite,omitempty"`
	Progress int               `json:"progress,omitempty"`
	Season   int               `json:"season,omitempty"`
}

// LogPayload is the audit entry produced by a handler, nil when the change is
// not worth logging (rating/comment/favorite replacements).
type LogPayload struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// UpdateHandler maps (current entry, command, media record) to the next entry
// and an optional audit payload. Handlers are pure: no I/O, no clock, no
// mutation of the input entry.
type UpdateHandler func(cur models.ListEntry, cmd UpdateCommand, media *models.MediaRecord) (models.ListEntry, *LogPayload, error)

func buildHandlerTable(cfg *Config) map[models.UpdateType]UpdateHandler {
	table := map[models.UpdateType]UpdateHandler{
		models.UpdateStatus:   cfg.updateStatus,
		models.UpdateRedo:     cfg.updateRedo,
		models.UpdateRating:   updateRating,
		models.UpdateComment:  setField(func(e *models.ListEntry, cmd UpdateCommand) { e.Comment = normalizeComment(cmd.Comment) }),
		models.UpdateFavorite: setField(func(e *models.ListEntry, cmd UpdateCommand) { e.Favorite = cmd.Favorite }),
		cfg.ProgressType:      cfg.updateProgress,
	}
	if cfg.TracksSeasons {
		table[models.UpdateSeason] = updateSeason
	}
	return table
}

// setField builds a handler that replaces a single field unconditionally and
// produces no audit entry. Covers comment and favorite for all six types.
func setField(apply func(*models.ListEntry, UpdateCommand)) UpdateHandler {
	return func(cur models.ListEntry, cmd UpdateCommand, _ *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
		next := cur.Clone()
		apply(&next, cmd)
		return next, nil, nil
	}
}

func updateRating(cur models.ListEntry, cmd UpdateCommand, _ *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
	if cmd.Rating != nil && (*cmd.Rating < 0 || *cmd.Rating > 10) {
		return cur, nil, ErrInvalidRating
	}
	next := cur.Clone()
	next.Rating = cmd.Rating
	return next, nil, nil
}

// updateStatus implements the status transition rules:
//   - into COMPLETED: total and progress become one full consumption of the
//     media; fails when the media's length is unknown
//   - into the plan status: full reset of redo, total and progress
//   - any other transition carries total and progress over unchanged
func (c *Config) updateStatus(cur models.ListEntry, cmd UpdateCommand, media *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
	if !c.ValidStatus(cmd.Status) {
		return cur, nil, ErrInvalidStatus
	}

	next := cur.Clone()
	next.Status = cmd.Status

	switch cmd.Status {
	case models.StatusCompleted:
		if media == nil || media.TotalUnits == nil {
			return cur, nil, ErrUnknownLength
		}
		next.Total = *media.TotalUnits
		next.Progress = *media.TotalUnits
	case c.PlanStatus:
		// Re-entering the plan state must not retain stale progress.
		next.Redo = 0
		next.Total = 0
		next.Progress = 0
		next.CurrentSeason = 0
	}

	return next, &LogPayload{
		Field:    "status",
		OldValue: string(cur.Status),
		NewValue: string(cmd.Status),
	}, nil
}

// updateRedo sets the redo count and reprices total as units × (1 + redo).
// Types with redoResetsTotal (books) zero total instead; see Config.
func (c *Config) updateRedo(cur models.ListEntry, cmd UpdateCommand, media *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
	if cmd.Redo < 0 {
		return cur, nil, ErrNegativeValue
	}
	if media == nil || media.TotalUnits == nil {
		return cur, nil, ErrUnknownLength
	}

	next := cur.Clone()
	next.Redo = cmd.Redo
	if c.redoResetsTotal {
		next.Total = 0
	} else {
		next.Total = *media.TotalUnits * (1 + cmd.Redo)
	}

	return next, &LogPayload{
		Field:    "redo",
		OldValue: strconv.Itoa(cur.Redo),
		NewValue: strconv.Itoa(cmd.Redo),
	}, nil
}

// updateProgress sets the current-cycle progress and recomputes total as
// progress plus one full consumption per completed redo cycle.
func (c *Config) updateProgress(cur models.ListEntry, cmd UpdateCommand, media *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
	if cmd.Progress < 0 {
		return cur, nil, ErrNegativeValue
	}

	units := 0
	if media != nil && media.TotalUnits != nil {
		units = *media.TotalUnits
	}

	next := cur.Clone()
	next.Progress = cmd.Progress
	next.Total = cmd.Progress + cur.Redo*units

	return next, &LogPayload{
		Field:    "progress",
		OldValue: strconv.Itoa(cur.Progress),
		NewValue: strconv.Itoa(cmd.Progress),
	}, nil
}

// updateSeason moves the season marker for series/anime. Seasons are a
// position within the show, not a consumption unit, so totals are untouched.
func updateSeason(cur models.ListEntry, cmd UpdateCommand, _ *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
	if cmd.Season < 0 {
		return cur, nil, ErrNegativeValue
	}
	next := cur.Clone()
	next.CurrentSeason = cmd.Season
	return next, &LogPayload{
		Field:    "season",
		OldValue: strconv.Itoa(cur.CurrentSeason),
		NewValue: strconv.Itoa(cmd.Season),
	}, nil
}

func normalizeComment(c *string) *string {
	if c == nil || *c == "" {
		return nil
	}
	return c
}

// NewEntry builds the initial list entry for an add. A non-plan status is
// routed through the status handler, so every entry entering a list is a state
// the update path itself could have produced: completing on add prices the
// full length and fails on unknown-length media, exactly like a later STATUS
// update would.
func (c *Config) NewEntry(userID, mediaID uuid.UUID, status models.Status, media *models.MediaRecord) (models.ListEntry, error) {
	if status == "" {
		status = c.DefaultStatus
	}
	if !c.ValidStatus(status) {
		return models.ListEntry{}, ErrInvalidStatus
	}

	entry := models.ListEntry{
		UserID:    userID,
		MediaID:   mediaID,
		MediaType: c.Type,
		Status:    c.PlanStatus,
	}
	if status == c.PlanStatus {
		return entry, nil
	}

	next, _, err := c.Apply(entry, UpdateCommand{Type: models.UpdateStatus, Status: status}, media)
	if err != nil {
		return models.ListEntry{}, err
	}
	return next, nil
}

// Apply dispatches cmd to the type's handler table. A command that passed
// Accepts but has no handler indicates corrupted wiring and panics.
func (c *Config) Apply(cur models.ListEntry, cmd UpdateCommand, media *models.MediaRecord) (models.ListEntry, *LogPayload, error) {
	h, ok := c.handlers[cmd.Type]
	if !ok {
		panic(handlerNotFound(cmd.Type))
	}
	return h(cur, cmd, media)
}
