package tracker

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tracknest/tracknest/internal/models"
)

// Querier is the subset of *sql.DB / *sql.Tx the stores need. Mutations run
// against the transaction the service opened; reads may use the pool.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MediaFinder looks up read-only media records.
type MediaFinder interface {
	FindByID(mt models.MediaType, id uuid.UUID) (*models.MediaRecord, error)
}

// ListStore persists list entries. Find returns (nil, nil) when absent.
// FindForUpdate locks the row for the duration of the transaction so two
// concurrent mutations of the same (user, media) pair cannot lose an update.
type ListStore interface {
	Find(q Querier, userID, mediaID uuid.UUID, mt models.MediaType) (*models.ListEntry, error)
	FindForUpdate(q Querier, userID, mediaID uuid.UUID, mt models.MediaType) (*models.ListEntry, error)
	Insert(q Querier, e *models.ListEntry) error
	Update(q Querier, e *models.ListEntry) error
	Delete(q Querier, userID, mediaID uuid.UUID, mt models.MediaType) error
}

// StatsStore folds deltas into the per-user aggregate row. ApplyDelta must be
// a single additive statement per call and a no-op for empty deltas.
type StatsStore interface {
	ApplyDelta(q Querier, userID uuid.UUID, mt models.MediaType, d Delta) error
}

// LogStore appends audit history.
type LogStore interface {
	Append(q Querier, e *models.LogEntry) error
}

// Hooks fire after a mutation commits. Best-effort; a hook failure never
// rolls back the mutation.
type Hooks interface {
	StatsChanged(userID uuid.UUID, mt models.MediaType)
}

// MutationResult is returned by every mutating operation.
type MutationResult struct {
	Media *models.MediaRecord `json:"media,omitempty"`
	Entry *models.ListEntry   `json:"entry,omitempty"`
	Delta Delta               `json:"delta"`
	Log   *LogPayload         `json:"log,omitempty"`
}

// Service orchestrates list mutations for one media type: it loads state,
// applies the update handler, computes the delta and folds it into the
// aggregate row, all inside one transaction. Partial application (entry
// changed but aggregates not, or the reverse) must be impossible.
type Service struct {
	cfg   *Config
	db    *sql.DB
	media MediaFinder
	lists ListStore
	stats StatsStore
	logs  LogStore
	hooks Hooks
}

func NewService(cfg *Config, db *sql.DB, media MediaFinder, lists ListStore, stats StatsStore, logs LogStore, hooks Hooks) *Service {
	return &Service{cfg: cfg, db: db, media: media, lists: lists, stats: stats, logs: logs, hooks: hooks}
}

func (s *Service) Config() *Config { return s.cfg }

// AddToList creates a list entry for (userID, mediaID) with the given status,
// or the type's default when status is empty.
func (s *Service) AddToList(userID, mediaID uuid.UUID, status models.Status) (*MutationResult, error) {
	media, err := s.findMedia(mediaID)
	if err != nil {
		return nil, err
	}

	initial, err := s.cfg.NewEntry(userID, mediaID, status, media)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.lists.Find(tx, userID, mediaID, s.cfg.Type)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyInList
	}

	now := time.Now()
	entry := &initial
	entry.AddedAt = now
	entry.LastUpdated = now
	if err := s.lists.Insert(tx, entry); err != nil {
		return nil, err
	}

	delta := s.cfg.Calculate(nil, entry, media)
	if err := s.stats.ApplyDelta(tx, userID, s.cfg.Type, delta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	s.afterCommit(userID)

	return &MutationResult{Media: media, Entry: entry, Delta: delta}, nil
}

// UpdateEntry applies one update command to an existing list entry.
func (s *Service) UpdateEntry(userID, mediaID uuid.UUID, cmd UpdateCommand) (*MutationResult, error) {
	if !s.cfg.Accepts(cmd.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type)
	}

	media, err := s.findMedia(mediaID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := s.lists.FindForUpdate(tx, userID, mediaID, s.cfg.Type)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotInList
	}

	next, logPayload, err := s.cfg.Apply(*cur, cmd, media)
	if err != nil {
		if err == ErrUnknownLength {
			log.Printf("tracker: %s %s has no length, rejecting %s update (sync gap?)",
				s.cfg.Type, mediaID, cmd.Type)
		}
		return nil, err
	}
	next.LastUpdated = time.Now()

	if err := s.lists.Update(tx, &next); err != nil {
		return nil, err
	}

	delta := s.cfg.Calculate(cur, &next, media)
	if err := s.stats.ApplyDelta(tx, userID, s.cfg.Type, delta); err != nil {
		return nil, err
	}

	if logPayload != nil {
		entry := &models.LogEntry{
			ID:        uuid.New(),
			UserID:    userID,
			MediaID:   mediaID,
			MediaType: s.cfg.Type,
			Field:     logPayload.Field,
			OldValue:  logPayload.OldValue,
			NewValue:  logPayload.NewValue,
			CreatedAt: next.LastUpdated,
		}
		if err := s.logs.Append(tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	s.afterCommit(userID)

	return &MutationResult{Media: media, Entry: &next, Delta: delta, Log: logPayload}, nil
}

// RemoveFromList deletes the entry and folds the inverse of its contribution
// out of the aggregates.
func (s *Service) RemoveFromList(userID, mediaID uuid.UUID) (*MutationResult, error) {
	media, err := s.findMedia(mediaID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := s.lists.FindForUpdate(tx, userID, mediaID, s.cfg.Type)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotInList
	}

	if err := s.lists.Delete(tx, userID, mediaID, s.cfg.Type); err != nil {
		return nil, err
	}

	delta := s.cfg.Calculate(cur, nil, media)
	if err := s.stats.ApplyDelta(tx, userID, s.cfg.Type, delta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	s.afterCommit(userID)

	return &MutationResult{Media: media, Delta: delta}, nil
}

// GetEntry returns the user's entry for a media item, or ErrNotInList.
func (s *Service) GetEntry(userID, mediaID uuid.UUID) (*models.ListEntry, error) {
	entry, err := s.lists.Find(s.db, userID, mediaID, s.cfg.Type)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotInList
	}
	return entry, nil
}

func (s *Service) findMedia(mediaID uuid.UUID) (*models.MediaRecord, error) {
	media, err := s.media.FindByID(s.cfg.Type, mediaID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrMediaNotFound
	}
	return media, nil
}

func (s *Service) afterCommit(userID uuid.UUID) {
	if s.hooks != nil {
		s.hooks.StatsChanged(userID, s.cfg.Type)
	}
}

// NewServices builds one Service per media type over shared stores.
func NewServices(db *sql.DB, media MediaFinder, lists ListStore, stats StatsStore, logs LogStore, hooks Hooks) map[models.MediaType]*Service {
	out := make(map[models.MediaType]*Service, len(configs))
	for mt, cfg := range configs {
		out[mt] = NewService(cfg, db, media, lists, stats, logs, hooks)
	}
	return out
}
