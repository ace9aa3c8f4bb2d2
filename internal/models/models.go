package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ──────────────────── Enums ────────────────────

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type MediaType string

const (
	MediaTypeSeries MediaType = "series"
	MediaTypeAnime  MediaType = "anime"
	MediaTypeMovies MediaType = "movies"
	MediaTypeGames  MediaType = "games"
	MediaTypeBooks  MediaType = "books"
	MediaTypeManga  MediaType = "manga"
)

// AllMediaTypes lists every tracked media type. The set is closed; a new type
// needs a tracker config, a media table and a migration.
var AllMediaTypes = []MediaType{
	MediaTypeSeries, MediaTypeAnime, MediaTypeMovies,
	MediaTypeGames, MediaTypeBooks, MediaTypeManga,
}

func (m MediaType) Valid() bool {
	for _, t := range AllMediaTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Status is a list-entry status. The plan/active members differ per media
// type; COMPLETED, ON_HOLD and DROPPED are shared by all six.
type Status string

const (
	StatusPlanToWatch Status = "PLAN_TO_WATCH"
	StatusPlanToRead  Status = "PLAN_TO_READ"
	StatusPlanToPlay  Status = "PLAN_TO_PLAY"
	StatusWatching    Status = "WATCHING"
	StatusReading     Status = "READING"
	StatusPlaying     Status = "PLAYING"
	StatusCompleted   Status = "COMPLETED"
	StatusOnHold      Status = "ON_HOLD"
	StatusDropped     Status = "DROPPED"
)

// UpdateType discriminates list-entry update commands.
type UpdateType string

const (
	UpdateStatus   UpdateType = "STATUS"
	UpdateRedo     UpdateType = "REDO"
	UpdateRating   UpdateType = "RATING"
	UpdateComment  UpdateType = "COMMENT"
	UpdateFavorite UpdateType = "FAVORITE"
	UpdatePage     UpdateType = "PAGE"
	UpdateChapter  UpdateType = "CHAPTER"
	UpdateEpisode  UpdateType = "EPISODE"
	UpdateMinute   UpdateType = "MINUTE"
	UpdateSeason   UpdateType = "SEASON"
	UpdatePlaytime UpdateType = "PLAYTIME"
)

// ──────────────────── User ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Media Records ────────────────────

// MediaRecord is one row of a per-type media table (series, anime, movies,
// games, books, manga). Rows are owned by the provider-sync side; the tracker
// only reads them.
//
// TotalUnits is the per-completion basis for time math and its meaning varies
// by type: episodes (series/anime), runtime minutes (movies), playtime hours
// (games), pages (books), chapters (manga). NULL when the provider does not
// know the length.
type MediaRecord struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Type           MediaType      `json:"media_type" db:"media_type"`
	ExternalID     string         `json:"external_id" db:"external_id"`
	Title          string         `json:"title" db:"title"`
	TotalUnits     *int           `json:"total_units,omitempty" db:"total_units"`
	EpisodeRuntime *int           `json:"episode_runtime,omitempty" db:"episode_runtime"`
	ReleaseStatus  *string        `json:"release_status,omitempty" db:"release_status"`
	Genres         pq.StringArray `json:"genres" db:"genres"`
	CoverURL       *string        `json:"cover_url,omitempty" db:"cover_url"`
	Year           *int           `json:"year,omitempty" db:"year"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// ──────────────────── List Entries ────────────────────

// ListEntry is one (user, media) row of a per-type list table.
//
// Total is the cumulative consumed units across all redo cycles: progress in
// the current cycle plus one full TotalUnits per completed redo. It, not
// Progress, is the source of truth for time-spent math.
type ListEntry struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	MediaID       uuid.UUID `json:"media_id" db:"media_id"`
	MediaType     MediaType `json:"media_type" db:"media_type"`
	Status        Status    `json:"status" db:"status"`
	Rating        *float64  `json:"rating,omitempty" db:"rating"`
	Comment       *string   `json:"comment,omitempty" db:"comment"`
	Favorite      bool      `json:"favorite" db:"favorite"`
	Redo          int       `json:"redo" db:"redo"`
	Total         int       `json:"total" db:"total"`
	Progress      int       `json:"progress" db:"progress"`
	CurrentSeason int       `json:"current_season,omitempty" db:"current_season"`
	AddedAt       time.Time `json:"added_at" db:"added_at"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`

	// Joined media row, populated by list queries.
	Media *MediaRecord `json:"media,omitempty" db:"-"`
}

// Clone returns a deep copy without the joined media row. Update handlers
// mutate copies so the caller keeps the pre-update entry for delta math.
func (e *ListEntry) Clone() ListEntry {
	c := *e
	if e.Rating != nil {
		v := *e.Rating
		c.Rating = &v
	}
	if e.Comment != nil {
		v := *e.Comment
		c.Comment = &v
	}
	c.Media = nil
	return c
}

// ──────────────────── Aggregate Stats ────────────────────

// StatusCounts is the sparse status → entry-count map stored as jsonb.
type StatusCounts map[Status]int

func (s StatusCounts) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *StatusCounts) Scan(src interface{}) error {
	if src == nil {
		*s = StatusCounts{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StatusCounts", src)
	}
	return json.Unmarshal(b, s)
}

// UserStats is the precomputed per-user per-media-type aggregate row. It is
// mutated only by additive delta folds on the hot path; the recompute job is
// the one writer allowed to replace it wholesale.
type UserStats struct {
	UserID           uuid.UUID    `json:"user_id" db:"user_id"`
	MediaType        MediaType    `json:"media_type" db:"media_type"`
	TimeSpent        float64      `json:"time_spent" db:"time_spent"`
	TotalEntries     int          `json:"total_entries" db:"total_entries"`
	TotalRedo        int          `json:"total_redo" db:"total_redo"`
	TotalSpecific    int          `json:"total_specific" db:"total_specific"`
	EntriesRated     int          `json:"entries_rated" db:"entries_rated"`
	SumEntriesRated  float64      `json:"sum_entries_rated" db:"sum_entries_rated"`
	EntriesCommented int          `json:"entries_commented" db:"entries_commented"`
	EntriesFavorites int          `json:"entries_favorites" db:"entries_favorites"`
	StatusCounts     StatusCounts `json:"status_counts" db:"status_counts"`
	AverageRating    *float64     `json:"average_rating,omitempty" db:"average_rating"`
	LastUpdated      time.Time    `json:"last_updated" db:"last_updated"`
}

// PlatformStats is the platform-wide analogue of UserStats, rebuilt by the
// nightly rollup job rather than folded on the mutation path.
type PlatformStats struct {
	MediaType        MediaType    `json:"media_type" db:"media_type"`
	TimeSpent        float64      `json:"time_spent" db:"time_spent"`
	TotalEntries     int          `json:"total_entries" db:"total_entries"`
	TotalRedo        int          `json:"total_redo" db:"total_redo"`
	TotalSpecific    int          `json:"total_specific" db:"total_specific"`
	EntriesRated     int          `json:"entries_rated" db:"entries_rated"`
	SumEntriesRated  float64      `json:"sum_entries_rated" db:"sum_entries_rated"`
	EntriesCommented int          `json:"entries_commented" db:"entries_commented"`
	EntriesFavorites int          `json:"entries_favorites" db:"entries_favorites"`
	StatusCounts     StatusCounts `json:"status_counts" db:"status_counts"`
	AverageRating    *float64     `json:"average_rating,omitempty" db:"average_rating"`
	ActiveUsers      int          `json:"active_users" db:"active_users"`
	ComputedAt       time.Time    `json:"computed_at" db:"computed_at"`
}

// ──────────────────── Audit Log ────────────────────

// LogEntry records one field change on a list entry (status, progress, redo,
// season). Simple field replacements (rating/comment/favorite) are not logged.
type LogEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	MediaID   uuid.UUID `json:"media_id" db:"media_id"`
	MediaType MediaType `json:"media_type" db:"media_type"`
	Field     string    `json:"field" db:"field"`
	OldValue  string    `json:"old_value" db:"old_value"`
	NewValue  string    `json:"new_value" db:"new_value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Achievements ────────────────────

type Achievement struct {
	Code        string     `json:"code" db:"code"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	MediaType   *MediaType `json:"media_type,omitempty" db:"media_type"`
	Metric      string     `json:"metric" db:"metric"`
	Threshold   float64    `json:"threshold" db:"threshold"`
}

type UserAchievement struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Code       string    `json:"code" db:"code"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// ──────────────────── Notifications ────────────────────

type NotificationChannel struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChannelType string    `json:"channel_type" db:"channel_type"`
	WebhookURL  string    `json:"webhook_url" db:"webhook_url"`
	IsEnabled   bool      `json:"is_enabled" db:"is_enabled"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
