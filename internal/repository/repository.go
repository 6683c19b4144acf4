package repository

import (
	"context"
	"time"

	"techtrainer/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound        = RepositoryError("not found")
	ErrDuplicate       = RepositoryError("duplicate key")
	ErrVersionConflict = RepositoryError("version conflict")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutFilter narrows and orders a workout listing.
type WorkoutFilter struct {
	Status     domain.WorkoutStatus
	Type       domain.WorkoutType
	Difficulty domain.Difficulty
	Search     string // case-insensitive match against title/description
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string // "asc" or "desc"
}

// DurationStats summarizes actual durations of completed workouts.
type DurationStats struct {
	Total   int     `bson:"total"`
	Average float64 `bson:"average"`
	Max     int     `bson:"max"`
	Min     int     `bson:"min"`
}

// TypeCount is one $group row keyed by workout type.
type TypeCount struct {
	Type          domain.WorkoutType `bson:"_id"`
	Count         int64              `bson:"count"`
	TotalDuration int                `bson:"totalDuration"`
}

// DifficultyCount is one $group row keyed by difficulty.
type DifficultyCount struct {
	Difficulty domain.Difficulty `bson:"_id"`
	Count      int64             `bson:"count"`
}

// WeekdayCount is one $group row keyed by Mongo's $dayOfWeek
// (1 = Sunday … 7 = Saturday) of completedAt.
type WeekdayCount struct {
	Weekday int   `bson:"_id"`
	Count   int64 `bson:"count"`
}

// HourCount is one $group row keyed by the hour (0–23) of completedAt.
type HourCount struct {
	Hour  int   `bson:"_id"`
	Count int64 `bson:"count"`
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	// GetByOwner returns the workout only when it exists and belongs to
	// userID; otherwise ErrNotFound.
	GetByOwner(ctx context.Context, id, userID primitive.ObjectID) (*domain.Workout, error)
	List(ctx context.Context, userID primitive.ObjectID, filter WorkoutFilter) ([]domain.Workout, int64, error)
	CountByStatus(ctx context.Context, userID primitive.ObjectID) (map[domain.WorkoutStatus]int64, error)
	// Update replaces the mutable fields of the stored workout. The filter
	// includes the version the workout was read at; a mismatch (concurrent
	// writer won) yields ErrVersionConflict and the stored version is
	// incremented on success.
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error

	// Statistics queries, all scoped to userID and the [from, to] window.
	CountCreatedInWindow(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (int64, error)
	CountCompletedInWindow(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (int64, error)
	AggregateDurations(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (*DurationStats, error)
	AggregateByType(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]TypeCount, error)
	AggregateByDifficulty(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]DifficultyCount, error)
	AggregateByWeekday(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]WeekdayCount, error)
	AggregateByHour(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]HourCount, error)
}

// ExerciseRepository defines the interface for interacting with the
// exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// GetByIDs batch-fetches catalog exercises; IDs that do not resolve are
	// simply absent from the result.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error)
	List(ctx context.Context) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgressRepository defines the interface for interacting with progress
// entries. Entries are append-only from the workout engine's perspective.
type ProgressRepository interface {
	Create(ctx context.Context, entry *domain.Progress) (primitive.ObjectID, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Progress, error)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// Transactor runs a function within a datastore transaction so multi-
// document writes (workout completion + progress insert) commit or abort
// together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
