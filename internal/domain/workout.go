package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus is the canonical lifecycle status of a workout.
type WorkoutStatus string

const (
	StatusScheduled  WorkoutStatus = "scheduled"
	StatusInProgress WorkoutStatus = "in_progress"
	StatusCompleted  WorkoutStatus = "completed"
	StatusCancelled  WorkoutStatus = "cancelled"
)

// ValidWorkoutStatus reports whether s is one of the canonical statuses.
func ValidWorkoutStatus(s WorkoutStatus) bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the workout state machine. Completed and
// cancelled are terminal. A scheduled workout may complete directly
// (complete implies start).
func (s WorkoutStatus) CanTransitionTo(next WorkoutStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusInProgress || next == StatusCompleted || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// WorkoutType categorizes a workout.
type WorkoutType string

const (
	TypeStrength    WorkoutType = "strength"
	TypeCardio      WorkoutType = "cardio"
	TypeFlexibility WorkoutType = "flexibility"
	TypeMixed       WorkoutType = "mixed"
	TypeGeneral     WorkoutType = "general"
)

func ValidWorkoutType(t WorkoutType) bool {
	switch t {
	case TypeStrength, TypeCardio, TypeFlexibility, TypeMixed, TypeGeneral:
		return true
	}
	return false
}

// WorkoutExercise is one movement embedded in a workout, either referencing
// a catalog exercise by ID or describing a custom one by name. Exactly one
// identity source is set: entries whose ExerciseID no longer resolves in the
// catalog degrade to custom-by-name.
type WorkoutExercise struct {
	ExerciseID *primitive.ObjectID `bson:"exerciseId,omitempty" json:"exerciseId,omitempty"`
	Name       string              `bson:"name" json:"name"`
	Sets       int                 `bson:"sets" json:"sets"`
	Reps       int                 `bson:"reps" json:"reps"`
	Duration   int                 `bson:"duration" json:"duration"` // seconds, for timed exercises
	RestTime   int                 `bson:"restTime" json:"restTime"` // seconds between sets
	Notes      string              `bson:"notes,omitempty" json:"notes,omitempty"`

	// Completion-time fields, absent before the workout completes.
	Completed      bool     `bson:"completed,omitempty" json:"completed,omitempty"`
	ActualSets     *int     `bson:"actualSets,omitempty" json:"actualSets,omitempty"`
	ActualReps     *int     `bson:"actualReps,omitempty" json:"actualReps,omitempty"`
	ActualWeight   *float64 `bson:"actualWeight,omitempty" json:"actualWeight,omitempty"`
	ActualDuration *int     `bson:"actualDuration,omitempty" json:"actualDuration,omitempty"`
	Feedback       string   `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Workout is the aggregate root: a user-owned, ordered list of exercises
// with lifecycle status and timing metadata. Exercise order is meaningful
// (display and execution order).
type Workout struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"` // immutable after creation
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises         []WorkoutExercise  `bson:"exercises" json:"exercises"`
	Type              WorkoutType        `bson:"type" json:"type"`
	Difficulty        Difficulty         `bson:"difficulty" json:"difficulty"`
	EstimatedDuration int                `bson:"estimatedDuration" json:"estimatedDuration"` // minutes
	Duration          int                `bson:"duration,omitempty" json:"duration,omitempty"` // minutes, set on completion
	Status            WorkoutStatus      `bson:"status" json:"status"`
	ScheduledFor      *time.Time         `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	StartedAt         *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt       *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CaloriesBurned    int                `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	Rating            int                `bson:"rating,omitempty" json:"rating,omitempty"`

	// Version supports optimistic concurrency: update/complete bump it and
	// callers may pass the last-seen value to detect lost updates.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsCompleted reports whether the workout is immutable.
func (w *Workout) IsCompleted() bool {
	return w.Status == StatusCompleted
}
