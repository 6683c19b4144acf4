package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty grades both catalog exercises and workouts.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Exercise is a single exercise definition in the catalog. Workout entries
// reference it by ID; entries without a reference are custom, by name only.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroup string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g. "Chest", "Legs", "Back"
	Difficulty  Difficulty         `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Type        WorkoutType        `bson:"type,omitempty" json:"type,omitempty"`

	// ImageKey is the S3 object key of the demonstration image; ImageURL is
	// a presigned download URL filled in when the exercise is served.
	ImageKey string `bson:"imageKey,omitempty" json:"-"`
	ImageURL string `bson:"-" json:"imageUrl,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
