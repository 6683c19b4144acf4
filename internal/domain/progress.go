package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress is an independent record created when a workout completes. It
// references the workout but does not own it: deleting the workout later
// leaves the progress entry in place. Append-only from the engine's
// perspective, one entry per completion event.
type Progress struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	Date              time.Time          `bson:"date" json:"date"`
	WorkoutID         primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	WorkoutDuration   int                `bson:"workoutDuration" json:"workoutDuration"` // minutes
	CaloriesBurned    int                `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	WorkoutRating     int                `bson:"workoutRating,omitempty" json:"workoutRating,omitempty"`
	WorkoutType       WorkoutType        `bson:"workoutType" json:"workoutType"`
	WorkoutDifficulty Difficulty         `bson:"workoutDifficulty" json:"workoutDifficulty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}
