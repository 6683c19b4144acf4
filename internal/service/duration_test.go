package service

import (
	"testing"

	"techtrainer/backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEstimateDuration_EmptyListFallsBack(t *testing.T) {
	assert.Equal(t, 30, EstimateDuration(nil))
	assert.Equal(t, 30, EstimateDuration([]domain.WorkoutExercise{}))
}

func TestEstimateDuration_SingleExercise(t *testing.T) {
	// 3 sets of 10 reps: 3*(10*5) + 2*60 = 270s -> ceil -> 5 min.
	exercises := []domain.WorkoutExercise{
		{Sets: 3, Reps: 10, RestTime: 60},
	}
	assert.Equal(t, 5, EstimateDuration(exercises))
}

func TestEstimateDuration_MultipleExercises(t *testing.T) {
	// 2*(8*5) + 1*90 = 170s, plus 3*(12*5) + 2*60 = 300s -> 470s -> 8 min.
	exercises := []domain.WorkoutExercise{
		{Sets: 2, Reps: 8, RestTime: 90},
		{Sets: 3, Reps: 12, RestTime: 60},
	}
	assert.Equal(t, 8, EstimateDuration(exercises))
}

func TestEstimateDuration_TimedExercise(t *testing.T) {
	// Plank: 3 sets of a 60s hold plus 10 default reps worth of seconds
	// each, 30s rest. 3*(10*5+60) + 2*30 = 390s -> 7 min.
	exercises := []domain.WorkoutExercise{
		{Sets: 3, Reps: 10, Duration: 60, RestTime: 30},
	}
	assert.Equal(t, 7, EstimateDuration(exercises))
}

func TestEstimateDuration_ZeroFieldsTakeDefaults(t *testing.T) {
	// Defaults: 1 set, 10 reps, rest irrelevant with a single set.
	// 1*(10*5) = 50s -> 1 min.
	exercises := []domain.WorkoutExercise{{}}
	assert.Equal(t, 1, EstimateDuration(exercises))
}

func TestEstimateDuration_RoundsUp(t *testing.T) {
	// 1 set, 13 reps: 65s -> 2 min, never truncated down.
	exercises := []domain.WorkoutExercise{
		{Sets: 1, Reps: 13},
	}
	assert.Equal(t, 2, EstimateDuration(exercises))
}
