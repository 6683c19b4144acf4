package service

import (
	"techtrainer/backend/internal/domain"
)

const (
	// Fallback estimate for workouts created without any exercises.
	defaultEstimatedDuration = 30

	defaultSets        = 1
	defaultReps        = 10
	defaultRestSeconds = 60

	// Seconds allowed per rep when estimating set length.
	secondsPerRep = 5
)

// EstimateDuration computes the expected workout length in minutes from the
// planned exercises. Each set takes reps*5 seconds plus any fixed duration
// (timed exercises); rest time applies between sets, not after the last
// one. The total is rounded up to whole minutes. An empty exercise list
// yields the 30-minute fallback, never 0.
func EstimateDuration(exercises []domain.WorkoutExercise) int {
	if len(exercises) == 0 {
		return defaultEstimatedDuration
	}

	totalSeconds := 0
	for _, ex := range exercises {
		sets := ex.Sets
		if sets <= 0 {
			sets = defaultSets
		}
		reps := ex.Reps
		if reps <= 0 {
			reps = defaultReps
		}
		rest := ex.RestTime
		if rest < 0 {
			rest = defaultRestSeconds
		}

		setSeconds := reps*secondsPerRep + ex.Duration
		totalSeconds += sets*setSeconds + (sets-1)*rest
	}

	// Ceiling division; a 61-second workout is a 2-minute workout.
	minutes := (totalSeconds + 59) / 60
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
