package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Timeframe names accepted by the stats endpoint.
const (
	Timeframe7Days   = "7days"
	Timeframe30Days  = "30days"
	Timeframe90Days  = "90days"
	Timeframe6Months = "6months"
	Timeframe1Year   = "1year"
	TimeframeAllTime = "alltime"
)

// Mongo's $dayOfWeek runs 1 (Sunday) through 7 (Saturday).
var dayNames = [8]string{"", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Time-of-day bucket names.
const (
	BucketMorning   = "morning"   // hour < 12
	BucketAfternoon = "afternoon" // 12 <= hour < 18
	BucketEvening   = "evening"   // hour >= 18
)

// DurationSummary summarizes actual durations (minutes) of completed
// workouts in the window.
type DurationSummary struct {
	Total   int     `json:"total"`
	Average float64 `json:"average"`
	Max     int     `json:"max"`
	Min     int     `json:"min"`
}

// TypeBreakdown is the per-type distribution entry.
type TypeBreakdown struct {
	Type          domain.WorkoutType `json:"type"`
	Count         int64              `json:"count"`
	TotalDuration int                `json:"totalDuration"`
}

// DifficultyBreakdown is the per-difficulty distribution entry.
type DifficultyBreakdown struct {
	Difficulty domain.Difficulty `json:"difficulty"`
	Count      int64             `json:"count"`
}

// WorkoutStats is the full statistics payload for one user and timeframe.
type WorkoutStats struct {
	Timeframe         string                `json:"timeframe"`
	StartDate         time.Time             `json:"startDate"`
	EndDate           time.Time             `json:"endDate"`
	TotalWorkouts     int64                 `json:"totalWorkouts"`
	CompletedWorkouts int64                 `json:"completedWorkouts"`
	CompletionRate    float64               `json:"completionRate"`
	Duration          DurationSummary       `json:"duration"`
	ByType            []TypeBreakdown       `json:"byType"`
	ByDifficulty      []DifficultyBreakdown `json:"byDifficulty"`
	ByDayOfWeek       map[string]int64      `json:"byDayOfWeek"`
	ByTimeOfDay       map[string]int64      `json:"byTimeOfDay"`
}

// StatsService computes summary and distributional statistics over a
// user's completed workouts within a named timeframe.
type StatsService interface {
	GetWorkoutStats(ctx context.Context, userID primitive.ObjectID, timeframe string) (*WorkoutStats, error)
}

// statsService implements the StatsService interface.
type statsService struct {
	workoutRepo repository.WorkoutRepository
	logger      *zap.SugaredLogger
	now         func() time.Time // injectable for tests
}

// NewStatsService creates a new instance of statsService.
func NewStatsService(workoutRepo repository.WorkoutRepository, logger *zap.SugaredLogger) StatsService {
	return &statsService{
		workoutRepo: workoutRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ResolveTimeframe maps a timeframe name to its [start, end=now] window.
// The empty name defaults to 30 days; alltime starts at the epoch.
func ResolveTimeframe(timeframe string, now time.Time) (time.Time, time.Time, error) {
	if timeframe == "" {
		timeframe = Timeframe30Days
	}
	switch timeframe {
	case Timeframe7Days:
		return now.AddDate(0, 0, -7), now, nil
	case Timeframe30Days:
		return now.AddDate(0, 0, -30), now, nil
	case Timeframe90Days:
		return now.AddDate(0, 0, -90), now, nil
	case Timeframe6Months:
		return now.AddDate(0, -6, 0), now, nil
	case Timeframe1Year:
		return now.AddDate(-1, 0, 0), now, nil
	case TimeframeAllTime:
		return time.Unix(0, 0).UTC(), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown timeframe %q", ErrValidationFailed, timeframe)
	}
}

// GetWorkoutStats runs the five aggregation queries over the user's
// completed workouts in the window and assembles the stats payload.
func (s *statsService) GetWorkoutStats(ctx context.Context, userID primitive.ObjectID, timeframe string) (*WorkoutStats, error) {
	if timeframe == "" {
		timeframe = Timeframe30Days
	}
	now := s.now()
	from, to, err := ResolveTimeframe(timeframe, now)
	if err != nil {
		return nil, err
	}

	total, err := s.workoutRepo.CountCreatedInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	completed, err := s.workoutRepo.CountCompletedInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	durations, err := s.workoutRepo.AggregateDurations(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byType, err := s.workoutRepo.AggregateByType(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byDifficulty, err := s.workoutRepo.AggregateByDifficulty(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byWeekday, err := s.workoutRepo.AggregateByWeekday(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byHour, err := s.workoutRepo.AggregateByHour(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &WorkoutStats{
		Timeframe:         timeframe,
		StartDate:         from,
		EndDate:           to,
		TotalWorkouts:     total,
		CompletedWorkouts: completed,
		CompletionRate:    completionRate(completed, total),
		Duration: DurationSummary{
			Total:   durations.Total,
			Average: durations.Average,
			Max:     durations.Max,
			Min:     durations.Min,
		},
		ByType:       make([]TypeBreakdown, 0, len(byType)),
		ByDifficulty: make([]DifficultyBreakdown, 0, len(byDifficulty)),
		ByDayOfWeek:  map[string]int64{},
		ByTimeOfDay:  map[string]int64{},
	}

	for _, row := range byType {
		stats.ByType = append(stats.ByType, TypeBreakdown{
			Type:          row.Type,
			Count:         row.Count,
			TotalDuration: row.TotalDuration,
		})
	}
	for _, row := range byDifficulty {
		stats.ByDifficulty = append(stats.ByDifficulty, DifficultyBreakdown{
			Difficulty: row.Difficulty,
			Count:      row.Count,
		})
	}
	for _, row := range byWeekday {
		if name := dayName(row.Weekday); name != "" {
			stats.ByDayOfWeek[name] += row.Count
		}
	}
	for _, row := range byHour {
		stats.ByTimeOfDay[timeOfDayBucket(row.Hour)] += row.Count
	}

	return stats, nil
}

// completionRate is completed/total as a percentage, 0 when nothing was
// created in the window.
func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*100) / 100
}

// dayName maps Mongo's $dayOfWeek number to its English name; out-of-range
// numbers yield "".
func dayName(weekday int) string {
	if weekday < 1 || weekday > 7 {
		return ""
	}
	return dayNames[weekday]
}

// timeOfDayBucket assigns an hour (0-23) to morning/afternoon/evening.
func timeOfDayBucket(hour int) string {
	switch {
	case hour < 12:
		return BucketMorning
	case hour < 18:
		return BucketAfternoon
	default:
		return BucketEvening
	}
}
