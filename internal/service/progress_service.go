package service

import (
	"context"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressService exposes the completion history the workout engine
// appends to. Read-only: entries are only ever created by CompleteWorkout.
type ProgressService interface {
	ListProgress(ctx context.Context, userID primitive.ObjectID, timeframe string) ([]domain.Progress, error)
}

// progressService implements the ProgressService interface.
type progressService struct {
	progressRepo repository.ProgressRepository
	now          func() time.Time
}

// NewProgressService creates a new instance of progressService.
func NewProgressService(progressRepo repository.ProgressRepository) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ListProgress returns the user's progress entries within the named
// timeframe, newest first.
func (s *progressService) ListProgress(ctx context.Context, userID primitive.ObjectID, timeframe string) ([]domain.Progress, error) {
	from, to, err := ResolveTimeframe(timeframe, s.now())
	if err != nil {
		return nil, err
	}
	return s.progressRepo.ListByUser(ctx, userID, from, to)
}
