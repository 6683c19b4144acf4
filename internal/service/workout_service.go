package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"
	"techtrainer/backend/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound   = errors.New("workout not found")
	ErrValidationFailed  = errors.New("validation failed")
	ErrWorkoutCompleted  = errors.New("completed workouts cannot be modified")
	ErrAlreadyCompleted  = errors.New("workout is already completed")
	ErrInvalidTransition = errors.New("invalid workout status transition")
	ErrVersionConflict   = errors.New("workout was modified by another request")
)

// ExerciseInput is one planned exercise as accepted from the API. Nil
// numeric fields take the engine defaults (1 set, 10 reps, 60s rest).
type ExerciseInput struct {
	ExerciseID *primitive.ObjectID
	Name       string
	Sets       *int
	Reps       *int
	Duration   *int // seconds
	RestTime   *int // seconds
	Notes      string
}

// CreateWorkoutInput carries the fields accepted on workout creation.
type CreateWorkoutInput struct {
	Title             string
	Description       string
	Notes             string
	Exercises         []ExerciseInput
	Type              domain.WorkoutType
	Difficulty        domain.Difficulty
	EstimatedDuration *int
	ScheduledFor      *time.Time
}

// UpdateWorkoutInput carries a partial update; nil fields are unchanged.
type UpdateWorkoutInput struct {
	Title             *string
	Description       *string
	Notes             *string
	Exercises         *[]ExerciseInput
	Type              *domain.WorkoutType
	Difficulty        *domain.Difficulty
	EstimatedDuration *int
	ScheduledFor      *time.Time
	Status            *domain.WorkoutStatus
	// Version, when set, is the last version the caller read; a mismatch
	// fails with ErrVersionConflict instead of overwriting someone else's
	// update.
	Version *int64
}

// ExerciseResult reports how one planned exercise actually went. An entry
// is matched by position index when Index is in range, else by ExerciseID;
// never by name, names collide.
type ExerciseResult struct {
	Index          *int
	ExerciseID     *primitive.ObjectID
	ActualSets     *int
	ActualReps     *int
	ActualWeight   *float64
	ActualDuration *int // seconds
	Feedback       string
}

// CompleteWorkoutInput carries the completion payload.
type CompleteWorkoutInput struct {
	Duration        *int // minutes, actual; falls back to the estimate
	CaloriesBurned  *int
	ExerciseResults []ExerciseResult
	Notes           string
	Rating          *int
	Version         *int64
}

// WorkoutPage is one page of a workout listing.
type WorkoutPage struct {
	Workouts     []domain.Workout
	Total        int64
	Page         int
	Pages        int
	Limit        int
	StatusCounts map[domain.WorkoutStatus]int64
}

// WorkoutDetail is a single workout with its catalog references resolved,
// keyed by hex exercise ID. Catalog entries carry presigned image URLs.
type WorkoutDetail struct {
	Workout *domain.Workout
	Catalog map[string]domain.Exercise
}

// WorkoutService drives the workout lifecycle: creation with duration
// estimation and catalog resolution, status transitions, completion with
// per-exercise results and a progress entry, deletion.
type WorkoutService interface {
	CreateWorkout(ctx context.Context, userID primitive.ObjectID, input CreateWorkoutInput) (*domain.Workout, error)
	ListWorkouts(ctx context.Context, userID primitive.ObjectID, filter repository.WorkoutFilter) (*WorkoutPage, error)
	GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*WorkoutDetail, error)
	UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input UpdateWorkoutInput) (*domain.Workout, error)
	StartWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input CompleteWorkoutInput) (*domain.Workout, error)
	CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo  repository.WorkoutRepository
	exerciseRepo repository.ExerciseRepository
	progressRepo repository.ProgressRepository
	userRepo     repository.UserRepository
	transactor   repository.Transactor
	fileStorage  storage.FileStorage
	logger       *zap.SugaredLogger
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	exerciseRepo repository.ExerciseRepository,
	progressRepo repository.ProgressRepository,
	userRepo repository.UserRepository,
	transactor repository.Transactor,
	fileStorage storage.FileStorage,
	logger *zap.SugaredLogger,
) WorkoutService {
	return &workoutService{
		workoutRepo:  workoutRepo,
		exerciseRepo: exerciseRepo,
		progressRepo: progressRepo,
		userRepo:     userRepo,
		transactor:   transactor,
		fileStorage:  fileStorage,
		logger:       logger,
	}
}

// CreateWorkout validates and normalizes the input, resolves catalog
// references, estimates the duration when none is supplied, and stores the
// workout. Initial status is scheduled when scheduledFor is present, else
// in_progress.
func (s *workoutService) CreateWorkout(ctx context.Context, userID primitive.ObjectID, input CreateWorkoutInput) (*domain.Workout, error) {
	if userID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidationFailed)
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}

	workoutType := input.Type
	if workoutType == "" {
		workoutType = domain.TypeGeneral
	}
	if !domain.ValidWorkoutType(workoutType) {
		return nil, fmt.Errorf("%w: unknown workout type %q", ErrValidationFailed, workoutType)
	}

	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = s.defaultDifficulty(ctx, userID)
	}
	if !domain.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidationFailed, difficulty)
	}

	exercises, err := s.normalizeExercises(ctx, input.Exercises)
	if err != nil {
		return nil, err
	}

	estimated := EstimateDuration(exercises)
	if input.EstimatedDuration != nil && *input.EstimatedDuration > 0 {
		estimated = *input.EstimatedDuration
	}

	now := time.Now().UTC()
	workout := &domain.Workout{
		UserID:            userID,
		Title:             input.Title,
		Description:       input.Description,
		Notes:             input.Notes,
		Exercises:         exercises,
		Type:              workoutType,
		Difficulty:        difficulty,
		EstimatedDuration: estimated,
		Status:            domain.StatusInProgress,
		StartedAt:         &now,
	}
	if input.ScheduledFor != nil {
		workout.Status = domain.StatusScheduled
		workout.ScheduledFor = input.ScheduledFor
		workout.StartedAt = nil
	}

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id

	s.logger.Infow("workout created",
		"workoutId", id.Hex(), "userId", userID.Hex(), "status", workout.Status)
	return workout, nil
}

// ListWorkouts returns one page of the user's workouts plus the per-status
// counts the UI shows next to its filters.
func (s *workoutService) ListWorkouts(ctx context.Context, userID primitive.ObjectID, filter repository.WorkoutFilter) (*WorkoutPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Status != "" && !domain.ValidWorkoutStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, filter.Status)
	}

	workouts, total, err := s.workoutRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.workoutRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &WorkoutPage{
		Workouts:     workouts,
		Total:        total,
		Page:         filter.Page,
		Pages:        pages,
		Limit:        filter.Limit,
		StatusCounts: statusCounts,
	}, nil
}

// GetWorkout fetches one workout and resolves its catalog references so
// the response can embed exercise details (description, muscle group,
// image URL).
func (s *workoutService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*WorkoutDetail, error) {
	workout, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(workout.Exercises))
	for _, ex := range workout.Exercises {
		if ex.ExerciseID != nil {
			ids = append(ids, *ex.ExerciseID)
		}
	}
	resolved, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]domain.Exercise, len(resolved))
	for id, ex := range resolved {
		if ex.ImageKey != "" {
			url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, ex.ImageKey, 0)
			if err != nil {
				s.logger.Warnw("failed to presign exercise image", "exerciseId", id.Hex(), "error", err)
			} else {
				ex.ImageURL = url
			}
		}
		catalog[id.Hex()] = ex
	}

	return &WorkoutDetail{Workout: workout, Catalog: catalog}, nil
}

// UpdateWorkout applies a partial update. Completed workouts are immutable.
// Supplying exercises revalidates and renormalizes them exactly like
// create, and recomputes the estimate unless the caller also sent one.
// Changing scheduledFor without an explicit status forces scheduled; an
// explicit status must follow the transition table, so terminal workouts
// stay terminal.
func (s *workoutService) UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input UpdateWorkoutInput) (*domain.Workout, error) {
	workout, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsCompleted() {
		return nil, ErrWorkoutCompleted
	}
	if input.Version != nil && *input.Version != workout.Version {
		return nil, ErrVersionConflict
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidationFailed)
		}
		workout.Title = *input.Title
	}
	if input.Description != nil {
		workout.Description = *input.Description
	}
	if input.Notes != nil {
		workout.Notes = *input.Notes
	}
	if input.Type != nil {
		if !domain.ValidWorkoutType(*input.Type) {
			return nil, fmt.Errorf("%w: unknown workout type %q", ErrValidationFailed, *input.Type)
		}
		workout.Type = *input.Type
	}
	if input.Difficulty != nil {
		if !domain.ValidDifficulty(*input.Difficulty) {
			return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidationFailed, *input.Difficulty)
		}
		workout.Difficulty = *input.Difficulty
	}

	if input.Exercises != nil {
		exercises, err := s.normalizeExercises(ctx, *input.Exercises)
		if err != nil {
			return nil, err
		}
		workout.Exercises = exercises
		if input.EstimatedDuration == nil {
			workout.EstimatedDuration = EstimateDuration(exercises)
		}
	}
	if input.EstimatedDuration != nil && *input.EstimatedDuration > 0 {
		workout.EstimatedDuration = *input.EstimatedDuration
	}

	if input.ScheduledFor != nil {
		workout.ScheduledFor = input.ScheduledFor
		if input.Status == nil {
			workout.Status = domain.StatusScheduled
		}
	}
	if input.Status != nil {
		if !domain.ValidWorkoutStatus(*input.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *input.Status)
		}
		// Completion goes through CompleteWorkout so the progress entry and
		// completion timestamps are never skipped.
		if *input.Status == domain.StatusCompleted {
			return nil, fmt.Errorf("%w: use the complete operation to finish a workout", ErrValidationFailed)
		}
		if *input.Status != workout.Status {
			if !workout.Status.CanTransitionTo(*input.Status) {
				return nil, fmt.Errorf("%w: cannot move a %s workout to %s", ErrInvalidTransition, workout.Status, *input.Status)
			}
			if *input.Status == domain.StatusInProgress && workout.StartedAt == nil {
				now := time.Now().UTC()
				workout.StartedAt = &now
			}
			workout.Status = *input.Status
		}
	}

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, mapRepoError(err)
	}
	return workout, nil
}

// StartWorkout transitions a scheduled workout to in_progress and records
// the start time. Starting an already running workout is a no-op.
func (s *workoutService) StartWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.Status == domain.StatusInProgress {
		return workout, nil
	}
	if !workout.Status.CanTransitionTo(domain.StatusInProgress) {
		if workout.IsCompleted() {
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("%w: cannot start a %s workout", ErrInvalidTransition, workout.Status)
	}

	now := time.Now().UTC()
	workout.Status = domain.StatusInProgress
	workout.StartedAt = &now

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, mapRepoError(err)
	}
	return workout, nil
}

// CompleteWorkout finishes the workout: applies per-exercise results,
// stamps completion metadata, and emits exactly one progress entry. The
// workout update and the progress insert run in one transaction.
func (s *workoutService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input CompleteWorkoutInput) (*domain.Workout, error) {
	workout, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	if !workout.Status.CanTransitionTo(domain.StatusCompleted) {
		return nil, fmt.Errorf("%w: cannot complete a %s workout", ErrInvalidTransition, workout.Status)
	}
	if input.Version != nil && *input.Version != workout.Version {
		return nil, ErrVersionConflict
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidationFailed)
	}

	applyExerciseResults(workout.Exercises, input.ExerciseResults)

	now := time.Now().UTC()
	workout.Status = domain.StatusCompleted
	workout.CompletedAt = &now
	if workout.StartedAt == nil {
		// Completed without an explicit start; complete implies start.
		workout.StartedAt = &now
	}
	workout.Duration = workout.EstimatedDuration
	if input.Duration != nil && *input.Duration > 0 {
		workout.Duration = *input.Duration
	}
	if input.CaloriesBurned != nil {
		workout.CaloriesBurned = *input.CaloriesBurned
	}
	if input.Rating != nil {
		workout.Rating = *input.Rating
	}
	if input.Notes != "" {
		workout.Notes = input.Notes
	}

	entry := &domain.Progress{
		UserID:            userID,
		Date:              now,
		WorkoutID:         workout.ID,
		WorkoutDuration:   workout.Duration,
		CaloriesBurned:    workout.CaloriesBurned,
		WorkoutRating:     workout.Rating,
		WorkoutType:       workout.Type,
		WorkoutDifficulty: workout.Difficulty,
		Notes:             workout.Notes,
	}

	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workoutRepo.Update(txCtx, workout); err != nil {
			return err
		}
		_, err := s.progressRepo.Create(txCtx, entry)
		return err
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Infow("workout completed",
		"workoutId", workout.ID.Hex(), "userId", userID.Hex(),
		"duration", workout.Duration, "rating", workout.Rating)
	return workout, nil
}

// CancelWorkout abandons a scheduled or running workout.
func (s *workoutService) CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if !workout.Status.CanTransitionTo(domain.StatusCancelled) {
		if workout.IsCompleted() {
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("%w: cannot cancel a %s workout", ErrInvalidTransition, workout.Status)
	}

	workout.Status = domain.StatusCancelled
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, mapRepoError(err)
	}
	return workout, nil
}

// DeleteWorkout removes the workout in any status. Progress entries that
// reference it are independent and survive.
func (s *workoutService) DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	err := s.workoutRepo.Delete(ctx, workoutID, userID)
	if err != nil {
		return mapRepoError(err)
	}
	return nil
}

// --- helpers ---

// getOwned fetches a workout owned by userID, mapping absence and foreign
// ownership to the same not-found error.
func (s *workoutService) getOwned(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByOwner(ctx, workoutID, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return workout, nil
}

// defaultDifficulty falls back to the user's fitness level, or beginner
// when that is unset.
func (s *workoutService) defaultDifficulty(ctx context.Context, userID primitive.ObjectID) domain.Difficulty {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.FitnessLevel == "" {
		return domain.DifficultyBeginner
	}
	return user.FitnessLevel
}

// normalizeExercises resolves catalog references with one batch query and
// applies the engine defaults. An entry keeps its catalog reference only
// when the ID still resolves; stale references degrade to custom-by-name.
func (s *workoutService) normalizeExercises(ctx context.Context, inputs []ExerciseInput) ([]domain.WorkoutExercise, error) {
	ids := make([]primitive.ObjectID, 0, len(inputs))
	for _, in := range inputs {
		if in.ExerciseID != nil {
			ids = append(ids, *in.ExerciseID)
		}
	}
	resolved, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	exercises := make([]domain.WorkoutExercise, 0, len(inputs))
	for i, in := range inputs {
		entry := domain.WorkoutExercise{
			Name:     in.Name,
			Sets:     defaultSets,
			Reps:     defaultReps,
			RestTime: defaultRestSeconds,
			Notes:    in.Notes,
		}
		if in.ExerciseID != nil {
			if catalogEx, ok := resolved[*in.ExerciseID]; ok {
				id := *in.ExerciseID
				entry.ExerciseID = &id
				if entry.Name == "" {
					entry.Name = catalogEx.Name
				}
			}
		}
		if entry.ExerciseID == nil && entry.Name == "" {
			return nil, fmt.Errorf("%w: exercise %d needs a catalog reference or a name", ErrValidationFailed, i)
		}
		if in.Sets != nil {
			if *in.Sets < 1 {
				return nil, fmt.Errorf("%w: exercise %d sets must be positive", ErrValidationFailed, i)
			}
			entry.Sets = *in.Sets
		}
		if in.Reps != nil {
			if *in.Reps < 1 {
				return nil, fmt.Errorf("%w: exercise %d reps must be positive", ErrValidationFailed, i)
			}
			entry.Reps = *in.Reps
		}
		if in.Duration != nil {
			if *in.Duration < 0 {
				return nil, fmt.Errorf("%w: exercise %d duration cannot be negative", ErrValidationFailed, i)
			}
			entry.Duration = *in.Duration
		}
		if in.RestTime != nil {
			if *in.RestTime < 0 {
				return nil, fmt.Errorf("%w: exercise %d rest time cannot be negative", ErrValidationFailed, i)
			}
			entry.RestTime = *in.RestTime
		}
		exercises = append(exercises, entry)
	}
	return exercises, nil
}

// applyExerciseResults overwrites matched entries with their actual
// performance. Matching is by position index when in range, else by
// exerciseId equality; unmatched results are dropped and unmatched entries
// stay untouched (not marked completed).
func applyExerciseResults(exercises []domain.WorkoutExercise, results []ExerciseResult) {
	for _, res := range results {
		idx := -1
		if res.Index != nil && *res.Index >= 0 && *res.Index < len(exercises) {
			idx = *res.Index
		} else if res.ExerciseID != nil {
			for i := range exercises {
				if exercises[i].ExerciseID != nil && *exercises[i].ExerciseID == *res.ExerciseID {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			continue
		}

		entry := &exercises[idx]
		entry.Completed = true
		sets := entry.Sets
		if res.ActualSets != nil {
			sets = *res.ActualSets
		}
		entry.ActualSets = &sets
		reps := entry.Reps
		if res.ActualReps != nil {
			reps = *res.ActualReps
		}
		entry.ActualReps = &reps
		duration := entry.Duration
		if res.ActualDuration != nil {
			duration = *res.ActualDuration
		}
		entry.ActualDuration = &duration
		if res.ActualWeight != nil {
			entry.ActualWeight = res.ActualWeight
		}
		if res.Feedback != "" {
			entry.Feedback = res.Feedback
		}
	}
}

// mapRepoError translates repository sentinels into service errors.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrWorkoutNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrVersionConflict
	default:
		return err
	}
}
