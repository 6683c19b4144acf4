package service

import (
	"context"
	"errors"
	"fmt"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"
	"techtrainer/backend/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
)

// ExerciseUpload is the presigned-upload handshake for a catalog exercise
// image: the client PUTs the file to UploadURL and the key is stored on
// the exercise.
type ExerciseUpload struct {
	UploadURL string
	ObjectKey string
}

// ExerciseService manages the exercise catalog that workout entries
// reference by ID.
type ExerciseService interface {
	CreateExercise(ctx context.Context, name, description, muscleGroup string, difficulty domain.Difficulty, exType domain.WorkoutType) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	ListExercises(ctx context.Context) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, exerciseID primitive.ObjectID, name, description, muscleGroup string, difficulty domain.Difficulty, exType domain.WorkoutType) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error
	// RequestImageUpload issues a presigned PUT URL for the exercise image
	// and records the object key on the exercise.
	RequestImageUpload(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*ExerciseUpload, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// CreateExercise adds a catalog exercise.
func (s *exerciseService) CreateExercise(ctx context.Context, name, description, muscleGroup string, difficulty domain.Difficulty, exType domain.WorkoutType) (*domain.Exercise, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if difficulty != "" && !domain.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidationFailed, difficulty)
	}
	if exType != "" && !domain.ValidWorkoutType(exType) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidationFailed, exType)
	}

	exercise := &domain.Exercise{
		Name:        name,
		Description: description,
		MuscleGroup: muscleGroup,
		Difficulty:  difficulty,
		Type:        exType,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single catalog exercise with a presigned
// image URL when an image has been uploaded.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	s.attachImageURL(ctx, exercise)
	return exercise, nil
}

// ListExercises retrieves the whole catalog.
func (s *exerciseService) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	exercises, err := s.exerciseRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range exercises {
		s.attachImageURL(ctx, &exercises[i])
	}
	return exercises, nil
}

// UpdateExercise modifies a catalog exercise.
func (s *exerciseService) UpdateExercise(ctx context.Context, exerciseID primitive.ObjectID, name, description, muscleGroup string, difficulty domain.Difficulty, exType domain.WorkoutType) (*domain.Exercise, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if difficulty != "" && !domain.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidationFailed, difficulty)
	}
	if exType != "" && !domain.ValidWorkoutType(exType) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidationFailed, exType)
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	existing.Name = name
	existing.Description = description
	existing.MuscleGroup = muscleGroup
	existing.Difficulty = difficulty
	existing.Type = exType

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteExercise removes a catalog exercise and its stored image. Workout
// entries referencing it keep their denormalized name and degrade to
// custom exercises.
func (s *exerciseService) DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if existing.ImageKey != "" {
		// Best effort; an orphaned object is preferable to a failed delete.
		_ = s.fileStorage.DeleteObject(ctx, existing.ImageKey)
	}
	return nil
}

// RequestImageUpload issues a presigned PUT URL for the exercise image and
// stores the object key.
func (s *exerciseService) RequestImageUpload(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*ExerciseUpload, error) {
	if contentType == "" {
		return nil, fmt.Errorf("%w: content type is required", ErrValidationFailed)
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	objectKey := fmt.Sprintf("exercises/%s/%s", exerciseID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, 0)
	if err != nil {
		return nil, err
	}

	exercise.ImageKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, err
	}

	return &ExerciseUpload{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// attachImageURL fills in a presigned download URL; failures leave the
// exercise without one rather than failing the read.
func (s *exerciseService) attachImageURL(ctx context.Context, exercise *domain.Exercise) {
	if exercise.ImageKey == "" {
		return
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.ImageKey, 0)
	if err == nil {
		exercise.ImageURL = url
	}
}
