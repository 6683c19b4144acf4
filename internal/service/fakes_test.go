package service

import (
	"context"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory fakes for the repository and storage interfaces. Each fake
// stores data keyed by ObjectID and mimics the sentinel errors the mongo
// implementations return.

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// --- workout repository ---

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout

	// canned aggregation results for the stats queries
	createdCount   int64
	completedCount int64
	durations      repository.DurationStats
	byType         []repository.TypeCount
	byDifficulty   []repository.DifficultyCount
	byWeekday      []repository.WeekdayCount
	byHour         []repository.HourCount

	// last window passed to a stats query
	lastFrom time.Time
	lastTo   time.Time

	updateErr error
	updates   int
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: map[primitive.ObjectID]*domain.Workout{}}
}

func (f *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	workout.ID = id
	workout.Version = 1
	workout.CreatedAt = time.Now().UTC()
	workout.UpdatedAt = workout.CreatedAt
	clone := *workout
	f.workouts[id] = &clone
	return id, nil
}

func (f *fakeWorkoutRepo) GetByOwner(_ context.Context, id, userID primitive.ObjectID) (*domain.Workout, error) {
	workout, ok := f.workouts[id]
	if !ok || workout.UserID != userID {
		return nil, repository.ErrNotFound
	}
	clone := *workout
	return &clone, nil
}

func (f *fakeWorkoutRepo) List(_ context.Context, userID primitive.ObjectID, _ repository.WorkoutFilter) ([]domain.Workout, int64, error) {
	var out []domain.Workout
	for _, w := range f.workouts {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeWorkoutRepo) CountByStatus(_ context.Context, userID primitive.ObjectID) (map[domain.WorkoutStatus]int64, error) {
	counts := map[domain.WorkoutStatus]int64{}
	for _, w := range f.workouts {
		if w.UserID == userID {
			counts[w.Status]++
		}
	}
	return counts, nil
}

func (f *fakeWorkoutRepo) Update(_ context.Context, workout *domain.Workout) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.workouts[workout.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != workout.Version {
		return repository.ErrVersionConflict
	}
	workout.Version++
	workout.UpdatedAt = time.Now().UTC()
	clone := *workout
	f.workouts[workout.ID] = &clone
	f.updates++
	return nil
}

func (f *fakeWorkoutRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	workout, ok := f.workouts[id]
	if !ok || workout.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.workouts, id)
	return nil
}

func (f *fakeWorkoutRepo) CountCreatedInWindow(_ context.Context, _ primitive.ObjectID, from, to time.Time) (int64, error) {
	f.lastFrom, f.lastTo = from, to
	return f.createdCount, nil
}

func (f *fakeWorkoutRepo) CountCompletedInWindow(_ context.Context, _ primitive.ObjectID, _, _ time.Time) (int64, error) {
	return f.completedCount, nil
}

func (f *fakeWorkoutRepo) AggregateDurations(_ context.Context, _ primitive.ObjectID, _, _ time.Time) (*repository.DurationStats, error) {
	durations := f.durations
	return &durations, nil
}

func (f *fakeWorkoutRepo) AggregateByType(_ context.Context, _ primitive.ObjectID, _, _ time.Time) ([]repository.TypeCount, error) {
	return f.byType, nil
}

func (f *fakeWorkoutRepo) AggregateByDifficulty(_ context.Context, _ primitive.ObjectID, _, _ time.Time) ([]repository.DifficultyCount, error) {
	return f.byDifficulty, nil
}

func (f *fakeWorkoutRepo) AggregateByWeekday(_ context.Context, _ primitive.ObjectID, _, _ time.Time) ([]repository.WeekdayCount, error) {
	return f.byWeekday, nil
}

func (f *fakeWorkoutRepo) AggregateByHour(_ context.Context, _ primitive.ObjectID, _, _ time.Time) ([]repository.HourCount, error) {
	return f.byHour, nil
}

// --- exercise repository ---

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: map[primitive.ObjectID]domain.Exercise{}}
}

func (f *fakeExerciseRepo) add(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.exercises[id] = domain.Exercise{ID: id, Name: name}
	return id
}

func (f *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	exercise.ID = id
	f.exercises[id] = *exercise
	return id, nil
}

func (f *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, ok := f.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &exercise, nil
}

func (f *fakeExerciseRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	out := map[primitive.ObjectID]domain.Exercise{}
	for _, id := range ids {
		if exercise, ok := f.exercises[id]; ok {
			out[id] = exercise
		}
	}
	return out, nil
}

func (f *fakeExerciseRepo) List(_ context.Context) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, exercise := range f.exercises {
		out = append(out, exercise)
	}
	return out, nil
}

func (f *fakeExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	if _, ok := f.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	f.exercises[exercise.ID] = *exercise
	return nil
}

func (f *fakeExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.exercises, id)
	return nil
}

// --- progress repository ---

type fakeProgressRepo struct {
	entries []domain.Progress
}

func (f *fakeProgressRepo) Create(_ context.Context, entry *domain.Progress) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	entry.ID = id
	f.entries = append(f.entries, *entry)
	return id, nil
}

func (f *fakeProgressRepo) ListByUser(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Progress, error) {
	var out []domain.Progress
	for _, entry := range f.entries {
		if entry.UserID == userID && !entry.Date.Before(from) && !entry.Date.After(to) {
			out = append(out, entry)
		}
	}
	return out, nil
}

// --- user repository ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (f *fakeUserRepo) add(fitnessLevel domain.Difficulty) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.users[id] = &domain.User{ID: id, Name: "test", Email: id.Hex() + "@example.com", FitnessLevel: fitnessLevel}
	return id
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	user.ID = id
	clone := *user
	f.users[id] = &clone
	return id, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// --- transactor ---

// fakeTransactor just runs the function; calls counts invocations so tests
// can assert completion went through the transactional path.
type fakeTransactor struct {
	calls int
	err   error
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

// --- file storage ---

type fakeFileStorage struct {
	deleted []string
}

func (f *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://s3.test/upload/" + objectKey, nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://s3.test/download/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}
