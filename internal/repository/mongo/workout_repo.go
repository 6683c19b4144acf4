package mongo

import (
	"context"
	"errors"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const workoutCollectionName = "workouts"

// Fields callers may sort a workout listing by. Anything else falls back
// to createdAt.
var workoutSortFields = map[string]string{
	"createdAt":         "createdAt",
	"updatedAt":         "updatedAt",
	"title":             "title",
	"scheduledFor":      "scheduledFor",
	"completedAt":       "completedAt",
	"estimatedDuration": "estimatedDuration",
	"duration":          "duration",
}

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.Title == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and title")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	workout.Version = 1

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByOwner retrieves a workout only if it belongs to the given user.
// The combined filter means "absent" and "not owned" are indistinguishable,
// which is what the API reports anyway.
func (r *mongoWorkoutRepository) GetByOwner(ctx context.Context, id, userID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// List returns one page of the user's workouts matching the filter, plus
// the total match count for pagination.
func (r *mongoWorkoutRepository) List(ctx context.Context, userID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.Workout, int64, error) {
	query := bson.M{"userId": userID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Difficulty != "" {
		query["difficulty"] = filter.Difficulty
	}
	if filter.Search != "" {
		regex := bson.M{"$regex": filter.Search, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"description": regex},
		}
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		created := bson.M{}
		if filter.StartDate != nil {
			created["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			created["$lte"] = *filter.EndDate
		}
		query["createdAt"] = created
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	sortField, ok := workoutSortFields[filter.SortBy]
	if !ok {
		sortField = "createdAt"
	}
	sortDir := -1
	if filter.SortOrder == "asc" {
		sortDir = 1
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortDir}}).
		SetSkip(int64(page-1) * int64(limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, 0, err
	}
	return workouts, total, nil
}

// CountByStatus groups the user's workouts by status, for the listing's
// filter counts.
func (r *mongoWorkoutRepository) CountByStatus(ctx context.Context, userID primitive.ObjectID) (map[domain.WorkoutStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status domain.WorkoutStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[domain.WorkoutStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Update replaces the mutable fields of the stored workout. The filter pins
// the version the caller read, so a concurrent writer makes this fail with
// ErrVersionConflict instead of silently losing the other write.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	filter := bson.M{
		"_id":     workout.ID,
		"userId":  workout.UserID,
		"version": workout.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"title":             workout.Title,
			"description":       workout.Description,
			"notes":             workout.Notes,
			"exercises":         workout.Exercises,
			"type":              workout.Type,
			"difficulty":        workout.Difficulty,
			"estimatedDuration": workout.EstimatedDuration,
			"duration":          workout.Duration,
			"status":            workout.Status,
			"scheduledFor":      workout.ScheduledFor,
			"startedAt":         workout.StartedAt,
			"completedAt":       workout.CompletedAt,
			"caloriesBurned":    workout.CaloriesBurned,
			"rating":            workout.Rating,
			"updatedAt":         time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the workout is gone or someone updated it first; look again
		// to tell the two apart.
		err := r.collection.FindOne(ctx, bson.M{"_id": workout.ID, "userId": workout.UserID}).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		return repository.ErrVersionConflict
	}
	workout.Version++
	return nil
}

// Delete physically removes the workout. Progress entries referencing it
// are left in place.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "userId": userID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// --- Statistics queries ---

// completedWindowFilter scopes a stats query to the user's completed
// workouts whose completedAt falls in [from, to].
func completedWindowFilter(userID primitive.ObjectID, from, to time.Time) bson.M {
	return bson.M{
		"userId":      userID,
		"status":      domain.StatusCompleted,
		"completedAt": bson.M{"$gte": from, "$lte": to},
	}
}

// CountCreatedInWindow counts all the user's workouts created in the
// window, regardless of status.
func (r *mongoWorkoutRepository) CountCreatedInWindow(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (int64, error) {
	filter := bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gte": from, "$lte": to},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// CountCompletedInWindow counts the user's workouts completed in the window.
func (r *mongoWorkoutRepository) CountCompletedInWindow(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, completedWindowFilter(userID, from, to))
}

// AggregateDurations computes total/average/max/min actual duration across
// completed workouts in the window. Returns zero stats when none match.
func (r *mongoWorkoutRepository) AggregateDurations(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (*repository.DurationStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: completedWindowFilter(userID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"total":   bson.M{"$sum": "$duration"},
			"average": bson.M{"$avg": "$duration"},
			"max":     bson.M{"$max": "$duration"},
			"min":     bson.M{"$min": "$duration"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []repository.DurationStats
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &repository.DurationStats{}, nil
	}
	return &rows[0], nil
}

// AggregateByType groups completed workouts in the window by type.
func (r *mongoWorkoutRepository) AggregateByType(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]repository.TypeCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: completedWindowFilter(userID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$type",
			"count":         bson.M{"$sum": 1},
			"totalDuration": bson.M{"$sum": "$duration"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []repository.TypeCount
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByDifficulty groups completed workouts in the window by
// difficulty.
func (r *mongoWorkoutRepository) AggregateByDifficulty(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]repository.DifficultyCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: completedWindowFilter(userID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$difficulty",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []repository.DifficultyCount
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByWeekday groups completed workouts by $dayOfWeek of
// completedAt (1 = Sunday … 7 = Saturday).
func (r *mongoWorkoutRepository) AggregateByWeekday(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]repository.WeekdayCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: completedWindowFilter(userID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dayOfWeek": "$completedAt"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []repository.WeekdayCount
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByHour groups completed workouts by the hour component of
// completedAt; the service buckets hours into times of day.
func (r *mongoWorkoutRepository) AggregateByHour(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]repository.HourCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: completedWindowFilter(userID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$hour": "$completedAt"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []repository.HourCount
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.SugaredLogger) {
	indexes := []mongo.IndexModel{
		{
			// Listing and created-in-window counts.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Covers all the completed-workout stats queries.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "scheduledFor", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Non-fatal: queries still work unindexed.
		logger.Warnw("failed to create workout indexes", "error", err)
	}
}
