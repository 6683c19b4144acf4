package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"
	"techtrainer/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// stubWorkoutService returns canned values so handler tests exercise only
// binding, routing and error mapping.
type stubWorkoutService struct {
	workout *domain.Workout
	detail  *service.WorkoutDetail
	page    *service.WorkoutPage
	err     error

	lastCreate   service.CreateWorkoutInput
	lastComplete service.CompleteWorkoutInput
	lastFilter   repository.WorkoutFilter
}

func (s *stubWorkoutService) CreateWorkout(_ context.Context, _ primitive.ObjectID, input service.CreateWorkoutInput) (*domain.Workout, error) {
	s.lastCreate = input
	return s.workout, s.err
}

func (s *stubWorkoutService) ListWorkouts(_ context.Context, _ primitive.ObjectID, filter repository.WorkoutFilter) (*service.WorkoutPage, error) {
	s.lastFilter = filter
	return s.page, s.err
}

func (s *stubWorkoutService) GetWorkout(_ context.Context, _, _ primitive.ObjectID) (*service.WorkoutDetail, error) {
	return s.detail, s.err
}

func (s *stubWorkoutService) UpdateWorkout(_ context.Context, _, _ primitive.ObjectID, _ service.UpdateWorkoutInput) (*domain.Workout, error) {
	return s.workout, s.err
}

func (s *stubWorkoutService) StartWorkout(_ context.Context, _, _ primitive.ObjectID) (*domain.Workout, error) {
	return s.workout, s.err
}

func (s *stubWorkoutService) CompleteWorkout(_ context.Context, _, _ primitive.ObjectID, input service.CompleteWorkoutInput) (*domain.Workout, error) {
	s.lastComplete = input
	return s.workout, s.err
}

func (s *stubWorkoutService) CancelWorkout(_ context.Context, _, _ primitive.ObjectID) (*domain.Workout, error) {
	return s.workout, s.err
}

func (s *stubWorkoutService) DeleteWorkout(_ context.Context, _, _ primitive.ObjectID) error {
	return s.err
}

func newTestRouter(stub *stubWorkoutService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWorkoutHandler(stub)

	group := router.Group("/api/v1")
	group.Use(AuthMiddleware(testSecret))
	{
		group.POST("/workouts", handler.CreateWorkout)
		group.GET("/workouts", handler.ListWorkouts)
		group.GET("/workouts/:id", handler.GetWorkout)
		group.PUT("/workouts/:id", handler.UpdateWorkout)
		group.POST("/workouts/:id/complete", handler.CompleteWorkout)
	}
	return router
}

func signTestToken(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid": userID.Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateWorkout_Handler(t *testing.T) {
	userID := primitive.NewObjectID()
	stub := &stubWorkoutService{workout: &domain.Workout{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Title:  "Morning push",
		Status: domain.StatusInProgress,
	}}
	router := newTestRouter(stub)

	body := gin.H{
		"title": "Morning push",
		"exercises": []gin.H{
			{"name": "Push-up", "sets": 3, "reps": 10},
		},
	}
	rec := doRequest(t, router, http.MethodPost, "/api/v1/workouts", body, signTestToken(t, userID))

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "success", resp.Status)

	require.Len(t, stub.lastCreate.Exercises, 1)
	assert.Equal(t, "Push-up", stub.lastCreate.Exercises[0].Name)
	require.NotNil(t, stub.lastCreate.Exercises[0].Sets)
	assert.Equal(t, 3, *stub.lastCreate.Exercises[0].Sets)
}

func TestCreateWorkout_Handler_MissingTitle(t *testing.T) {
	router := newTestRouter(&stubWorkoutService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/workouts", gin.H{}, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decodeEnvelope(t, rec).Status)
}

func TestCreateWorkout_Handler_BadExerciseID(t *testing.T) {
	router := newTestRouter(&stubWorkoutService{})

	body := gin.H{
		"title":     "Bad ref",
		"exercises": []gin.H{{"exerciseId": "not-a-hex-id"}},
	}
	rec := doRequest(t, router, http.MethodPost, "/api/v1/workouts", body, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWorkout_Handler_NoToken(t *testing.T) {
	router := newTestRouter(&stubWorkoutService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/workouts", gin.H{"title": "x"}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListWorkouts_Handler_ParsesQuery(t *testing.T) {
	stub := &stubWorkoutService{page: &service.WorkoutPage{
		Workouts:     []domain.Workout{},
		Total:        0,
		Page:         2,
		Pages:        0,
		Limit:        10,
		StatusCounts: map[domain.WorkoutStatus]int64{},
	}}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/workouts?status=completed&type=strength&search=push&page=2&limit=10&sortBy=createdAt&sortOrder=asc&startDate=2025-06-01",
		nil, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusCompleted, stub.lastFilter.Status)
	assert.Equal(t, domain.TypeStrength, stub.lastFilter.Type)
	assert.Equal(t, "push", stub.lastFilter.Search)
	assert.Equal(t, 2, stub.lastFilter.Page)
	assert.Equal(t, 10, stub.lastFilter.Limit)
	assert.Equal(t, "createdAt", stub.lastFilter.SortBy)
	assert.Equal(t, "asc", stub.lastFilter.SortOrder)
	require.NotNil(t, stub.lastFilter.StartDate)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), stub.lastFilter.StartDate.UTC())
}

func TestListWorkouts_Handler_BadDate(t *testing.T) {
	router := newTestRouter(&stubWorkoutService{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/workouts?startDate=yesterday", nil, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWorkout_Handler_EmbedsCatalogDetails(t *testing.T) {
	exerciseID := primitive.NewObjectID()
	workout := &domain.Workout{
		ID:    primitive.NewObjectID(),
		Title: "Back day",
		Exercises: []domain.WorkoutExercise{
			{ExerciseID: &exerciseID, Name: "Pull-up", Sets: 3, Reps: 8},
			{Name: "Custom row", Sets: 3, Reps: 12},
		},
	}
	stub := &stubWorkoutService{detail: &service.WorkoutDetail{
		Workout: workout,
		Catalog: map[string]domain.Exercise{
			exerciseID.Hex(): {
				ID:          exerciseID,
				Name:        "Pull-up",
				MuscleGroup: "Back",
				ImageURL:    "https://s3.test/pullup.jpg",
			},
		},
	}}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/workouts/"+workout.ID.Hex(), nil, signTestToken(t, primitive.NewObjectID()))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data WorkoutDetailResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Exercises, 2)
	require.NotNil(t, resp.Data.Exercises[0].Details)
	assert.Equal(t, "Back", resp.Data.Exercises[0].Details.MuscleGroup)
	assert.Equal(t, "https://s3.test/pullup.jpg", resp.Data.Exercises[0].Details.ImageURL)
	assert.Nil(t, resp.Data.Exercises[1].Details)
}

func TestGetWorkout_Handler_NotFound(t *testing.T) {
	stub := &stubWorkoutService{err: service.ErrWorkoutNotFound}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/workouts/"+primitive.NewObjectID().Hex(), nil, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetWorkout_Handler_BadID(t *testing.T) {
	router := newTestRouter(&stubWorkoutService{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/workouts/nope", nil, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateWorkout_Handler_VersionConflict(t *testing.T) {
	stub := &stubWorkoutService{err: service.ErrVersionConflict}
	router := newTestRouter(stub)

	body := gin.H{"title": "Renamed", "version": 3}
	rec := doRequest(t, router, http.MethodPut, "/api/v1/workouts/"+primitive.NewObjectID().Hex(), body, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteWorkout_Handler(t *testing.T) {
	workout := &domain.Workout{ID: primitive.NewObjectID(), Status: domain.StatusCompleted}
	stub := &stubWorkoutService{workout: workout}
	router := newTestRouter(stub)

	body := gin.H{
		"duration": 42,
		"rating":   5,
		"exerciseResults": []gin.H{
			{"index": 0, "actualReps": 8, "feedback": "solid"},
		},
	}
	rec := doRequest(t, router, http.MethodPost, "/api/v1/workouts/"+workout.ID.Hex()+"/complete", body, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastComplete.Duration)
	assert.Equal(t, 42, *stub.lastComplete.Duration)
	require.Len(t, stub.lastComplete.ExerciseResults, 1)
	require.NotNil(t, stub.lastComplete.ExerciseResults[0].Index)
	assert.Equal(t, 0, *stub.lastComplete.ExerciseResults[0].Index)
	assert.Equal(t, "solid", stub.lastComplete.ExerciseResults[0].Feedback)
}

func TestCompleteWorkout_Handler_AlreadyCompleted(t *testing.T) {
	stub := &stubWorkoutService{err: service.ErrAlreadyCompleted}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/workouts/"+primitive.NewObjectID().Hex()+"/complete", gin.H{}, signTestToken(t, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
