package api

import (
	"net/http"
	"strconv"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/repository"
	"techtrainer/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

// ExerciseRequest is one planned exercise as sent by the client.
type ExerciseRequest struct {
	ExerciseID string `json:"exerciseId"`
	Name       string `json:"name"`
	Sets       *int   `json:"sets"`
	Reps       *int   `json:"reps"`
	Duration   *int   `json:"duration"` // seconds
	RestTime   *int   `json:"restTime"` // seconds
	Notes      string `json:"notes"`
}

// CreateWorkoutRequest defines the expected JSON for creating a workout.
type CreateWorkoutRequest struct {
	Title             string            `json:"title" binding:"required"`
	Description       string            `json:"description"`
	Notes             string            `json:"notes"`
	Exercises         []ExerciseRequest `json:"exercises"`
	Type              string            `json:"type"`
	Difficulty        string            `json:"difficulty"`
	EstimatedDuration *int              `json:"estimatedDuration"`
	ScheduledFor      *time.Time        `json:"scheduledFor"`
}

// UpdateWorkoutRequest is a partial update; absent fields stay unchanged.
type UpdateWorkoutRequest struct {
	Title             *string            `json:"title"`
	Description       *string            `json:"description"`
	Notes             *string            `json:"notes"`
	Exercises         *[]ExerciseRequest `json:"exercises"`
	Type              *string            `json:"type"`
	Difficulty        *string            `json:"difficulty"`
	EstimatedDuration *int               `json:"estimatedDuration"`
	ScheduledFor      *time.Time         `json:"scheduledFor"`
	Status            *string            `json:"status"`
	Version           *int64             `json:"version"`
}

// ExerciseResultRequest reports one exercise's actual performance.
type ExerciseResultRequest struct {
	Index          *int     `json:"index"`
	ExerciseID     string   `json:"exerciseId"`
	ActualSets     *int     `json:"actualSets"`
	ActualReps     *int     `json:"actualReps"`
	ActualWeight   *float64 `json:"actualWeight"`
	ActualDuration *int     `json:"actualDuration"` // seconds
	Feedback       string   `json:"feedback"`
}

// CompleteWorkoutRequest defines the completion payload.
type CompleteWorkoutRequest struct {
	Duration        *int                    `json:"duration"` // minutes
	CaloriesBurned  *int                    `json:"caloriesBurned"`
	ExerciseResults []ExerciseResultRequest `json:"exerciseResults"`
	Notes           string                  `json:"notes"`
	Rating          *int                    `json:"rating"`
	Version         *int64                  `json:"version"`
}

// PaginationResponse describes one page of a listing.
type PaginationResponse struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// WorkoutListResponse is the data payload of the list endpoint.
type WorkoutListResponse struct {
	Workouts   []domain.Workout   `json:"workouts"`
	Pagination PaginationResponse `json:"pagination"`
	Filters    FiltersResponse    `json:"filters"`
}

type FiltersResponse struct {
	StatusCounts map[domain.WorkoutStatus]int64 `json:"statusCounts"`
}

// ExerciseDetails is the catalog enrichment attached to a workout entry
// whose exerciseId resolves.
type ExerciseDetails struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	MuscleGroup string             `json:"muscleGroup,omitempty"`
	Difficulty  domain.Difficulty  `json:"difficulty,omitempty"`
	Type        domain.WorkoutType `json:"type,omitempty"`
}

// EnrichedExercise is a workout entry plus its catalog details.
type EnrichedExercise struct {
	domain.WorkoutExercise
	Details *ExerciseDetails `json:"details,omitempty"`
}

// WorkoutDetailResponse is the data payload of the get endpoint.
type WorkoutDetailResponse struct {
	domain.Workout
	Exercises []EnrichedExercise `json:"exercises"`
}

// --- mapping helpers ---

func toExerciseInputs(reqs []ExerciseRequest) ([]service.ExerciseInput, bool) {
	inputs := make([]service.ExerciseInput, 0, len(reqs))
	for _, req := range reqs {
		input := service.ExerciseInput{
			Name:     req.Name,
			Sets:     req.Sets,
			Reps:     req.Reps,
			Duration: req.Duration,
			RestTime: req.RestTime,
			Notes:    req.Notes,
		}
		if req.ExerciseID != "" {
			id, err := primitive.ObjectIDFromHex(req.ExerciseID)
			if err != nil {
				return nil, false
			}
			input.ExerciseID = &id
		}
		inputs = append(inputs, input)
	}
	return inputs, true
}

func mapWorkoutDetail(detail *service.WorkoutDetail) WorkoutDetailResponse {
	enriched := make([]EnrichedExercise, 0, len(detail.Workout.Exercises))
	for _, ex := range detail.Workout.Exercises {
		entry := EnrichedExercise{WorkoutExercise: ex}
		if ex.ExerciseID != nil {
			if catalogEx, ok := detail.Catalog[ex.ExerciseID.Hex()]; ok {
				entry.Details = &ExerciseDetails{
					Name:        catalogEx.Name,
					Description: catalogEx.Description,
					ImageURL:    catalogEx.ImageURL,
					MuscleGroup: catalogEx.MuscleGroup,
					Difficulty:  catalogEx.Difficulty,
					Type:        catalogEx.Type,
				}
			}
		}
		enriched = append(enriched, entry)
	}
	return WorkoutDetailResponse{Workout: *detail.Workout, Exercises: enriched}
}

// parseDate accepts RFC3339 timestamps or plain dates.
func parseDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, true
	}
	return nil, false
}

// --- Handler Methods ---

// CreateWorkout handles POST /workouts.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	exercises, ok := toExerciseInputs(req.Exercises)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), userID, service.CreateWorkoutInput{
		Title:             req.Title,
		Description:       req.Description,
		Notes:             req.Notes,
		Exercises:         exercises,
		Type:              domain.WorkoutType(req.Type),
		Difficulty:        domain.Difficulty(req.Difficulty),
		EstimatedDuration: req.EstimatedDuration,
		ScheduledFor:      req.ScheduledFor,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, workout, "Workout created")
}

// ListWorkouts handles GET /workouts with filter/sort/pagination query
// parameters.
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	startDate, ok := parseDate(c.Query("startDate"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid startDate format")
		return
	}
	endDate, ok := parseDate(c.Query("endDate"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid endDate format")
		return
	}

	filter := repository.WorkoutFilter{
		Status:     domain.WorkoutStatus(c.Query("status")),
		Type:       domain.WorkoutType(c.Query("type")),
		Difficulty: domain.Difficulty(c.Query("difficulty")),
		Search:     c.Query("search"),
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
		Limit:      limit,
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	pageResult, err := h.workoutService.ListWorkouts(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, WorkoutListResponse{
		Workouts: pageResult.Workouts,
		Pagination: PaginationResponse{
			Total: pageResult.Total,
			Page:  pageResult.Page,
			Pages: pageResult.Pages,
			Limit: pageResult.Limit,
		},
		Filters: FiltersResponse{StatusCounts: pageResult.StatusCounts},
	}, "")
}

// GetWorkout handles GET /workouts/:id, embedding catalog details for
// resolvable exercise references.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, workoutID, ok := h.identify(c)
	if !ok {
		return
	}
	detail, err := h.workoutService.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, mapWorkoutDetail(detail), "")
}

// UpdateWorkout handles PUT /workouts/:id.
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	userID, workoutID, ok := h.identify(c)
	if !ok {
		return
	}
	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.UpdateWorkoutInput{
		Title:             req.Title,
		Description:       req.Description,
		Notes:             req.Notes,
		EstimatedDuration: req.EstimatedDuration,
		ScheduledFor:      req.ScheduledFor,
		Version:           req.Version,
	}
	if req.Exercises != nil {
		exercises, ok := toExerciseInputs(*req.Exercises)
		if !ok {
			respondError(c, http.StatusBadRequest, "Invalid exercise ID format")
			return
		}
		input.Exercises = &exercises
	}
	if req.Type != nil {
		t := domain.WorkoutType(*req.Type)
		input.Type = &t
	}
	if req.Difficulty != nil {
		d := domain.Difficulty(*req.Difficulty)
		input.Difficulty = &d
	}
	if req.Status != nil {
		s := domain.WorkoutStatus(*req.Status)
		input.Status = &s
	}

	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), userID, workoutID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, workout, "Workout updated")
}

// StartWorkout handles POST /workouts/:id/start.
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	userID, workoutID, ok := h.identify(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.StartWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, workout, "Workout started")
}

// CompleteWorkout handles POST /workouts/:id/complete.
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	userID, workoutID, ok := h.identify(c)
	if !ok {
		return
	}
	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	results := make([]service.ExerciseResult, 0, len(req.ExerciseResults))
	for _, r := range req.ExerciseResults {
		result := service.ExerciseResult{
			Index:          r.Index,
			ActualSets:     r.ActualSets,
			ActualReps:     r.ActualReps,
			ActualWeight:   r.ActualWeight,
			ActualDuration: r.ActualDuration,
			Feedback:       r.Feedback,
		}
		if r.ExerciseID != "" {
			id, err := primitive.ObjectIDFromHex(r.ExerciseID)
			if err != nil {
				respondError(c, http.StatusBadRequest, "Invalid exercise ID format in results")
				return
			}
			result.ExerciseID = &id
		}
		results = append(results, result)
	}

	workout, err := h.workoutService.CompleteWorkout(c.Request.Context(), userID, workoutID, service.CompleteWorkoutInput{
		Duration:        req.Duration,
		CaloriesBurned:  req.CaloriesBurned,
		ExerciseResults: results,
		Notes:           req.Notes,
		Rating:          req.Rating,
		Version:         req.Version,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, workout, "Workout completed")
}

// CancelWorkout handles POST /workouts/:id/cancel.
func (h *WorkoutHandler) CancelWorkout(c *gin.Context) {
	userID, workoutID, ok := h.identify(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.CancelWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, workout, "Workout cancelled")
}

// DeleteWorkout handles DELETE /workouts/:id.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, workoutID, ok := h.identify(c)
	if !ok {
		return
	}
	if err := h.workoutService.DeleteWorkout(c.Request.Context(), userID, workoutID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, nil, "Workout deleted")
}

// identify extracts the authenticated user ID and the :id path parameter.
func (h *WorkoutHandler) identify(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid workout ID format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, workoutID, true
}
