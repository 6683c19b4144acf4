package api

import (
	"net/http"
	"time"

	"techtrainer/backend/internal/domain"
	"techtrainer/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs ---

// ExerciseUpsertRequest defines the expected JSON for creating or
// updating a catalog exercise.
type ExerciseUpsertRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MuscleGroup string `json:"muscleGroup" binding:"omitempty"`
	Difficulty  string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Type        string `json:"type" binding:"omitempty"`
}

// ImageUploadRequest asks for a presigned upload URL for an exercise image.
type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ImageUploadResponse carries the presigned PUT handshake.
type ImageUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ExerciseResponse is the DTO for returning catalog exercise details.
type ExerciseResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	MuscleGroup string             `json:"muscleGroup,omitempty"`
	Difficulty  domain.Difficulty  `json:"difficulty,omitempty"`
	Type        domain.WorkoutType `json:"type,omitempty"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:          ex.ID.Hex(),
		Name:        ex.Name,
		Description: ex.Description,
		MuscleGroup: ex.MuscleGroup,
		Difficulty:  ex.Difficulty,
		Type:        ex.Type,
		ImageURL:    ex.ImageURL,
		CreatedAt:   ex.CreatedAt,
		UpdatedAt:   ex.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateExercise handles POST /exercises.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req ExerciseUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.CreateExercise(
		c.Request.Context(),
		req.Name,
		req.Description,
		req.MuscleGroup,
		domain.Difficulty(req.Difficulty),
		domain.WorkoutType(req.Type),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, MapExerciseToResponse(exercise), "Exercise created")
}

// ListExercises handles GET /exercises.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.exerciseService.ListExercises(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapExercisesToResponse(exercises), "")
}

// GetExercise handles GET /exercises/:id.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := parseExerciseID(c)
	if !ok {
		return
	}
	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapExerciseToResponse(exercise), "")
}

// UpdateExercise handles PUT /exercises/:id.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := parseExerciseID(c)
	if !ok {
		return
	}
	var req ExerciseUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(
		c.Request.Context(),
		exerciseID,
		req.Name,
		req.Description,
		req.MuscleGroup,
		domain.Difficulty(req.Difficulty),
		domain.WorkoutType(req.Type),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapExerciseToResponse(exercise), "Exercise updated")
}

// DeleteExercise handles DELETE /exercises/:id.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, ok := parseExerciseID(c)
	if !ok {
		return
	}
	if err := h.exerciseService.DeleteExercise(c.Request.Context(), exerciseID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, nil, "Exercise deleted")
}

// RequestImageUpload handles POST /exercises/:id/image.
func (h *ExerciseHandler) RequestImageUpload(c *gin.Context) {
	exerciseID, ok := parseExerciseID(c)
	if !ok {
		return
	}
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	upload, err := h.exerciseService.RequestImageUpload(c.Request.Context(), exerciseID, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, ImageUploadResponse{
		UploadURL: upload.UploadURL,
		ObjectKey: upload.ObjectKey,
	}, "Upload URL issued")
}

func parseExerciseID(c *gin.Context) (primitive.ObjectID, bool) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return primitive.NilObjectID, false
	}
	return exerciseID, true
}
