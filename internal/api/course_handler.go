package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pierre-chaville/lessons/internal/api/shared"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/service"
)

// CourseRequest represents the request body for creating or updating a course.
type CourseRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
}

// CourseResponse represents the response data for a course.
type CourseResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseHandler handles course-related HTTP requests.
type CourseHandler struct {
	courseService service.CourseService
	validator     *validator.Validate
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		validator:     validator.New(),
	}
}

// CreateCourse handles POST /api/courses requests.
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	course, err := domain.NewCourse(req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.courseService.CreateCourse(r.Context(), course); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, courseToResponse(course))
}

// ListCourses handles GET /api/courses requests.
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		responses = append(responses, courseToResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetCourse handles GET /api/courses/{id} requests.
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}

// UpdateCourse handles PUT /api/courses/{id} requests.
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req CourseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	course.Name = req.Name
	course.Description = req.Description
	if err := h.courseService.UpdateCourse(r.Context(), course); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}

// DeleteCourse handles DELETE /api/courses/{id} requests. Lessons in
// the course are kept and detached.
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func courseToResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
