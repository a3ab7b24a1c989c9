package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pierre-chaville/lessons/internal/api/shared"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/service"
)

// ThemeRequest represents the request body for creating or updating a theme.
type ThemeRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

// ThemeResponse represents the response data for a theme.
type ThemeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThemeHandler handles theme-related HTTP requests.
type ThemeHandler struct {
	themeService service.ThemeService
	validator    *validator.Validate
}

// NewThemeHandler creates a new ThemeHandler.
func NewThemeHandler(themeService service.ThemeService) *ThemeHandler {
	return &ThemeHandler{
		themeService: themeService,
		validator:    validator.New(),
	}
}

// CreateTheme handles POST /api/themes requests.
func (h *ThemeHandler) CreateTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	theme, err := domain.NewTheme(req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.themeService.CreateTheme(r.Context(), theme); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, themeToResponse(theme))
}

// ListThemes handles GET /api/themes requests.
func (h *ThemeHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.themeService.ListThemes(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]ThemeResponse, 0, len(themes))
	for _, t := range themes {
		responses = append(responses, themeToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetTheme handles GET /api/themes/{id} requests.
func (h *ThemeHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	theme, err := h.themeService.GetTheme(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, themeToResponse(theme))
}

// UpdateTheme handles PUT /api/themes/{id} requests.
func (h *ThemeHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req ThemeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	theme, err := h.themeService.GetTheme(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	theme.Name = req.Name
	if err := h.themeService.UpdateTheme(r.Context(), theme); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, themeToResponse(theme))
}

// DeleteTheme handles DELETE /api/themes/{id} requests. Links to
// lessons are removed with the theme.
func (h *ThemeHandler) DeleteTheme(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.themeService.DeleteTheme(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func themeToResponse(t *domain.Theme) ThemeResponse {
	return ThemeResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
