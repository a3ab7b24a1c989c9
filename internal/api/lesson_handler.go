package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/api/shared"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/search"
	"github.com/pierre-chaville/lessons/internal/service"
)

// maxAudioUploadBytes caps audio uploads at 500 MB.
const maxAudioUploadBytes = 500 << 20

// CreateLessonRequest represents the request body for creating a lesson.
type CreateLessonRequest struct {
	Title    string     `json:"title" validate:"required,min=1"`
	Filename string     `json:"filename" validate:"required,min=1"`
	Date     *time.Time `json:"date"`
	CourseID *string    `json:"course_id"`
	ThemeIDs []string   `json:"theme_ids"`
}

// UpdateLessonRequest represents the request body for updating a lesson.
// Transcript fields are managed by background tasks and not editable here.
type UpdateLessonRequest struct {
	Title    string     `json:"title" validate:"required,min=1"`
	Date     *time.Time `json:"date"`
	CourseID *string    `json:"course_id"`
	ThemeIDs []string   `json:"theme_ids"`
}

// LessonResponse represents the full response data for a lesson.
type LessonResponse struct {
	ID                  string                     `json:"id"`
	Title               string                     `json:"title"`
	Filename            string                     `json:"filename"`
	Date                time.Time                  `json:"date"`
	Duration            float64                    `json:"duration"`
	CourseID            *string                    `json:"course_id,omitempty"`
	ThemeIDs            []string                   `json:"theme_ids,omitempty"`
	Transcript          []domain.Segment           `json:"transcript,omitempty"`
	CorrectedTranscript []domain.Segment           `json:"corrected_transcript,omitempty"`
	EditedTranscript    []domain.EditedPart        `json:"edited_transcript,omitempty"`
	Summary             string                     `json:"summary,omitempty"`
	TranscriptMetadata  *domain.TranscriptMetadata `json:"transcript_metadata,omitempty"`
	CorrectionMetadata  *domain.GenerationMetadata `json:"correction_metadata,omitempty"`
	EditionMetadata     *domain.GenerationMetadata `json:"edition_metadata,omitempty"`
	SummaryMetadata     *domain.GenerationMetadata `json:"summary_metadata,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// LessonListItem is the list view of a lesson. Transcript bodies can
// run to megabytes, so listings carry presence flags instead.
type LessonListItem struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Filename      string    `json:"filename"`
	Date          time.Time `json:"date"`
	Duration      float64   `json:"duration"`
	CourseID      *string   `json:"course_id,omitempty"`
	ThemeIDs      []string  `json:"theme_ids,omitempty"`
	HasTranscript bool      `json:"has_transcript"`
	HasCorrected  bool      `json:"has_corrected"`
	HasEdited     bool      `json:"has_edited"`
	HasSummary    bool      `json:"has_summary"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LessonHandler handles lesson-related HTTP requests.
type LessonHandler struct {
	lessonService service.LessonService
	validator     *validator.Validate
}

// NewLessonHandler creates a new LessonHandler.
func NewLessonHandler(lessonService service.LessonService) *LessonHandler {
	return &LessonHandler{
		lessonService: lessonService,
		validator:     validator.New(),
	}
}

// CreateLesson handles POST /api/lessons requests.
func (h *LessonHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req CreateLessonRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	lesson, err := domain.NewLesson(req.Title, req.Filename)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if req.Date != nil {
		lesson.Date = *req.Date
	}
	if err := applyLessonRefs(lesson, req.CourseID, req.ThemeIDs); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.lessonService.CreateLesson(r.Context(), lesson); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, lessonToResponse(lesson))
}

// ListLessons handles GET /api/lessons requests. An optional course_id
// query parameter filters by course.
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	courseID, err := getQueryUUID(r, "course_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lessons, err := h.lessonService.ListLessons(r.Context(), courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]LessonListItem, 0, len(lessons))
	for _, l := range lessons {
		responses = append(responses, lessonToListItem(l))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetLesson handles GET /api/lessons/{id} requests.
func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lesson, err := h.lessonService.GetLesson(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lessonToResponse(lesson))
}

// UpdateLesson handles PUT /api/lessons/{id} requests.
func (h *LessonHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateLessonRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	lesson, err := h.lessonService.GetLesson(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lesson.Title = req.Title
	if req.Date != nil {
		lesson.Date = *req.Date
	}
	lesson.CourseID = nil
	lesson.ThemeIDs = nil
	if err := applyLessonRefs(lesson, req.CourseID, req.ThemeIDs); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.lessonService.UpdateLesson(r.Context(), lesson); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lessonToResponse(lesson))
}

// DeleteLesson handles DELETE /api/lessons/{id} requests.
func (h *LessonHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.lessonService.DeleteLesson(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAudio handles GET /api/lessons/{id}/audio requests. The file is
// served with http.ServeContent so Range requests work for seeking.
func (h *LessonHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	audioPath, err := h.lessonService.AudioPath(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	f, err := os.Open(audioPath)
	if err != nil {
		HandleAPIError(w, r, service.ErrAudioNotFound, "")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// UploadAudio handles PUT /api/lessons/{id}/audio requests. The body
// is the raw audio file; the filename comes from the X-Filename header.
func (h *LessonHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	filename := r.Header.Get("X-Filename")
	if filename == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "X-Filename header is required")
		return
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioUploadBytes))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Audio file too large")
		return
	}
	if len(content) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Audio file is empty")
		return
	}

	if err := h.lessonService.SaveAudio(r.Context(), id, filename, content); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchLesson handles GET /api/lessons/{id}/search?q=... requests.
func (h *LessonHandler) SearchLesson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	matches, err := h.lessonService.Search(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if matches == nil {
		matches = []search.Match{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, matches)
}

func applyLessonRefs(lesson *domain.Lesson, courseID *string, themeIDs []string) error {
	if courseID != nil && *courseID != "" {
		id, err := uuid.Parse(*courseID)
		if err != nil {
			return fmt.Errorf("%w: course_id has invalid format", domain.ErrInvalidID)
		}
		lesson.CourseID = &id
	}
	for _, raw := range themeIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: theme_ids has invalid format", domain.ErrInvalidID)
		}
		lesson.ThemeIDs = append(lesson.ThemeIDs, id)
	}
	return nil
}

func lessonToResponse(l *domain.Lesson) LessonResponse {
	resp := LessonResponse{
		ID:                  l.ID.String(),
		Title:               l.Title,
		Filename:            l.Filename,
		Date:                l.Date,
		Duration:            l.Duration,
		Transcript:          l.Transcript,
		CorrectedTranscript: l.CorrectedTranscript,
		EditedTranscript:    l.EditedTranscript,
		Summary:             l.Summary,
		TranscriptMetadata:  l.TranscriptMetadata,
		CorrectionMetadata:  l.CorrectionMetadata,
		EditionMetadata:     l.EditionMetadata,
		SummaryMetadata:     l.SummaryMetadata,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
	if l.CourseID != nil {
		s := l.CourseID.String()
		resp.CourseID = &s
	}
	for _, id := range l.ThemeIDs {
		resp.ThemeIDs = append(resp.ThemeIDs, id.String())
	}
	return resp
}

func lessonToListItem(l *domain.Lesson) LessonListItem {
	item := LessonListItem{
		ID:            l.ID.String(),
		Title:         l.Title,
		Filename:      l.Filename,
		Date:          l.Date,
		Duration:      l.Duration,
		// Listings load generation metadata but not transcript bodies,
		// so presence checks consult both.
		HasTranscript: len(l.Transcript) > 0 || l.TranscriptMetadata != nil,
		HasCorrected:  len(l.CorrectedTranscript) > 0 || l.CorrectionMetadata != nil,
		HasEdited:     len(l.EditedTranscript) > 0 || l.EditionMetadata != nil,
		HasSummary:    l.Summary != "",
		UpdatedAt:     l.UpdatedAt,
	}
	if l.CourseID != nil {
		s := l.CourseID.String()
		item.CourseID = &s
	}
	for _, id := range l.ThemeIDs {
		item.ThemeIDs = append(item.ThemeIDs, id.String())
	}
	return item
}
