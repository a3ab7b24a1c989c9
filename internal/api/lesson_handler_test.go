package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pierre-chaville/lessons/internal/api"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/search"
	"github.com/pierre-chaville/lessons/internal/service"
)

func newLessonRouter(svc *mockLessonService) http.Handler {
	h := api.NewLessonHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/lessons", h.CreateLesson)
	r.Get("/api/lessons", h.ListLessons)
	r.Get("/api/lessons/{id}", h.GetLesson)
	r.Put("/api/lessons/{id}", h.UpdateLesson)
	r.Delete("/api/lessons/{id}", h.DeleteLesson)
	r.Get("/api/lessons/{id}/audio", h.GetAudio)
	r.Put("/api/lessons/{id}/audio", h.UploadAudio)
	r.Get("/api/lessons/{id}/search", h.SearchLesson)
	return r
}

func seedLesson(t *testing.T, svc *mockLessonService) *domain.Lesson {
	t.Helper()

	lesson, err := domain.NewLesson("Greek mythology", "mythology.mp3")
	require.NoError(t, err)
	svc.lessons[lesson.ID] = lesson
	return lesson
}

func TestCreateLesson(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)

	courseID := uuid.New().String()
	themeID := uuid.New().String()
	w := postJSON(t, router, "/api/lessons", map[string]any{
		"title":     "Roman history",
		"filename":  "rome.mp3",
		"course_id": courseID,
		"theme_ids": []string{themeID},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.LessonResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Roman history", resp.Title)
	assert.Equal(t, "rome.mp3", resp.Filename)
	require.NotNil(t, resp.CourseID)
	assert.Equal(t, courseID, *resp.CourseID)
	assert.Equal(t, []string{themeID}, resp.ThemeIDs)
	assert.Len(t, svc.lessons, 1)
}

func TestCreateLessonMissingTitle(t *testing.T) {
	t.Parallel()

	router := newLessonRouter(newMockLessonService())

	w := postJSON(t, router, "/api/lessons", map[string]any{"filename": "rome.mp3"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLessonBadCourseID(t *testing.T) {
	t.Parallel()

	router := newLessonRouter(newMockLessonService())

	w := postJSON(t, router, "/api/lessons", map[string]any{
		"title":     "Roman history",
		"filename":  "rome.mp3",
		"course_id": "not-a-uuid",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLesson(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.LessonResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, lesson.ID.String(), resp.ID)
	assert.Equal(t, "Greek mythology", resp.Title)
}

func TestGetLessonNotFound(t *testing.T) {
	t.Parallel()

	router := newLessonRouter(newMockLessonService())

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLessonsByCourse(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)

	courseID := uuid.New()
	inCourse := seedLesson(t, svc)
	inCourse.CourseID = &courseID
	seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/lessons?course_id="+courseID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []api.LessonListItem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, inCourse.ID.String(), resp[0].ID)
}

func TestListLessonsOmitsTranscriptBodies(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)

	lesson := seedLesson(t, svc)
	lesson.Transcript = []domain.Segment{{Start: 0, End: 2, Text: "hello"}}
	lesson.EditedTranscript = []domain.EditedPart{{Start: 0, End: 2, Text: "Hello."}}
	lesson.Summary = "A short greeting."

	req := httptest.NewRequest(http.MethodGet, "/api/lessons", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// has_transcript is a legitimate field; only the bare transcript
	// keys must be absent.
	assert.NotContains(t, w.Body.String(), `"transcript":`)
	assert.NotContains(t, w.Body.String(), `"corrected_transcript":`)
	assert.NotContains(t, w.Body.String(), `"edited_transcript":`)

	var resp []api.LessonListItem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.True(t, resp[0].HasTranscript)
	assert.False(t, resp[0].HasCorrected)
	assert.True(t, resp[0].HasEdited)
	assert.True(t, resp[0].HasSummary)
}

func TestUpdateLesson(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	payload, err := json.Marshal(map[string]any{"title": "Norse mythology"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/lessons/"+lesson.ID.String(), bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Norse mythology", svc.lessons[lesson.ID].Title)
}

func TestDeleteLesson(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/lessons/"+lesson.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.lessons)
}

func TestGetAudio(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	audioPath := filepath.Join(t.TempDir(), "mythology.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake audio bytes"), 0o640))
	svc.audioPath = audioPath

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String()+"/audio", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fake audio bytes", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Accept-Ranges"))
}

func TestGetAudioRangeRequest(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	audioPath := filepath.Join(t.TempDir(), "mythology.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("0123456789"), 0o640))
	svc.audioPath = audioPath

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String()+"/audio", nil)
	req.Header.Set("Range", "bytes=2-5")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "2345", w.Body.String())
}

func TestGetAudioMissingFile(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)
	svc.audioPath = filepath.Join(t.TempDir(), "missing.mp3")

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String()+"/audio", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadAudio(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/lessons/"+lesson.ID.String()+"/audio", bytes.NewReader([]byte("new audio")))
	req.Header.Set("X-Filename", "replacement.mp3")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "replacement.mp3", svc.savedFilename)
	assert.Equal(t, []byte("new audio"), svc.savedContent)
}

func TestUploadAudioMissingFilename(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/lessons/"+lesson.ID.String()+"/audio", bytes.NewReader([]byte("new audio")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAudioEmptyBody(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/lessons/"+lesson.ID.String()+"/audio", bytes.NewReader(nil))
	req.Header.Set("X-Filename", "replacement.mp3")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchLesson(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)
	svc.matches = []search.Match{
		{Start: 1.5, End: 4.0, Text: "the cat sat", Score: 100, Exact: true},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String()+"/search?q=the+cat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var matches []search.Match
	require.NoError(t, json.NewDecoder(w.Body).Decode(&matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "the cat sat", matches[0].Text)
	assert.True(t, matches[0].Exact)
}

func TestSearchLessonNoMatches(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String()+"/search?q=unrelated", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSearchLessonEmptyQuery(t *testing.T) {
	t.Parallel()

	svc := newMockLessonService()
	svc.searchErr = service.ErrEmptyQuery
	router := newLessonRouter(svc)
	lesson := seedLesson(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/lessons/"+lesson.ID.String()+"/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
