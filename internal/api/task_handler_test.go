package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pierre-chaville/lessons/internal/api"
	"github.com/pierre-chaville/lessons/internal/store"
	"github.com/pierre-chaville/lessons/internal/task"
)

func newTaskRouter(svc *mockTaskService) http.Handler {
	h := api.NewTaskHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/tasks", h.CreateTask)
	r.Get("/api/tasks", h.ListTasks)
	r.Get("/api/tasks/{id}", h.GetTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postPut(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	svc := newMockTaskService()
	router := newTaskRouter(svc)

	lessonID := uuid.New()
	w := postJSON(t, router, "/api/tasks", api.CreateTaskRequest{
		TaskType:   "transcription",
		Parameters: map[string]any{"lesson_id": lessonID.String()},
	})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp api.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "transcription", resp.TaskType)
	assert.Equal(t, string(task.TaskStatusPending), resp.Status)
	assert.Equal(t, lessonID.String(), resp.Parameters["lesson_id"])
	assert.NotEmpty(t, resp.ID)
}

func TestCreateTaskUnknownType(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskService())

	w := postJSON(t, router, "/api/tasks", api.CreateTaskRequest{
		TaskType:   "translation",
		Parameters: map[string]any{"lesson_id": uuid.New().String()},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskMissingLessonID(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskService())

	w := postJSON(t, router, "/api/tasks", api.CreateTaskRequest{
		TaskType:   "summary",
		Parameters: map[string]any{"prompt_type": "short"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskService())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	svc := newMockTaskService()
	router := newTaskRouter(svc)

	created, err := svc.CreateTask(context.Background(), task.TaskTypeCorrection, map[string]any{"lesson_id": uuid.New().String()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, created.ID.String(), resp.ID)
	assert.Equal(t, "correction", resp.TaskType)
}

func TestGetTaskNotFound(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskService())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTaskMalformedID(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskService())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	svc := newMockTaskService()
	router := newTaskRouter(svc)

	for range 3 {
		_, err := svc.CreateTask(context.Background(), task.TaskTypeSummary, map[string]any{"lesson_id": uuid.New().String()})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []api.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp, 3)
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	svc := newMockTaskService()
	router := newTaskRouter(svc)

	created, err := svc.CreateTask(context.Background(), task.TaskTypeTranscription, map[string]any{"lesson_id": uuid.New().String()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/"+created.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.tasks)
}

func TestDeleteTaskRunning(t *testing.T) {
	t.Parallel()

	svc := newMockTaskService()
	svc.deleteErr = store.ErrTaskRunning
	router := newTaskRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
