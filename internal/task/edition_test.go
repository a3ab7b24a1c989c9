package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/task"
)

func TestEditionHandler(t *testing.T) {
	t.Parallel()

	lesson := newLesson(t)
	lesson.Transcript = []domain.Segment{
		{Start: 0, End: 5, Text: "premier segment"},
		{Start: 5, End: 10, Text: "deuxième segment"},
		{Start: 10, End: 15, Text: "troisième segment"},
	}
	lessons := newMockLessonStore(lesson)
	editor := &fakeEditor{}

	h := task.NewEditionHandler(lessons, editor, noRetry())
	assert.Equal(t, task.TaskTypeEdition, h.Type())

	tk, err := task.NewTask(task.TaskTypeEdition, params(lesson.ID, map[string]any{
		"segments_per_group": 2,
		"max_concurrency":    1,
	}))
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), tk)
	require.NoError(t, err)
	assert.Equal(t, "edited 3 segments into 2 parts", result)
	assert.Equal(t, 2, editor.calls)

	stored := lessons.get(lesson.ID)
	require.Len(t, stored.EditedTranscript, 2)
	// Groups merge back in transcript order regardless of completion order.
	assert.Equal(t, "edited: premier segment deuxième segment", stored.EditedTranscript[0].Text)
	assert.Equal(t, 0.0, stored.EditedTranscript[0].Start)
	assert.Equal(t, "edited: troisième segment", stored.EditedTranscript[1].Text)
	assert.Equal(t, 15.0, stored.EditedTranscript[1].End)
	require.Len(t, stored.EditedTranscript[0].Sources, 1)
	assert.Equal(t, "Montaigne", stored.EditedTranscript[0].Sources[0].Author)
	require.NotNil(t, stored.EditionMetadata)
	assert.Equal(t, "editor-1", stored.EditionMetadata.Model)
}

func TestEditionHandlerPrefersCorrectedTranscript(t *testing.T) {
	t.Parallel()

	lesson := newLesson(t)
	lesson.Transcript = []domain.Segment{{Start: 0, End: 5, Text: "teh raw text"}}
	lesson.CorrectedTranscript = []domain.Segment{{Start: 0, End: 5, Text: "the raw text"}}
	lessons := newMockLessonStore(lesson)
	editor := &fakeEditor{}

	h := task.NewEditionHandler(lessons, editor, noRetry())
	tk, err := task.NewTask(task.TaskTypeEdition, params(lesson.ID, nil))
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), tk)
	require.NoError(t, err)

	stored := lessons.get(lesson.ID)
	require.Len(t, stored.EditedTranscript, 1)
	assert.Equal(t, "edited: the raw text", stored.EditedTranscript[0].Text)
}

func TestEditionHandlerNoTranscript(t *testing.T) {
	t.Parallel()

	lesson := newLesson(t)
	lessons := newMockLessonStore(lesson)
	h := task.NewEditionHandler(lessons, &fakeEditor{}, noRetry())

	tk, err := task.NewTask(task.TaskTypeEdition, params(lesson.ID, nil))
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), tk)
	require.ErrorIs(t, err, domain.ErrNoTranscript)
}

func TestEditionHandlerProviderFailureKeepsOriginal(t *testing.T) {
	t.Parallel()

	lesson := newLesson(t)
	lesson.Transcript = []domain.Segment{
		{Start: 0, End: 5, Text: "premier segment"},
		{Start: 5, End: 10, Text: "deuxième segment"},
	}
	lessons := newMockLessonStore(lesson)

	h := task.NewEditionHandler(lessons, &fakeEditor{err: errors.New("auth failed")}, noRetry())
	tk, err := task.NewTask(task.TaskTypeEdition, params(lesson.ID, nil))
	require.NoError(t, err)

	// A failed group degrades to one part with the original text joined.
	result, err := h.Handle(context.Background(), tk)
	require.NoError(t, err)
	assert.Equal(t, "edited 2 segments into 1 parts", result)

	stored := lessons.get(lesson.ID)
	require.Len(t, stored.EditedTranscript, 1)
	assert.Equal(t, "premier segment deuxième segment", stored.EditedTranscript[0].Text)
	assert.Equal(t, 0.0, stored.EditedTranscript[0].Start)
	assert.Equal(t, 10.0, stored.EditedTranscript[0].End)
	assert.Empty(t, stored.EditedTranscript[0].Sources)
}
