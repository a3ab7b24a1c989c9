package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierre-chaville/lessons/internal/generation"
	"github.com/pierre-chaville/lessons/internal/store"
)

// TranscriptionHandler runs speech-to-text over a lesson's audio file
// and stores the resulting transcript on the lesson.
type TranscriptionHandler struct {
	lessons     store.LessonStore
	transcriber generation.Transcriber
	audioDir    string
}

// NewTranscriptionHandler creates a handler reading audio files from
// audioDir. Audio files are stored as "{lesson_id}_{filename}".
func NewTranscriptionHandler(lessons store.LessonStore, transcriber generation.Transcriber, audioDir string) *TranscriptionHandler {
	return &TranscriptionHandler{
		lessons:     lessons,
		transcriber: transcriber,
		audioDir:    audioDir,
	}
}

// Type implements Handler.
func (h *TranscriptionHandler) Type() TaskType { return TaskTypeTranscription }

// Handle implements Handler. It transcribes the lesson's audio file,
// then writes the transcript, its metadata, and the audio duration
// (end of the last segment) back to the lesson in one update.
func (h *TranscriptionHandler) Handle(ctx context.Context, t *Task) (string, error) {
	lessonID, err := t.LessonID()
	if err != nil {
		return "", err
	}

	lesson, err := h.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return "", fmt.Errorf("failed to load lesson %s: %w", lessonID, err)
	}

	audioPath := filepath.Join(h.audioDir, fmt.Sprintf("%s_%s", lesson.ID, lesson.Filename))
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found at %s: %w", audioPath, err)
	}

	segments, metadata, err := h.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	lesson.Transcript = segments
	lesson.TranscriptMetadata = metadata
	if len(segments) > 0 {
		lesson.Duration = segments[len(segments)-1].End
	}

	if err := h.lessons.Update(ctx, lesson); err != nil {
		return "", fmt.Errorf("failed to store transcript: %w", err)
	}

	return fmt.Sprintf("transcribed %d segments", len(segments)), nil
}
