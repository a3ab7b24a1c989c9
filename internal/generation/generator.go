package generation

import (
	"context"

	"github.com/pierre-chaville/lessons/internal/domain"
)

// Transcriber defines the interface for converting lesson audio into a
// timed transcript. This interface serves as a boundary between the
// application core and external speech-to-text engines, following the
// hexagonal architecture pattern.
type Transcriber interface {
	// Transcribe runs speech-to-text on the audio file at audioPath.
	// It returns the transcript segments, the metadata describing the
	// engine configuration used, or an error if transcription fails.
	Transcribe(ctx context.Context, audioPath string) ([]domain.Segment, *domain.TranscriptMetadata, error)
}

// Corrector defines the interface for correcting a batch of transcript
// segment texts with an LLM.
type Corrector interface {
	// CorrectSegments sends the given segment texts to the model for
	// correction and returns one corrected text per input, in order.
	// The returned slice always has len(texts) entries.
	CorrectSegments(ctx context.Context, texts []string) ([]string, error)

	// Metadata describes the provider and model configuration used for
	// correction requests.
	Metadata() domain.GenerationMetadata
}

// Editor defines the interface for rewriting transcript segments in a
// written style with source citations.
type Editor interface {
	// EditSegments rewrites the given segments as written-style parts.
	// Parts may merge several segments, so the result is usually
	// shorter than the input. The call is all-or-nothing: on error no
	// partial result is returned.
	EditSegments(ctx context.Context, segments []domain.Segment) ([]domain.EditedPart, error)

	// Metadata describes the provider, model and prompt used, for
	// storing alongside the edited transcript.
	Metadata() domain.GenerationMetadata
}

// Summarizer defines the interface for producing a lesson summary from
// a transcript with an LLM.
type Summarizer interface {
	// Summarize generates a summary of the transcript text using the
	// given prompt.
	Summarize(ctx context.Context, prompt, transcript string) (string, error)

	// Metadata describes the provider and model configuration used for
	// summary requests. The prompt field is filled in by the caller.
	Metadata() domain.GenerationMetadata
}
