// Package whisper runs a Whisper command line tool to transcribe
// lesson audio into timed segments.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
)

// commandRunner executes the transcription command. Tests substitute a
// fake that writes the JSON output file.
type commandRunner func(ctx context.Context, name string, args ...string) error

// Transcriber shells out to a Whisper binary and parses the JSON
// transcript it writes. It implements generation.Transcriber.
type Transcriber struct {
	whisper    config.WhisperConfig
	transcribe config.TranscribeConfig
	logger     *slog.Logger
	run        commandRunner
}

// NewTranscriber creates a Transcriber with the given engine and
// transcription settings.
func NewTranscriber(whisper config.WhisperConfig, transcribe config.TranscribeConfig, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		whisper:    whisper,
		transcribe: transcribe,
		logger:     logger.With(slog.String("component", "whisper_transcriber")),
		run:        runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type whisperOutput struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Language string `json:"language"`
}

// Transcribe runs the Whisper binary on the audio file and returns the
// parsed segments together with the engine configuration used.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) ([]domain.Segment, *domain.TranscriptMetadata, error) {
	if audioPath == "" {
		return nil, nil, fmt.Errorf("%w: audio path required", generation.ErrInvalidConfig)
	}

	outputDir, err := os.MkdirTemp("", "whisper-")
	if err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outputDir) }()

	args := t.buildArgs(audioPath, outputDir)
	t.logger.InfoContext(ctx, "starting transcription",
		"audio_path", audioPath,
		"model_size", t.whisper.ModelSize,
		"language", t.transcribe.Language)

	if err := t.run(ctx, t.whisper.Binary, args...); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outputPath := filepath.Join(outputDir, baseName+".json")
	segments, err := parseOutput(outputPath)
	if err != nil {
		return nil, nil, err
	}

	t.logger.InfoContext(ctx, "transcription finished",
		"audio_path", audioPath,
		"segment_count", len(segments))

	return segments, t.metadata(), nil
}

func (t *Transcriber) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", t.whisper.ModelSize,
		"--device", t.whisper.Device,
		"--compute_type", t.whisper.ComputeType,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--language", t.transcribe.Language,
		"--beam_size", strconv.Itoa(t.transcribe.BeamSize),
	}
	if t.transcribe.VADFilter {
		args = append(args, "--vad_filter", "True")
	}
	if t.transcribe.InitialPrompt != "" {
		args = append(args, "--initial_prompt", t.transcribe.InitialPrompt)
	}
	return args
}

func parseOutput(path string) ([]domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read transcript output: %v", generation.ErrInvalidResponse, err)
	}

	var parsed whisperOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode transcript output: %v", generation.ErrInvalidResponse, err)
	}

	segments := make([]domain.Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{Start: s.Start, End: s.End, Text: text})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: transcript contains no segments", generation.ErrInvalidResponse)
	}
	return segments, nil
}

func (t *Transcriber) metadata() *domain.TranscriptMetadata {
	return &domain.TranscriptMetadata{
		ModelSize:     t.whisper.ModelSize,
		Device:        t.whisper.Device,
		ComputeType:   t.whisper.ComputeType,
		BeamSize:      t.transcribe.BeamSize,
		VADFilter:     t.transcribe.VADFilter,
		Language:      t.transcribe.Language,
		InitialPrompt: t.transcribe.InitialPrompt,
	}
}

var _ generation.Transcriber = (*Transcriber)(nil)
