package correction

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
	"github.com/pierre-chaville/lessons/internal/platform/logger"
)

const (
	// DefaultGroupSize is how many segments go into one correction call.
	DefaultGroupSize = 10
	// DefaultConcurrency caps the number of correction calls in flight.
	DefaultConcurrency = 10
)

// Options tunes a single pipeline run. Zero values fall back to the
// package defaults.
type Options struct {
	// GroupSize is the maximum number of segments per correction call.
	GroupSize int
	// Concurrency is the maximum number of correction calls in flight.
	Concurrency int
	// Retry controls backoff on rate-limited calls.
	Retry generation.RetryPolicy
}

func (o Options) withDefaults() Options {
	if o.GroupSize <= 0 {
		o.GroupSize = DefaultGroupSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = generation.DefaultRetryPolicy()
	}
	return o
}

// group is a contiguous slice of the input with its starting index.
type group struct {
	start    int
	segments []domain.Segment
}

// Pipeline corrects transcripts in groups through a Corrector.
type Pipeline struct {
	corrector generation.Corrector
	opts      Options
}

// NewPipeline creates a Pipeline around the given corrector.
func NewPipeline(corrector generation.Corrector, opts Options) *Pipeline {
	return &Pipeline{corrector: corrector, opts: opts.withDefaults()}
}

// Run corrects the given transcript and returns a new segment list of
// the same length, with each segment's timing preserved and its text
// replaced by the corrected version. Groups whose correction call
// fails keep their original text; a failure in one group never aborts
// the others. An empty transcript returns an empty result.
func (p *Pipeline) Run(ctx context.Context, transcript []domain.Segment) ([]domain.Segment, error) {
	log := logger.FromContextOrDefault(ctx, slog.Default())

	result := make([]domain.Segment, len(transcript))
	copy(result, transcript)
	if len(transcript) == 0 {
		return result, nil
	}

	groups := partition(transcript, p.opts.GroupSize)
	log.Debug("starting correction pipeline",
		"segments", len(transcript),
		"groups", len(groups),
		"group_size", p.opts.GroupSize,
		"concurrency", p.opts.Concurrency)

	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup
	for _, g := range groups {
		wg.Add(1)
		go func(g group) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			corrected, err := p.correctGroup(ctx, g)
			if err != nil {
				// The group keeps its original text; result already
				// holds a copy of the input.
				log.Warn("correction group failed, keeping original text",
					"group_start", g.start,
					"group_len", len(g.segments),
					"error", err)
				return
			}
			for i, text := range corrected {
				result[g.start+i].Text = text
			}
		}(g)
	}
	wg.Wait()

	return result, nil
}

// correctGroup runs one correction call with retry. The corrector
// contract guarantees one output text per input; a short or long
// response is treated as a failed group.
func (p *Pipeline) correctGroup(ctx context.Context, g group) ([]string, error) {
	texts := make([]string, len(g.segments))
	for i, s := range g.segments {
		texts[i] = s.Text
	}

	var corrected []string
	err := generation.Retry(ctx, p.opts.Retry, func(ctx context.Context) error {
		var callErr error
		corrected, callErr = p.corrector.CorrectSegments(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(corrected) != len(texts) {
		return nil, generation.ErrInvalidResponse
	}
	return corrected, nil
}

// partition splits segments into contiguous groups of at most size,
// preserving order.
func partition(segments []domain.Segment, size int) []group {
	groups := make([]group, 0, (len(segments)+size-1)/size)
	for start := 0; start < len(segments); start += size {
		end := start + size
		if end > len(segments) {
			end = len(segments)
		}
		groups = append(groups, group{start: start, segments: segments[start:end]})
	}
	return groups
}
