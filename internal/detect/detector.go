// Package detect turns a transcript into candidate cuts by asking a language
// model, one call per chunk and category.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/llm"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

const (
	DefaultConfidence          = 0.8
	DefaultConfidenceThreshold = 0.5
	DefaultConcurrency         = 4
)

var (
	ErrNoCategories     = errors.New("at least one cut category is required")
	ErrInvalidThreshold = errors.New("confidence threshold must be between 0 and 1")
)

type Config struct {
	ChunkSeconds    float64
	Concurrency     int
	Options         llm.Options
	PromptOverrides map[string]string
}

type Detector struct {
	completer llm.Completer
	cfg       Config
	prompts   *Prompts
	logger    *slog.Logger
}

func New(completer llm.Completer, cfg Config, logger *slog.Logger) *Detector {
	if cfg.ChunkSeconds <= 0 {
		cfg.ChunkSeconds = transcript.DefaultMaxChunkSeconds
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		completer: completer,
		cfg:       cfg,
		prompts:   NewPrompts(cfg.PromptOverrides),
		logger:    logger,
	}
}

type Request struct {
	VideoID             string
	Categories          []cuts.Category
	CustomPrompt        string
	ConfidenceThreshold float64
}

// Result carries the raw candidates plus call accounting. Candidates are not
// validated and not sorted.
type Result struct {
	Candidates  []cuts.Candidate
	Chunks      int
	Calls       int
	FailedCalls int
	Unparseable int
	Duration    time.Duration
}

type chunkOutcome struct {
	candidates  []cuts.Candidate
	unparseable bool
}

// Detect chunks the transcript and runs every category over every chunk.
// Categories run one after another; the chunks of a category run
// concurrently. A failed or unreadable call contributes zero candidates and
// never fails the run.
func (d *Detector) Detect(ctx context.Context, tr *transcript.Transcript, req Request) (*Result, error) {
	if len(req.Categories) == 0 {
		return nil, ErrNoCategories
	}
	if math.IsNaN(req.ConfidenceThreshold) || req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		return nil, ErrInvalidThreshold
	}

	started := time.Now()
	chunks := transcript.Split(tr, d.cfg.ChunkSeconds)
	res := &Result{Chunks: len(chunks)}
	logger := d.logger.With("video_id", req.VideoID)

	var all []cuts.Candidate
	for _, category := range req.Categories {
		tasks := make([]func(context.Context) (chunkOutcome, error), len(chunks))
		for i, chunk := range chunks {
			chunk := chunk
			tasks[i] = func(ctx context.Context) (chunkOutcome, error) {
				return d.detectChunk(ctx, category, chunk, req.CustomPrompt)
			}
		}

		for i, settled := range SettleAll(ctx, d.cfg.Concurrency, tasks) {
			res.Calls++
			if settled.Err != nil {
				res.FailedCalls++
				logger.Warn("cut detection call failed",
					"category", category,
					"chunk", i,
					"error", settled.Err,
				)
				continue
			}
			if settled.Value.unparseable {
				res.Unparseable++
				logger.Warn("unparseable model response", "category", category, "chunk", i)
			}
			all = append(all, settled.Value.candidates...)
		}
	}

	for _, c := range all {
		if c.Confidence >= req.ConfidenceThreshold {
			res.Candidates = append(res.Candidates, c)
		}
	}
	res.Duration = time.Since(started)

	logger.Info("cut detection finished",
		"chunks", res.Chunks,
		"calls", res.Calls,
		"failed_calls", res.FailedCalls,
		"unparseable", res.Unparseable,
		"candidates", len(all),
		"above_threshold", len(res.Candidates),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (d *Detector) detectChunk(ctx context.Context, category cuts.Category, chunk transcript.Chunk, customPrompt string) (chunkOutcome, error) {
	prompt := d.prompts.Build(category, chunk, customPrompt)
	text, err := d.completer.Complete(ctx, prompt, d.prompts.System(), d.cfg.Options)
	if err != nil {
		return chunkOutcome{}, fmt.Errorf("complete %s chunk at %.1fs: %w", category, chunk.StartSec, err)
	}

	parsed := ParseResponse(text)
	if parsed.Status == Unparseable {
		return chunkOutcome{unparseable: true}, nil
	}
	return chunkOutcome{candidates: ToCandidates(parsed.Segments, category, chunk.StartSec)}, nil
}

// ToCandidates shifts chunk-relative segments to absolute source times and
// fills defaults for missing fields. Entries without both bounds are dropped.
func ToCandidates(segments []RemovedSegment, category cuts.Category, chunkStart float64) []cuts.Candidate {
	out := make([]cuts.Candidate, 0, len(segments))
	for _, s := range segments {
		if s.StartTimeSeconds == nil || s.EndTimeSeconds == nil {
			continue
		}
		c := cuts.Candidate{
			SourceStart:  chunkStart + float64(*s.StartTimeSeconds),
			SourceEnd:    chunkStart + float64(*s.EndTimeSeconds),
			Type:         category,
			Confidence:   DefaultConfidence,
			Reasoning:    fmt.Sprintf("%s detected", category),
			AffectedText: "",
		}
		if s.Confidence != nil {
			c.Confidence = float64(*s.Confidence)
		}
		if s.Reason != nil {
			c.Reasoning = *s.Reason
		}
		if s.TextRemoved != nil {
			c.AffectedText = *s.TextRemoved
		}
		out = append(out, c)
	}
	return out
}
