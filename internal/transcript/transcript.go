// Package transcript holds the word-level transcript model, the chunker that
// splits it into model-sized windows, and the sources that load it.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNotAvailable means upstream speech-to-text has not produced a
// transcript for the video yet.
var ErrNotAvailable = errors.New("transcript not available")

// Word is a single transcribed token. Times are milliseconds into the
// original media.
type Word struct {
	Text    string  `json:"text"`
	StartMs float64 `json:"start"`
	EndMs   float64 `json:"end"`
}

func (w Word) StartSec() float64 { return w.StartMs / 1000 }
func (w Word) EndSec() float64   { return w.EndMs / 1000 }

type Transcript struct {
	Words []Word `json:"words"`
}

// Parse accepts either {"words": [...]} or a bare word array.
func Parse(data []byte) (*Transcript, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty transcript")
	}

	var tr Transcript
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &tr.Words); err != nil {
			return nil, fmt.Errorf("parse transcript words: %w", err)
		}
	} else if err := json.Unmarshal([]byte(trimmed), &tr); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Validate checks start <= end for each word and non-decreasing start order.
func (t *Transcript) Validate() error {
	prev := math.Inf(-1)
	for i, w := range t.Words {
		if math.IsNaN(w.StartMs) || math.IsNaN(w.EndMs) || math.IsInf(w.StartMs, 0) || math.IsInf(w.EndMs, 0) {
			return fmt.Errorf("word %d: non-finite timestamp", i)
		}
		if w.StartMs < 0 {
			return fmt.Errorf("word %d: negative start %v", i, w.StartMs)
		}
		if w.StartMs > w.EndMs {
			return fmt.Errorf("word %d: start %v after end %v", i, w.StartMs, w.EndMs)
		}
		if w.StartMs < prev {
			return fmt.Errorf("word %d: start %v before previous word start %v", i, w.StartMs, prev)
		}
		prev = w.StartMs
	}
	return nil
}

// DurationSec is the end of the last word, or 0 for an empty transcript.
func (t *Transcript) DurationSec() float64 {
	if len(t.Words) == 0 {
		return 0
	}
	return t.Words[len(t.Words)-1].EndSec()
}
