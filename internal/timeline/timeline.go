// Package timeline derives the playable clean timeline from a video's
// duration and its active cuts. Nothing here is stored; every read rebuilds
// it.
package timeline

import (
	"sort"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
)

type Kind string

const (
	KindContent Kind = "content"
	KindCut     Kind = "cut"
)

type CutInfo struct {
	ID         string        `json:"id,omitempty"`
	Type       cuts.Category `json:"type"`
	Reasoning  string        `json:"reasoning"`
	Confidence float64       `json:"confidence"`
}

type Segment struct {
	SourceStart float64  `json:"sourceStart"`
	SourceEnd   float64  `json:"sourceEnd"`
	Duration    float64  `json:"duration"`
	Kind        Kind     `json:"type"`
	CutInfo     *CutInfo `json:"cutInfo,omitempty"`
}

type Reconstruction struct {
	OriginalDuration float64   `json:"originalDuration"`
	CleanDuration    float64   `json:"cleanDuration"`
	TimeSaved        float64   `json:"timeSaved"`
	Segments         []Segment `json:"segments"`
}

// Reconstruct walks the active cuts in source order and emits contiguous
// content and cut segments covering [0, duration).
//
// Overlapping cuts are merged into the cut that reaches furthest: a cut that
// starts behind the cursor is clamped to begin at the cursor, and one lying
// entirely behind it emits nothing. Cuts running past the end of the video
// are clamped to duration, and ones starting at or after it emit nothing.
// TimeSaved is the nominal sum of every active cut's length, so with overlaps
// it can exceed the actual reduction reported by
// OriginalDuration - CleanDuration.
func Reconstruct(duration float64, active []*cuts.Cut) *Reconstruction {
	if duration < 0 {
		duration = 0
	}

	sorted := make([]*cuts.Cut, len(active))
	copy(sorted, active)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SourceStart != sorted[j].SourceStart {
			return sorted[i].SourceStart < sorted[j].SourceStart
		}
		return sorted[i].SourceEnd > sorted[j].SourceEnd
	})

	rec := &Reconstruction{OriginalDuration: duration, Segments: []Segment{}}
	cursor := 0.0
	removed := 0.0

	for _, c := range sorted {
		rec.TimeSaved += c.SourceEnd - c.SourceStart

		start := max(c.SourceStart, cursor)
		end := min(c.SourceEnd, duration)
		if end <= start {
			continue
		}

		if cursor < start {
			rec.Segments = append(rec.Segments, content(cursor, start))
		}
		rec.Segments = append(rec.Segments, Segment{
			SourceStart: start,
			SourceEnd:   end,
			Duration:    end - start,
			Kind:        KindCut,
			CutInfo: &CutInfo{
				ID:         c.ID,
				Type:       c.Type,
				Reasoning:  c.Reasoning,
				Confidence: c.Confidence,
			},
		})
		removed += end - start
		cursor = end
	}

	if cursor < duration {
		rec.Segments = append(rec.Segments, content(cursor, duration))
	}

	rec.CleanDuration = duration - removed
	return rec
}

func content(start, end float64) Segment {
	return Segment{SourceStart: start, SourceEnd: end, Duration: end - start, Kind: KindContent}
}

// ContentSegments returns only the retained segments, in order.
func (r *Reconstruction) ContentSegments() []Segment {
	var out []Segment
	for _, s := range r.Segments {
		if s.Kind == KindContent {
			out = append(out, s)
		}
	}
	return out
}
