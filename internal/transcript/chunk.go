package transcript

import (
	"fmt"
	"strings"
)

const DefaultMaxChunkSeconds = 180.0

// Chunk is a contiguous run of words sent to the model in one call.
// StartSec and EndSec are derived from the first and last word.
type Chunk struct {
	Words    []Word
	StartSec float64
	EndSec   float64
}

// Split divides the transcript into chunks whose first-word-to-current-word
// start span stays below maxSeconds. A word whose start is maxSeconds or more
// past the chunk start opens a new chunk. Non-positive maxSeconds uses the
// default. An empty transcript yields no chunks.
func Split(t *Transcript, maxSeconds float64) []Chunk {
	if t == nil || len(t.Words) == 0 {
		return nil
	}
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxChunkSeconds
	}

	var chunks []Chunk
	var cur Chunk
	for _, w := range t.Words {
		if len(cur.Words) > 0 && w.StartSec()-cur.StartSec >= maxSeconds {
			chunks = append(chunks, cur.closed())
			cur = Chunk{}
		}
		if len(cur.Words) == 0 {
			cur.StartSec = w.StartSec()
		}
		cur.Words = append(cur.Words, w)
	}
	if len(cur.Words) > 0 {
		chunks = append(chunks, cur.closed())
	}
	return chunks
}

func (c Chunk) closed() Chunk {
	c.EndSec = c.Words[len(c.Words)-1].EndSec()
	return c
}

// TimestampedText renders one "[seconds] word" line per word, with seconds
// relative to the chunk start.
func (c Chunk) TimestampedText() string {
	var b strings.Builder
	for _, w := range c.Words {
		fmt.Fprintf(&b, "[%.2f-%.2f] %s\n", w.StartSec()-c.StartSec, w.EndSec()-c.StartSec, w.Text)
	}
	return b.String()
}

// Text is the plain words joined by spaces.
func (c Chunk) Text() string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Gap is a silent stretch between two consecutive words, chunk-relative.
type Gap struct {
	StartSec float64
	EndSec   float64
}

func (g Gap) Duration() float64 { return g.EndSec - g.StartSec }

// Gaps lists inter-word gaps of at least minSeconds.
func (c Chunk) Gaps(minSeconds float64) []Gap {
	var gaps []Gap
	for i := 1; i < len(c.Words); i++ {
		prevEnd := c.Words[i-1].EndSec()
		start := c.Words[i].StartSec()
		if start-prevEnd >= minSeconds {
			gaps = append(gaps, Gap{StartSec: prevEnd - c.StartSec, EndSec: start - c.StartSec})
		}
	}
	return gaps
}
