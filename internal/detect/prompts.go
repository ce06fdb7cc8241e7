package detect

import (
	"fmt"
	"strings"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

// SilenceHintSeconds is the smallest inter-word gap listed in silence prompts.
const SilenceHintSeconds = 2.0

// Definitions are the removal rules for each category. They are sent to the
// model as-is.
var Definitions = map[cuts.Category]string{
	cuts.FillerWord:        "vocal fillers/hedges/false starts/incomplete sentences that carry no content.",
	cuts.BadTake:           "stutters, self-corrections, explicit retry markers, rambling, contradictions.",
	cuts.OffTopic:          "tangents, side conversations, content that doesn't advance the core narrative.",
	cuts.Silence:           "long dead-air gaps inferable from large time gaps between consecutive words.",
	cuts.RepetitiveContent: "duplicate/redundant explanations of the same point.",
}

const systemPrompt = `You are a professional video editor reviewing a timestamped transcript.
You identify spans that can be removed without losing meaning.
Respond with a single JSON object and nothing else. No markdown, no code fences.`

const responseFormat = `Return JSON exactly in this shape:
{"removed_segments": [{"start_time_seconds": number, "end_time_seconds": number, "text_removed": string, "reason": string, "confidence": number}]}

Times are seconds relative to the start of this excerpt, as shown in the brackets.
confidence is between 0 and 1. Return {"removed_segments": []} when nothing qualifies.`

// Prompts builds per-category instructions. Overrides replace the built-in
// definition for a category, keyed by category name.
type Prompts struct {
	overrides map[cuts.Category]string
}

func NewPrompts(overrides map[string]string) *Prompts {
	p := &Prompts{overrides: make(map[cuts.Category]string)}
	for k, v := range overrides {
		c, err := cuts.ParseCategory(k)
		if err != nil || strings.TrimSpace(v) == "" {
			continue
		}
		p.overrides[c] = strings.TrimSpace(v)
	}
	return p
}

func (p *Prompts) System() string {
	return systemPrompt
}

func (p *Prompts) definition(c cuts.Category) string {
	if d, ok := p.overrides[c]; ok {
		return d
	}
	return Definitions[c]
}

// Build renders the user prompt for one chunk and category.
func (p *Prompts) Build(category cuts.Category, chunk transcript.Chunk, customPrompt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Find %s segments to remove.\n", category)
	fmt.Fprintf(&b, "A %s segment is: %s\n\n", category, p.definition(category))

	if category == cuts.Silence {
		gaps := chunk.Gaps(SilenceHintSeconds)
		if len(gaps) > 0 {
			fmt.Fprintf(&b, "Gaps of %.0fs or more between consecutive words:\n", SilenceHintSeconds)
			for _, g := range gaps {
				fmt.Fprintf(&b, "- %.2f to %.2f (%.2fs)\n", g.StartSec, g.EndSec, g.Duration())
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("Transcript excerpt, one word per line as [start-end] word:\n")
	b.WriteString(chunk.TimestampedText())
	b.WriteString("\n")
	b.WriteString(responseFormat)

	if custom := strings.TrimSpace(customPrompt); custom != "" {
		b.WriteString("\n\nAdditional instructions from the user:\n")
		b.WriteString(custom)
	}
	return b.String()
}
