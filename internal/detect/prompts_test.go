package detect

import (
	"strings"
	"testing"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

func TestPrompts_IncludeDefinitionAndTranscript(t *testing.T) {
	chunk := transcript.Split(wordsEverySecond(5), 180)[0]
	p := NewPrompts(nil)

	for _, c := range cuts.Categories {
		prompt := p.Build(c, chunk, "")
		if !strings.Contains(prompt, Definitions[c]) {
			t.Errorf("%s prompt missing definition", c)
		}
		if !strings.Contains(prompt, "[0.00-0.50] w0") {
			t.Errorf("%s prompt missing timestamped words", c)
		}
		if strings.Contains(prompt, "Additional instructions") {
			t.Errorf("%s prompt has empty custom section", c)
		}
	}
}

func TestPrompts_SilenceListsGaps(t *testing.T) {
	chunk := transcript.Split(&transcript.Transcript{Words: []transcript.Word{
		{Text: "a", StartMs: 0, EndMs: 500},
		{Text: "b", StartMs: 4500, EndMs: 5000},
	}}, 180)[0]

	prompt := NewPrompts(nil).Build(cuts.Silence, chunk, "")
	if !strings.Contains(prompt, "- 0.50 to 4.50 (4.00s)") {
		t.Errorf("silence prompt missing gap hint:\n%s", prompt)
	}
	if strings.Contains(NewPrompts(nil).Build(cuts.FillerWord, chunk, ""), "Gaps of") {
		t.Error("gap hints should only appear for silence")
	}
}

func TestPrompts_Overrides(t *testing.T) {
	chunk := transcript.Split(wordsEverySecond(2), 180)[0]
	p := NewPrompts(map[string]string{
		"silence":   "Only gaps over five seconds.",
		"applause":  "ignored",
		"off_topic": "  ",
	})

	if got := p.Build(cuts.Silence, chunk, ""); !strings.Contains(got, "Only gaps over five seconds.") || strings.Contains(got, Definitions[cuts.Silence]) {
		t.Errorf("override not applied:\n%s", got)
	}
	if got := p.Build(cuts.OffTopic, chunk, ""); !strings.Contains(got, Definitions[cuts.OffTopic]) {
		t.Error("blank override should keep the built-in definition")
	}
	if got := p.Build(cuts.FillerWord, chunk, "Be aggressive"); !strings.HasSuffix(got, "Be aggressive") {
		t.Error("custom prompt should be appended last")
	}
}
