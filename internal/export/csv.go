package export

import (
	"strconv"
	"strings"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/timeline"
)

const csvHeader = "Type,Start Time,End Time,Duration,Cut Type,Reasoning,Confidence"

// GenerateCSV writes one row per segment with every field quoted and times
// at millisecond precision. Content rows leave the cut columns empty.
func GenerateCSV(rec *timeline.Reconstruction) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, seg := range rec.Segments {
		cutType, reasoning, confidence := "", "", ""
		if seg.CutInfo != nil {
			cutType = string(seg.CutInfo.Type)
			reasoning = seg.CutInfo.Reasoning
			confidence = formatSeconds(seg.CutInfo.Confidence)
		}
		writeRow(&b, string(seg.Kind),
			formatSeconds(seg.SourceStart),
			formatSeconds(seg.SourceEnd),
			formatSeconds(seg.Duration),
			cutType, reasoning, confidence,
		)
	}
	return b.String()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
