package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/timeline"
)

const defaultFrameRate = 30

// GenerateEDL lists each retained content segment as one edit event. Source
// and record timecodes are the segment's own source times.
func GenerateEDL(rec *timeline.Reconstruction, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = defaultFrameRate
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, seg := range rec.ContentSegments() {
		in := secondsToTimecode(seg.SourceStart, fps)
		out := secondsToTimecode(seg.SourceEnd, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", in, out, in, out),
			fmt.Sprintf("* FROM CLIP NAME:  %s", title),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func secondsToTimecode(sec float64, fps int) string {
	totalFrames := int(math.Round(sec * float64(fps)))
	if totalFrames < 0 {
		totalFrames = 0
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
