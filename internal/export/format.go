package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/timeline"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidFrameRate  = errors.New("invalid frame rate")
)

const maxFrameRate = 120

// ParseFrameRate validates an EDL frame rate. Zero selects the 30 fps default;
// 29.97 and 59.94 produce drop-frame EDLs.
func ParseFrameRate(fps float64) (float64, error) {
	switch {
	case fps == 0:
		return defaultFrameRate, nil
	case fps < 1 || fps > maxFrameRate || math.IsNaN(fps):
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	return fps, nil
}

type Format string

const (
	FormatEDL  Format = "edl"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatEDL, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Output is a rendered export ready to be written or served.
type Output struct {
	Content     string
	Filename    string
	ContentType string
}

// Render formats rec. title names the EDL and the output file; frameRate only
// applies to EDL.
func Render(rec *timeline.Reconstruction, format Format, title string, frameRate float64) (*Output, error) {
	switch format {
	case FormatEDL:
		fps, err := ParseFrameRate(frameRate)
		if err != nil {
			return nil, err
		}
		return &Output{
			Content:     GenerateEDL(rec, title, fps),
			Filename:    Filename(title, "edl"),
			ContentType: "text/plain; charset=utf-8",
		}, nil
	case FormatCSV:
		return &Output{
			Content:     GenerateCSV(rec),
			Filename:    Filename(title, "csv"),
			ContentType: "text/csv; charset=utf-8",
		}, nil
	case FormatJSON:
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal timeline: %w", err)
		}
		return &Output{
			Content:     string(data),
			Filename:    Filename(title, "json"),
			ContentType: "application/json",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
