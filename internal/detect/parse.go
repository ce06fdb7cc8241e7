package detect

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ParseStatus separates "the model found nothing" from "the model's output
// could not be read". Both yield zero candidates.
type ParseStatus int

const (
	Parsed ParseStatus = iota
	Unparseable
)

func (s ParseStatus) String() string {
	if s == Parsed {
		return "parsed"
	}
	return "unparseable"
}

// RemovedSegment is one entry of the model's removed_segments array. Pointer
// fields are nil when the model left them out.
type RemovedSegment struct {
	StartTimeSeconds *flexFloat `json:"start_time_seconds"`
	EndTimeSeconds   *flexFloat `json:"end_time_seconds"`
	TextRemoved      *string    `json:"text_removed"`
	Reason           *string    `json:"reason"`
	Confidence       *flexFloat `json:"confidence"`
}

type ParseResult struct {
	Status   ParseStatus
	Segments []RemovedSegment
	Raw      string
}

type modelResponse struct {
	RemovedSegments []RemovedSegment `json:"removed_segments"`
}

// ParseResponse decodes a completion. It tries the whole text first and then
// the first balanced top-level {...} object inside it.
func ParseResponse(text string) ParseResult {
	var resp modelResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err == nil {
		return ParseResult{Status: Parsed, Segments: resp.RemovedSegments, Raw: text}
	}

	if obj, ok := firstObject(text); ok {
		resp = modelResponse{}
		if err := json.Unmarshal([]byte(obj), &resp); err == nil {
			return ParseResult{Status: Parsed, Segments: resp.RemovedSegments, Raw: text}
		}
	}

	return ParseResult{Status: Unparseable, Raw: text}
}

// firstObject returns the first '{' and its matching '}', skipping braces
// inside JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
