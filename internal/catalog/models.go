package catalog

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a video does not exist or is not visible to
// the caller. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

type Video struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	DurationSeconds float64   `json:"duration_seconds"`
	AnalysisStatus  string    `json:"analysis_status"`
	TranscriptJSON  string    `json:"-"`
	StoragePath     string    `json:"storage_path,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasTranscript reports whether a completed analysis left a transcript behind.
func (v *Video) HasTranscript() bool {
	return v.AnalysisStatus == AnalysisCompleted && strings.TrimSpace(v.TranscriptJSON) != ""
}

type APIToken struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}

func IsValidAnalysisStatus(s string) bool {
	switch s {
	case AnalysisPending, AnalysisProcessing, AnalysisCompleted, AnalysisFailed:
		return true
	}
	return false
}
