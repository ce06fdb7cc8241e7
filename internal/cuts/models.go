package cuts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrVideoNotFound   = errors.New("video not found")
	ErrUnknownCategory = errors.New("unknown cut category")
	ErrInvalidCut      = errors.New("invalid cut")
	ErrEmptySelection  = errors.New("no cut ids given")
)

// Category is the closed set of removable-content kinds.
type Category string

const (
	FillerWord        Category = "filler_word"
	BadTake           Category = "bad_take"
	OffTopic          Category = "off_topic"
	Silence           Category = "silence"
	RepetitiveContent Category = "repetitive_content"
)

// Categories lists every category in display order.
var Categories = []Category{FillerWord, BadTake, OffTopic, Silence, RepetitiveContent}

func (c Category) Valid() bool {
	switch c {
	case FillerWord, BadTake, OffTopic, Silence, RepetitiveContent:
		return true
	}
	return false
}

// NormalizeCategory maps an external category identifier into the closed
// set. Anything unrecognised becomes FillerWord. This is the only place the
// fallback policy lives.
func NormalizeCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return FillerWord
}

// ParseCategory is the strict form used for request input.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// ParseCategories parses and de-duplicates, keeping first-seen order.
func ParseCategories(ss []string) ([]Category, error) {
	seen := make(map[Category]bool, len(ss))
	out := make([]Category, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCategory(s)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Candidate is a detected span before validation and persistence.
type Candidate struct {
	SourceStart  float64  `json:"sourceStart"`
	SourceEnd    float64  `json:"sourceEnd"`
	Type         Category `json:"type"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
	AffectedText string   `json:"affectedText"`
}

func (c Candidate) Duration() float64 { return c.SourceEnd - c.SourceStart }

// Cut is a persisted, independently toggleable removable span. The span and
// category never change after creation.
type Cut struct {
	ID              string    `json:"id"`
	VideoID         string    `json:"videoId"`
	SourceStart     float64   `json:"sourceStart"`
	SourceEnd       float64   `json:"sourceEnd"`
	Type            Category  `json:"type"`
	Confidence      float64   `json:"confidence"`
	Reasoning       string    `json:"reasoning"`
	AffectedText    string    `json:"affectedText"`
	IsActive        bool      `json:"isActive"`
	BulkOperationID string    `json:"bulkOperationId,omitempty"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c *Cut) Duration() float64 { return c.SourceEnd - c.SourceStart }

type OperationType string

const (
	OpSmartCleanup    OperationType = "smart_cleanup"
	OpManualSelection OperationType = "manual_selection"
	OpRestoreAll      OperationType = "restore_all"
)

func ParseOperationType(s string) (OperationType, error) {
	switch op := OperationType(s); op {
	case OpSmartCleanup, OpManualSelection, OpRestoreAll:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation type %q", s)
}

// Criteria records what a bulk operation selected on, for audit.
type Criteria struct {
	Categories          []Category `json:"categories,omitempty"`
	ConfidenceThreshold *float64   `json:"confidenceThreshold,omitempty"`
	CutIDs              []string   `json:"cutIds,omitempty"`
	IsActive            *bool      `json:"isActive,omitempty"`
	UserPrompt          string     `json:"userPrompt,omitempty"`
}

// BulkOperation is a write-once audit record of one user action.
type BulkOperation struct {
	ID               string        `json:"id"`
	VideoID          string        `json:"videoId"`
	OperationType    OperationType `json:"operationType"`
	InputCriteria    Criteria      `json:"inputCriteria"`
	CutsAffected     int           `json:"cutsAffected"`
	TimeSavedSeconds float64       `json:"timeSavedSeconds"`
	CreatedBy        string        `json:"createdBy,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Selection narrows the cuts a bulk operation touches. Empty fields do not
// filter.
type Selection struct {
	CutIDs        []string
	Categories    []Category
	MinConfidence *float64
	Active        *bool
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
