package api

import (
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	Database string `json:"database"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type InsufficientCreditsResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type VideoResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"durationSeconds"`
	AnalysisStatus  string  `json:"analysisStatus"`
	HasTranscript   bool    `json:"hasTranscript"`
	CreatedAt       string  `json:"createdAt"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type DetectCutsRequest struct {
	CutTypes            []string `json:"cutTypes"`
	CustomPrompt        string   `json:"customPrompt,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
}

type DetectCutsResponse struct {
	Cuts                 []CutResponse `json:"cuts"`
	TotalCuts            int           `json:"totalCuts"`
	TotalTimeSaved       float64       `json:"totalTimeSaved"`
	ProcessingTimeMs     int64         `json:"processingTimeMs"`
	DetectedCount        int           `json:"detectedCount"`
	RejectedCount        int           `json:"rejectedCount"`
	FailedCalls          int           `json:"failedCalls"`
	UnparseableResponses int           `json:"unparseableResponses"`
	Message              string        `json:"message,omitempty"`
}

type CutResponse struct {
	ID              string  `json:"id"`
	VideoID         string  `json:"videoId"`
	SourceStart     float64 `json:"sourceStart"`
	SourceEnd       float64 `json:"sourceEnd"`
	Duration        float64 `json:"duration"`
	Type            string  `json:"type"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	AffectedText    string  `json:"affectedText"`
	IsActive        bool    `json:"isActive"`
	BulkOperationID string  `json:"bulkOperationId,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type CutsResponse struct {
	Cuts      []CutResponse `json:"cuts"`
	TotalCuts int           `json:"totalCuts"`
}

type UpdateCutsRequest struct {
	CutIDs          []string `json:"cutIds"`
	IsActive        *bool    `json:"isActive"`
	BulkOperationID string   `json:"bulkOperationId,omitempty"`
}

type UpdateCutsResponse struct {
	CutsModified int `json:"cutsModified"`
}

type DeleteCutsResponse struct {
	CutsDeleted int `json:"cutsDeleted"`
}

type BulkOperationRequest struct {
	OperationType       string   `json:"operationType"`
	CutIDs              []string `json:"cutIds,omitempty"`
	CutTypes            []string `json:"cutTypes,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
	UserPrompt          string   `json:"userPrompt,omitempty"`
	IsActive            *bool    `json:"isActive,omitempty"`
}

type BulkOperationResponse struct {
	OperationID      string  `json:"operationId"`
	CutsAffected     int     `json:"cutsAffected"`
	TimeSavedSeconds float64 `json:"timeSavedSeconds"`
}

type OperationResponse struct {
	ID               string        `json:"id"`
	OperationType    string        `json:"operationType"`
	InputCriteria    cuts.Criteria `json:"inputCriteria"`
	CutsAffected     int           `json:"cutsAffected"`
	TimeSavedSeconds float64       `json:"timeSavedSeconds"`
	CreatedBy        string        `json:"createdBy,omitempty"`
	CreatedAt        string        `json:"createdAt"`
}

type OperationsResponse struct {
	Operations []OperationResponse `json:"operations"`
}

type TimelineResponse struct {
	OriginalDuration float64            `json:"originalDuration"`
	CleanDuration    float64            `json:"cleanDuration"`
	TimeSaved        float64            `json:"timeSaved"`
	Segments         []timeline.Segment `json:"segments"`
	ActiveCuts       []CutResponse      `json:"activeCuts"`
	InactiveCuts     []CutResponse      `json:"inactiveCuts,omitempty"`
}

type ExportRequest struct {
	ExportFormat string  `json:"exportFormat"`
	FrameRate    float64 `json:"frameRate,omitempty"`
}

func VideoToResponse(v *catalog.Video) VideoResponse {
	return VideoResponse{
		ID:              v.ID,
		Title:           v.Title,
		DurationSeconds: v.DurationSeconds,
		AnalysisStatus:  v.AnalysisStatus,
		HasTranscript:   v.HasTranscript(),
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
}

func CutToResponse(c *cuts.Cut) CutResponse {
	return CutResponse{
		ID:              c.ID,
		VideoID:         c.VideoID,
		SourceStart:     c.SourceStart,
		SourceEnd:       c.SourceEnd,
		Duration:        c.Duration(),
		Type:            string(c.Type),
		Confidence:      c.Confidence,
		Reasoning:       c.Reasoning,
		AffectedText:    c.AffectedText,
		IsActive:        c.IsActive,
		BulkOperationID: c.BulkOperationID,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}

func CutsToResponse(cs []*cuts.Cut) []CutResponse {
	out := make([]CutResponse, len(cs))
	for i, c := range cs {
		out[i] = CutToResponse(c)
	}
	return out
}

func OperationToResponse(op *cuts.BulkOperation) OperationResponse {
	return OperationResponse{
		ID:               op.ID,
		OperationType:    string(op.OperationType),
		InputCriteria:    op.InputCriteria,
		CutsAffected:     op.CutsAffected,
		TimeSavedSeconds: op.TimeSavedSeconds,
		CreatedBy:        op.CreatedBy,
		CreatedAt:        op.CreatedAt.Format(time.RFC3339),
	}
}
