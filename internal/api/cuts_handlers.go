package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/billing"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/detect"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/logging"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

const refundTimeout = 5 * time.Second

const noCutsMessage = "No removable segments were found for the selected categories."

func detectCutsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}
		userID, _ := CallerID(r.Context())
		logger := logging.WithVideoID(cfg.Logger, video.ID)

		var req DetectCutsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		categories, err := cuts.ParseCategories(req.CutTypes)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if len(categories) == 0 {
			WriteError(w, http.StatusBadRequest, "cutTypes must not be empty", "BAD_REQUEST")
			return
		}

		threshold := detect.DefaultConfidenceThreshold
		if req.ConfidenceThreshold != nil {
			threshold = *req.ConfidenceThreshold
		}
		if threshold < 0 || threshold > 1 {
			WriteError(w, http.StatusBadRequest, "confidenceThreshold must be between 0 and 1", "BAD_REQUEST")
			return
		}

		if video.AnalysisStatus != catalog.AnalysisCompleted {
			WriteError(w, http.StatusBadRequest, "video analysis is not complete", "ANALYSIS_PENDING")
			return
		}

		if cfg.Detector == nil {
			WriteError(w, http.StatusServiceUnavailable, "cut detection is not configured", "UNAVAILABLE")
			return
		}

		tr, err := cfg.Transcripts.GetTranscript(r.Context(), video.ID)
		switch {
		case errors.Is(err, transcript.ErrNotAvailable):
			WriteError(w, http.StatusBadRequest, "transcript is not available yet", "ANALYSIS_PENDING")
			return
		case errors.Is(err, catalog.ErrNotFound):
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		case err != nil:
			logger.Error("failed to load transcript", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to load transcript", "INTERNAL_ERROR")
			return
		}

		credits := cfg.Credits
		if credits == nil {
			credits = billing.Unmetered{}
		}
		decision, err := credits.CheckAndReserve(r.Context(), userID, billing.ActionCutDetection)
		if err != nil {
			logger.Error("credit check failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "credit check failed", "INTERNAL_ERROR")
			return
		}
		if !decision.Allowed {
			WriteJSON(w, http.StatusPaymentRequired, InsufficientCreditsResponse{
				Error:     "insufficient credits",
				Code:      "INSUFFICIENT_CREDITS",
				Required:  decision.Required,
				Available: decision.Available,
			})
			return
		}
		// Refunds must land even when the client has gone away mid-run.
		refunded := false
		refund := func(reason string) {
			if refunded {
				return
			}
			refunded = true
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), refundTimeout)
			defer cancel()
			if err := credits.Refund(ctx, userID, billing.ActionCutDetection); err != nil {
				logger.Error("failed to refund credits", "reason", reason, "error", err)
			}
		}

		result, err := cfg.Detector.Detect(r.Context(), tr, detect.Request{
			VideoID:             video.ID,
			Categories:          categories,
			CustomPrompt:        req.CustomPrompt,
			ConfidenceThreshold: threshold,
		})
		if err != nil {
			refund("detect")
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		switch {
		case result.Calls == 0:
			refund("empty transcript")
		case result.FailedCalls == result.Calls:
			refund("all model calls failed")
		}

		valid, rejected := cuts.ValidateBatch(result.Candidates)
		stored, err := cfg.Cuts.CreateMany(r.Context(), video.ID, userID, valid)
		if err != nil {
			refund("store")
			logger.Error("failed to store cuts", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to store cuts", "INTERNAL_ERROR")
			return
		}

		var saved float64
		for _, c := range stored {
			saved += c.Duration()
		}

		logger.Info("cuts detected",
			"detected", len(result.Candidates),
			"stored", len(stored),
			"rejected", rejected,
			"failed_calls", result.FailedCalls,
		)

		resp := DetectCutsResponse{
			Cuts:                 CutsToResponse(stored),
			TotalCuts:            len(stored),
			TotalTimeSaved:       saved,
			ProcessingTimeMs:     result.Duration.Milliseconds(),
			DetectedCount:        len(result.Candidates),
			RejectedCount:        rejected,
			FailedCalls:          result.FailedCalls,
			UnparseableResponses: result.Unparseable,
		}
		if len(stored) == 0 {
			resp.Message = noCutsMessage
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listCutsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}

		var active *bool
		if v := r.URL.Query().Get("active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "active must be true or false", "BAD_REQUEST")
				return
			}
			active = &b
		}

		list, err := cfg.Cuts.List(r.Context(), video.ID, active)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list cuts", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, CutsResponse{Cuts: CutsToResponse(list), TotalCuts: len(list)})
	}
}

func updateCutsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}

		var req UpdateCutsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if len(req.CutIDs) == 0 {
			WriteError(w, http.StatusBadRequest, "cutIds must not be empty", "BAD_REQUEST")
			return
		}
		if req.IsActive == nil {
			WriteError(w, http.StatusBadRequest, "isActive is required", "BAD_REQUEST")
			return
		}

		n, err := cfg.Cuts.SetActive(r.Context(), video.ID, req.CutIDs, *req.IsActive, req.BulkOperationID)
		if err != nil {
			cfg.Logger.Error("failed to update cuts", "video_id", video.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to update cuts", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, UpdateCutsResponse{CutsModified: n})
	}
}

func deleteCutsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}

		ids := splitIDs(r.URL.Query().Get("cutIds"))
		if len(ids) == 0 {
			WriteError(w, http.StatusBadRequest, "cutIds is required", "BAD_REQUEST")
			return
		}

		n, err := cfg.Cuts.Delete(r.Context(), video.ID, ids)
		if err != nil {
			cfg.Logger.Error("failed to delete cuts", "video_id", video.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to delete cuts", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, DeleteCutsResponse{CutsDeleted: n})
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func bulkOperationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}
		userID, _ := CallerID(r.Context())

		var req BulkOperationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		opType, err := cuts.ParseOperationType(req.OperationType)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		var op *cuts.BulkOperation
		switch opType {
		case cuts.OpRestoreAll:
			op, err = cfg.Cuts.RestoreAll(r.Context(), video.ID, userID)
		case cuts.OpManualSelection:
			active := true
			if req.IsActive != nil {
				active = *req.IsActive
			}
			op, err = cfg.Cuts.ManualSelection(r.Context(), video.ID, userID, req.CutIDs, active)
		case cuts.OpSmartCleanup:
			categories, perr := cuts.ParseCategories(req.CutTypes)
			if perr != nil {
				WriteError(w, http.StatusBadRequest, perr.Error(), "BAD_REQUEST")
				return
			}
			if t := req.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
				WriteError(w, http.StatusBadRequest, "confidenceThreshold must be between 0 and 1", "BAD_REQUEST")
				return
			}
			op, err = cfg.Cuts.SmartCleanup(r.Context(), video.ID, userID, categories, req.ConfidenceThreshold, req.UserPrompt)
		}

		if errors.Is(err, cuts.ErrEmptySelection) {
			WriteError(w, http.StatusBadRequest, "cutIds must not be empty", "BAD_REQUEST")
			return
		}
		if err != nil {
			cfg.Logger.Error("bulk operation failed", "video_id", video.ID, "operation_type", opType, "error", err)
			WriteError(w, http.StatusInternalServerError, "bulk operation failed", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, BulkOperationResponse{
			OperationID:      op.ID,
			CutsAffected:     op.CutsAffected,
			TimeSavedSeconds: op.TimeSavedSeconds,
		})
	}
}

func listOperationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}

		ops, err := cfg.Cuts.Operations(r.Context(), video.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list operations", "INTERNAL_ERROR")
			return
		}

		resp := OperationsResponse{Operations: make([]OperationResponse, len(ops))}
		for i, op := range ops {
			resp.Operations[i] = OperationToResponse(op)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
