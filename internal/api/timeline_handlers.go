package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/export"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/timeline"
)

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}

		includeInactive := false
		if v := r.URL.Query().Get("includeInactive"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "includeInactive must be true or false", "BAD_REQUEST")
				return
			}
			includeInactive = b
		}

		// One read keeps the active and inactive lists consistent.
		var filter *bool
		if !includeInactive {
			active := true
			filter = &active
		}
		list, err := cfg.Cuts.List(r.Context(), video.ID, filter)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load cuts", "INTERNAL_ERROR")
			return
		}
		activeCuts, inactiveCuts := partition(list)
		rec := timeline.Reconstruct(video.DurationSeconds, activeCuts)

		resp := TimelineResponse{
			OriginalDuration: rec.OriginalDuration,
			CleanDuration:    rec.CleanDuration,
			TimeSaved:        rec.TimeSaved,
			Segments:         rec.Segments,
			ActiveCuts:       CutsToResponse(activeCuts),
		}
		if includeInactive {
			resp.InactiveCuts = CutsToResponse(inactiveCuts)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func exportTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}

		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		format, err := export.ParseFormat(req.ExportFormat)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "exportFormat must be edl, csv or json", "BAD_REQUEST")
			return
		}
		if format == export.FormatEDL {
			if _, err := export.ParseFrameRate(req.FrameRate); err != nil {
				WriteError(w, http.StatusBadRequest, "frameRate must be between 1 and 120", "BAD_REQUEST")
				return
			}
		}

		active := true
		activeCuts, err := cfg.Cuts.List(r.Context(), video.ID, &active)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load cuts", "INTERNAL_ERROR")
			return
		}

		out, err := export.Render(timeline.Reconstruct(video.DurationSeconds, activeCuts), format, video.Title, req.FrameRate)
		if errors.Is(err, export.ErrUnsupportedFormat) {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err != nil {
			cfg.Logger.Error("export failed", "video_id", video.ID, "format", format, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to render export", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", out.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(out.Content))
	}
}

func partition(list []*cuts.Cut) (active, inactive []*cuts.Cut) {
	for _, c := range list {
		if c.IsActive {
			active = append(active, c)
		} else {
			inactive = append(inactive, c)
		}
	}
	return active, inactive
}
