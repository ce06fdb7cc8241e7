package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/media"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Catalog, cfg.Logger))

		r.Get("/videos", listVideosHandler(cfg))
		r.Route("/videos/{id}", func(r chi.Router) {
			r.Get("/", getVideoHandler(cfg))
			r.Delete("/", deleteVideoHandler(cfg))
			r.Get("/events", eventsHandler(cfg))
			r.Get("/media", mediaHandler(cfg))

			r.Post("/detect-cuts", detectCutsHandler(cfg))
			r.Get("/cuts", listCutsHandler(cfg))
			r.Patch("/cuts", updateCutsHandler(cfg))
			r.Delete("/cuts", deleteCutsHandler(cfg))
			r.Post("/cuts/bulk", bulkOperationHandler(cfg))
			r.Get("/cuts/operations", listOperationsHandler(cfg))

			r.Get("/timeline", getTimelineHandler(cfg))
			r.Post("/timeline", exportTimelineHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  int64(time.Since(cfg.StartTime).Seconds()),
			Database: "ok",
		}

		status := http.StatusOK
		if cfg.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.DB.Ping(ctx); err != nil {
				cfg.Logger.Error("health check failed", "error", err)
				resp.Status = "degraded"
				resp.Database = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		WriteJSON(w, status, resp)
	}
}

// ownedVideo loads the {id} video for the caller and writes the error
// response itself when it returns nil.
func ownedVideo(cfg ServerConfig, w http.ResponseWriter, r *http.Request) *catalog.Video {
	userID, err := CallerID(r.Context())
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return nil
	}

	videoID := chi.URLParam(r, "id")
	if videoID == "" {
		WriteError(w, http.StatusBadRequest, "video id required", "BAD_REQUEST")
		return nil
	}

	video, err := cfg.Catalog.GetOwnedVideo(r.Context(), videoID, userID)
	if errors.Is(err, catalog.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
		return nil
	}
	if err != nil {
		cfg.Logger.Error("failed to load video", "video_id", videoID, "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to load video", "INTERNAL_ERROR")
		return nil
	}
	return video
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := CallerID(r.Context())
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}

		videos, err := cfg.Catalog.ListVideos(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}
		WriteJSON(w, http.StatusOK, VideoToResponse(video))
	}
}

func deleteVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}
		if err := cfg.Catalog.DeleteVideo(r.Context(), video.ID, video.OwnerID); err != nil {
			cfg.Logger.Error("failed to delete video", "video_id", video.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to delete video", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func eventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Hub == nil {
			WriteError(w, http.StatusServiceUnavailable, "live updates are disabled", "UNAVAILABLE")
			return
		}
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}
		cfg.Hub.ServeWS(w, r, video.ID)
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video := ownedVideo(cfg, w, r)
		if video == nil {
			return
		}
		if cfg.Media == nil || video.StoragePath == "" {
			WriteError(w, http.StatusNotFound, "no media for video", "NOT_FOUND")
			return
		}
		if !catalog.IsVideoFile(video.StoragePath) {
			WriteError(w, http.StatusUnsupportedMediaType, "unsupported media type", "UNSUPPORTED_MEDIA")
			return
		}

		err := cfg.Media.Stream(w, r, video.StoragePath)
		if errors.Is(err, media.ErrNoMedia) {
			WriteError(w, http.StatusNotFound, "media file missing", "NOT_FOUND")
			return
		}
		if err != nil {
			cfg.Logger.Error("failed to stream media", "video_id", video.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to stream media", "INTERNAL_ERROR")
		}
	}
}
