package catalog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const tokenBytes = 32

type CatalogService interface {
	ImportVideo(ctx context.Context, video *Video) (*Video, error)
	GetOwnedVideo(ctx context.Context, videoID, userID string) (*Video, error)
	ListVideos(ctx context.Context, ownerID string) ([]*Video, error)
	DeleteVideo(ctx context.Context, videoID, userID string) error
	AttachTranscript(ctx context.Context, videoID, transcriptJSON string) error
	IssueToken(ctx context.Context, userID string) (string, error)
	ResolveToken(ctx context.Context, token string) (string, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ImportVideo registers a video row. Missing IDs and statuses are filled in.
func (s *Service) ImportVideo(ctx context.Context, v *Video) (*Video, error) {
	if strings.TrimSpace(v.OwnerID) == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if v.DurationSeconds < 0 {
		return nil, fmt.Errorf("duration must be non-negative")
	}
	if v.ID == "" {
		v.ID = NewID()
	}
	if v.AnalysisStatus == "" {
		v.AnalysisStatus = AnalysisPending
		if v.TranscriptJSON != "" {
			v.AnalysisStatus = AnalysisCompleted
		}
	}
	if !IsValidAnalysisStatus(v.AnalysisStatus) {
		return nil, fmt.Errorf("invalid analysis status %q", v.AnalysisStatus)
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	if err := s.repo.CreateVideo(ctx, v); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("video imported", "video_id", v.ID, "owner_id", v.OwnerID, "status", v.AnalysisStatus)
	}
	return v, nil
}

// GetOwnedVideo returns the video only when userID owns it.
func (s *Service) GetOwnedVideo(ctx context.Context, videoID, userID string) (*Video, error) {
	v, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v == nil || v.OwnerID != userID {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *Service) ListVideos(ctx context.Context, ownerID string) ([]*Video, error) {
	return s.repo.ListVideos(ctx, ownerID)
}

// DeleteVideo removes an owned video. Its cuts and bulk operations go with it.
func (s *Service) DeleteVideo(ctx context.Context, videoID, userID string) error {
	if _, err := s.GetOwnedVideo(ctx, videoID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteVideo(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("video deleted", "video_id", videoID, "owner_id", userID)
	}
	return nil
}

// AttachTranscript stores transcript JSON and marks analysis completed.
func (s *Service) AttachTranscript(ctx context.Context, videoID, transcriptJSON string) error {
	v, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if v == nil {
		return ErrNotFound
	}
	if err := s.repo.UpdateTranscript(ctx, videoID, transcriptJSON, AnalysisCompleted); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("transcript attached", "video_id", videoID, "bytes", len(transcriptJSON))
	}
	return nil
}

func (s *Service) IssueToken(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(b)
	if err := s.repo.CreateToken(ctx, &APIToken{Token: token, UserID: userID, CreatedAt: time.Now()}); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveToken maps a bearer token to its user id. Unknown tokens yield "".
func (s *Service) ResolveToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	return s.repo.GetUserIDByToken(ctx, token)
}
