package transcript

import (
	"context"
	"errors"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
)

// Source loads the transcript for a video. Implementations return
// ErrNotAvailable while analysis is still pending.
type Source interface {
	GetTranscript(ctx context.Context, videoID string) (*Transcript, error)
}

// CatalogSource reads the transcript blob stored on the video row.
type CatalogSource struct {
	repo catalog.Repository
}

func NewCatalogSource(repo catalog.Repository) *CatalogSource {
	return &CatalogSource{repo: repo}
}

func (s *CatalogSource) GetTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	v, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, catalog.ErrNotFound
	}
	if !v.HasTranscript() {
		return nil, ErrNotAvailable
	}
	return Parse([]byte(v.TranscriptJSON))
}

// Chain asks each source in turn and returns the first transcript found.
// ErrNotAvailable moves on to the next source; any other error stops.
type Chain []Source

func (c Chain) GetTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	for _, src := range c {
		tr, err := src.GetTranscript(ctx, videoID)
		if err == nil {
			return tr, nil
		}
		if !errors.Is(err, ErrNotAvailable) {
			return nil, err
		}
	}
	return nil, ErrNotAvailable
}
