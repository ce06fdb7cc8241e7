package cuts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/events"
)

// Service is the cut store: every mutation is scoped to one video and
// announced to the publisher once it has committed. Callers are expected to
// have checked ownership of videoID already.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// CreateMany stores validated candidates as inactive cuts. Duplicates of
// earlier detection runs are not merged.
func (s *Service) CreateMany(ctx context.Context, videoID, createdBy string, candidates []Candidate) ([]*Cut, error) {
	now := s.now()
	cuts := make([]*Cut, 0, len(candidates))
	for i, c := range candidates {
		v, err := Validate(c)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		cuts = append(cuts, &Cut{
			ID:           newID(),
			VideoID:      videoID,
			SourceStart:  v.SourceStart,
			SourceEnd:    v.SourceEnd,
			Type:         v.Type,
			Confidence:   v.Confidence,
			Reasoning:    v.Reasoning,
			AffectedText: v.AffectedText,
			IsActive:     false,
			CreatedBy:    createdBy,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.repo.InsertCuts(ctx, cuts); err != nil {
		return nil, err
	}

	if len(cuts) > 0 {
		s.publish(ctx, events.Event{Type: events.TypeCutsCreated, VideoID: videoID, CutIDs: cutIDs(cuts), Count: len(cuts)})
	}
	return cuts, nil
}

func (s *Service) List(ctx context.Context, videoID string, active *bool) ([]*Cut, error) {
	return s.repo.ListCuts(ctx, videoID, active)
}

func (s *Service) SetActive(ctx context.Context, videoID string, ids []string, active bool, bulkOperationID string) (int, error) {
	changed, err := s.repo.SetActive(ctx, videoID, ids, active, bulkOperationID)
	if err != nil {
		return 0, err
	}
	if len(changed) > 0 {
		s.publish(ctx, events.Event{Type: events.TypeCutsUpdated, VideoID: videoID, CutIDs: changed, Count: len(changed), OperationID: bulkOperationID})
	}
	return len(changed), nil
}

// RestoreAll deactivates every active cut of the video.
func (s *Service) RestoreAll(ctx context.Context, videoID, userID string) (*BulkOperation, error) {
	active := true
	return s.apply(ctx, videoID, userID, OpRestoreAll, Criteria{}, Selection{Active: &active}, false)
}

// SmartCleanup activates the inactive cuts matching the optional category
// filter and confidence floor. Matching nothing is not an error.
func (s *Service) SmartCleanup(ctx context.Context, videoID, userID string, categories []Category, threshold *float64, userPrompt string) (*BulkOperation, error) {
	inactive := false
	criteria := Criteria{Categories: categories, ConfidenceThreshold: threshold, UserPrompt: userPrompt}
	sel := Selection{Categories: categories, MinConfidence: threshold, Active: &inactive}
	return s.apply(ctx, videoID, userID, OpSmartCleanup, criteria, sel, true)
}

// ManualSelection sets the listed cuts to active and records the action.
func (s *Service) ManualSelection(ctx context.Context, videoID, userID string, ids []string, active bool) (*BulkOperation, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	criteria := Criteria{CutIDs: ids, IsActive: &active}
	return s.apply(ctx, videoID, userID, OpManualSelection, criteria, Selection{CutIDs: ids}, active)
}

func (s *Service) apply(ctx context.Context, videoID, userID string, opType OperationType, criteria Criteria, sel Selection, activate bool) (*BulkOperation, error) {
	op := &BulkOperation{
		ID:            newID(),
		VideoID:       videoID,
		OperationType: opType,
		InputCriteria: criteria,
		CreatedBy:     userID,
		CreatedAt:     s.now(),
	}

	ids, err := s.repo.ApplyBulkOperation(ctx, op, sel, activate)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("bulk operation applied",
			"video_id", videoID,
			"operation_id", op.ID,
			"operation_type", opType,
			"cuts_affected", op.CutsAffected,
			"time_saved_seconds", op.TimeSavedSeconds,
		)
	}

	if len(ids) > 0 {
		s.publish(ctx, events.Event{Type: events.TypeBulkApplied, VideoID: videoID, CutIDs: ids, Count: len(ids), OperationID: op.ID})
	}
	return op, nil
}

func (s *Service) Delete(ctx context.Context, videoID string, ids []string) (int, error) {
	removed, err := s.repo.DeleteCuts(ctx, videoID, ids)
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		s.publish(ctx, events.Event{Type: events.TypeCutsDeleted, VideoID: videoID, CutIDs: removed, Count: len(removed)})
	}
	return len(removed), nil
}

func (s *Service) Operations(ctx context.Context, videoID string) ([]*BulkOperation, error) {
	return s.repo.ListBulkOperations(ctx, videoID)
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	ev.At = s.now()
	if err := s.publisher.Publish(ctx, ev); err != nil && s.logger != nil {
		s.logger.Warn("failed to publish cut event", "video_id", ev.VideoID, "type", ev.Type, "error", err)
	}
}

func cutIDs(cuts []*Cut) []string {
	ids := make([]string, len(cuts))
	for i, c := range cuts {
		ids[i] = c.ID
	}
	return ids
}
