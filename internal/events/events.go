// Package events publishes cut-state changes to interested listeners.
// Publishers are best-effort: a failed publish never undoes a mutation.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	TypeCutsCreated = "cuts.created"
	TypeCutsUpdated = "cuts.updated"
	TypeCutsDeleted = "cuts.deleted"
	TypeBulkApplied = "cuts.bulk_applied"
)

type Event struct {
	Type        string    `json:"type"`
	VideoID     string    `json:"videoId"`
	CutIDs      []string  `json:"cutIds,omitempty"`
	Count       int       `json:"count"`
	OperationID string    `json:"operationId,omitempty"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
