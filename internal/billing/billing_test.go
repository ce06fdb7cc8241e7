package billing

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
)

func setupGate(t *testing.T, cost int) *SQLGate {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewSQLGate(database.Conn(), database.Dialect(), cost)
}

func TestSQLGate_ReserveAndDeny(t *testing.T) {
	gate := setupGate(t, 2)
	ctx := context.Background()

	if _, err := gate.Grant(ctx, "u1", 3); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	d, err := gate.CheckAndReserve(ctx, "u1", ActionCutDetection)
	if err != nil {
		t.Fatalf("CheckAndReserve() error = %v", err)
	}
	if !d.Allowed || d.Required != 2 || d.Available != 1 {
		t.Errorf("first decision = %+v", d)
	}

	d, err = gate.CheckAndReserve(ctx, "u1", ActionCutDetection)
	if err != nil {
		t.Fatalf("CheckAndReserve() error = %v", err)
	}
	if d.Allowed || d.Required != 2 || d.Available != 1 {
		t.Errorf("second decision = %+v", d)
	}
	if !errors.Is(d.Err(), ErrInsufficientCredits) {
		t.Errorf("Err() = %v, want ErrInsufficientCredits", d.Err())
	}
}

func TestSQLGate_UnknownUserDenied(t *testing.T) {
	gate := setupGate(t, 1)
	d, err := gate.CheckAndReserve(context.Background(), "nobody", ActionCutDetection)
	if err != nil {
		t.Fatalf("CheckAndReserve() error = %v", err)
	}
	if d.Allowed || d.Available != 0 {
		t.Errorf("decision = %+v", d)
	}
}

func TestSQLGate_FreeActionAlwaysAllowed(t *testing.T) {
	gate := setupGate(t, 0)
	d, err := gate.CheckAndReserve(context.Background(), "nobody", ActionCutDetection)
	if err != nil {
		t.Fatalf("CheckAndReserve() error = %v", err)
	}
	if !d.Allowed || d.Err() != nil {
		t.Errorf("decision = %+v", d)
	}
}

func TestSQLGate_Refund(t *testing.T) {
	gate := setupGate(t, 1)
	ctx := context.Background()
	gate.Grant(ctx, "u1", 1)

	if d, _ := gate.CheckAndReserve(ctx, "u1", ActionCutDetection); !d.Allowed {
		t.Fatalf("expected reservation to succeed: %+v", d)
	}
	if err := gate.Refund(ctx, "u1", ActionCutDetection); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if b, _ := gate.Balance(ctx, "u1"); b != 1 {
		t.Errorf("Balance() = %d, want 1", b)
	}
}

func TestSQLGate_ConcurrentReservationsNeverOverdraw(t *testing.T) {
	gate := setupGate(t, 1)
	ctx := context.Background()
	gate.Grant(ctx, "u1", 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := gate.CheckAndReserve(ctx, "u1", ActionCutDetection)
			if err != nil {
				t.Errorf("CheckAndReserve() error = %v", err)
				return
			}
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Errorf("allowed = %d, want 5", allowed)
	}
	if b, _ := gate.Balance(ctx, "u1"); b != 0 {
		t.Errorf("Balance() = %d, want 0", b)
	}
}

func TestGrant_RequiresUser(t *testing.T) {
	gate := setupGate(t, 1)
	if _, err := gate.Grant(context.Background(), "", 1); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestUnmetered(t *testing.T) {
	var g Gate = Unmetered{}
	d, err := g.CheckAndReserve(context.Background(), "u", ActionCutDetection)
	if err != nil || !d.Allowed {
		t.Errorf("Unmetered decision = %+v, %v", d, err)
	}
}
