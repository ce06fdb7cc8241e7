// Package billing gates paid actions on a per-user credit balance.
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// Action names a billable operation.
type Action string

const ActionCutDetection Action = "cut_detection"

// Decision is the outcome of CheckAndReserve. Available is the balance after
// the reservation when allowed, or the current balance when denied.
type Decision struct {
	Allowed   bool
	Required  int
	Available int
}

// Err returns ErrInsufficientCredits for a denied decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: required %d, available %d", ErrInsufficientCredits, d.Required, d.Available)
}

type Gate interface {
	CheckAndReserve(ctx context.Context, userID string, action Action) (Decision, error)
	Refund(ctx context.Context, userID string, action Action) error
}

// Unmetered allows everything. Used when the analysis cost is zero.
type Unmetered struct{}

func (Unmetered) CheckAndReserve(context.Context, string, Action) (Decision, error) {
	return Decision{Allowed: true}, nil
}

func (Unmetered) Refund(context.Context, string, Action) error { return nil }

// SQLGate keeps balances in the credit_balances table. A reservation is a
// single conditional UPDATE, so concurrent requests cannot overdraw.
type SQLGate struct {
	db      *sql.DB
	dialect db.Dialect
	costs   map[Action]int
}

func NewSQLGate(conn *sql.DB, dialect db.Dialect, detectionCost int) *SQLGate {
	return &SQLGate{
		db:      conn,
		dialect: dialect,
		costs:   map[Action]int{ActionCutDetection: detectionCost},
	}
}

// Cost returns the credits charged for action; unknown actions are free.
func (g *SQLGate) Cost(action Action) int {
	return g.costs[action]
}

func (g *SQLGate) CheckAndReserve(ctx context.Context, userID string, action Action) (Decision, error) {
	required := g.Cost(action)
	if required <= 0 {
		available, err := g.Balance(ctx, userID)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Available: available}, nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, g.dialect.Rebind(`
		UPDATE credit_balances SET balance = balance - ?, updated_at = ?
		WHERE user_id = ? AND balance >= ?
	`), required, db.FormatTime(time.Now()), userID, required)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to reserve credits: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Decision{}, err
	}

	available, err := balance(ctx, tx, g.dialect, userID)
	if err != nil {
		return Decision{}, err
	}
	if err := tx.Commit(); err != nil {
		return Decision{}, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return Decision{Allowed: affected == 1, Required: required, Available: available}, nil
}

// Refund returns the cost of action to the user, for runs that failed after
// the reservation was taken.
func (g *SQLGate) Refund(ctx context.Context, userID string, action Action) error {
	cost := g.Cost(action)
	if cost <= 0 {
		return nil
	}
	_, err := g.Grant(ctx, userID, cost)
	return err
}

// Grant adds amount (which may be negative) to the user's balance, creating
// the row if needed, and returns the new balance.
func (g *SQLGate) Grant(ctx context.Context, userID string, amount int) (int, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	_, err := g.db.ExecContext(ctx, g.dialect.Rebind(`
		INSERT INTO credit_balances (user_id, balance, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = credit_balances.balance + excluded.balance,
			updated_at = excluded.updated_at
	`), userID, amount, db.FormatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}
	return g.Balance(ctx, userID)
}

// Balance returns 0 for users without a row.
func (g *SQLGate) Balance(ctx context.Context, userID string) (int, error) {
	return balance(ctx, g.db, g.dialect, userID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balance(ctx context.Context, q queryer, dialect db.Dialect, userID string) (int, error) {
	var b int
	err := q.QueryRowContext(ctx, dialect.Rebind(`SELECT balance FROM credit_balances WHERE user_id = ?`), userID).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return b, nil
}
