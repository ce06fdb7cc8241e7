package cuts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
)

type Repository interface {
	InsertCuts(ctx context.Context, cuts []*Cut) error
	ListCuts(ctx context.Context, videoID string, active *bool) ([]*Cut, error)
	SetActive(ctx context.Context, videoID string, ids []string, active bool, bulkOperationID string) ([]string, error)
	ApplyBulkOperation(ctx context.Context, op *BulkOperation, sel Selection, activate bool) ([]string, error)
	DeleteCuts(ctx context.Context, videoID string, ids []string) ([]string, error)
	ListBulkOperations(ctx context.Context, videoID string) ([]*BulkOperation, error)
}

type SQLRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, dialect: dialect}
}

const cutColumns = `id, video_id, source_start, source_end, cut_type, confidence, reasoning, affected_text,
	is_active, bulk_operation_id, created_by, created_at, updated_at`

// InsertCuts writes all cuts in one transaction. It fails with
// ErrVideoNotFound when a cut names a video that does not exist.
func (r *SQLRepository) InsertCuts(ctx context.Context, cuts []*Cut) error {
	if len(cuts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	checked := make(map[string]bool)
	for _, c := range cuts {
		if checked[c.VideoID] {
			continue
		}
		var one int
		err := tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT 1 FROM videos WHERE id = ?`), c.VideoID).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", ErrVideoNotFound, c.VideoID)
		}
		if err != nil {
			return fmt.Errorf("check video %s: %w", c.VideoID, err)
		}
		checked[c.VideoID] = true
	}

	stmt, err := tx.PrepareContext(ctx, r.dialect.Rebind(`
		INSERT INTO cuts (`+cutColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cuts {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.VideoID, c.SourceStart, c.SourceEnd, string(c.Type), c.Confidence,
			c.Reasoning, c.AffectedText, boolToInt(c.IsActive), nullString(c.BulkOperationID),
			nullString(c.CreatedBy), db.FormatTime(c.CreatedAt), db.FormatTime(c.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert cut %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// ListCuts returns the video's cuts ordered by source start. A nil active
// filter returns every cut.
func (r *SQLRepository) ListCuts(ctx context.Context, videoID string, active *bool) ([]*Cut, error) {
	query := `SELECT ` + cutColumns + ` FROM cuts WHERE video_id = ?`
	args := []any{videoID}
	if active != nil {
		query += ` AND is_active = ?`
		args = append(args, boolToInt(*active))
	}
	query += ` ORDER BY source_start ASC, source_end ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cuts []*Cut
	for rows.Next() {
		c, err := scanCut(rows)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, c)
	}
	return cuts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCut(row scanner) (*Cut, error) {
	var c Cut
	var cutType string
	var active int
	var bulkOp, createdBy sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&c.ID, &c.VideoID, &c.SourceStart, &c.SourceEnd, &cutType, &c.Confidence,
		&c.Reasoning, &c.AffectedText, &active, &bulkOp, &createdBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Type = Category(cutType)
	c.IsActive = active == 1
	c.BulkOperationID = bulkOp.String
	c.CreatedBy = createdBy.String
	c.CreatedAt = db.ParseTime(createdAt)
	c.UpdatedAt = db.ParseTime(updatedAt)
	return &c, nil
}

// SetActive flips is_active for the named cuts of videoID and returns the IDs
// it changed. IDs belonging to other videos are ignored. An empty
// bulkOperationID leaves the stored correlation id untouched.
func (r *SQLRepository) SetActive(ctx context.Context, videoID string, ids []string, active bool, bulkOperationID string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	owned, _, err := r.selectForUpdate(ctx, tx, videoID, Selection{CutIDs: ids})
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, nil
	}
	if _, err := r.updateActive(ctx, tx, videoID, owned, active, bulkOperationID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return owned, nil
}

func (r *SQLRepository) updateActive(ctx context.Context, tx *sql.Tx, videoID string, ids []string, active bool, bulkOperationID string) (int, error) {
	args := []any{boolToInt(active), nullString(bulkOperationID), db.FormatTime(time.Now()), videoID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE cuts SET is_active = ?, bulk_operation_id = COALESCE(?, bulk_operation_id), updated_at = ?
		WHERE video_id = ? AND id IN (`+db.Placeholders(len(ids))+`)
	`), args...)
	if err != nil {
		return 0, fmt.Errorf("update cuts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ApplyBulkOperation selects the matching cuts, sets them to activate,
// fills in op's counts and stores op, all in one transaction. It returns the
// affected cut IDs.
func (r *SQLRepository) ApplyBulkOperation(ctx context.Context, op *BulkOperation, sel Selection, activate bool) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ids, saved, err := r.selectForUpdate(ctx, tx, op.VideoID, sel)
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		if _, err := r.updateActive(ctx, tx, op.VideoID, ids, activate, op.ID); err != nil {
			return nil, err
		}
	}
	op.CutsAffected = len(ids)
	op.TimeSavedSeconds = saved

	criteria, err := json.Marshal(op.InputCriteria)
	if err != nil {
		return nil, fmt.Errorf("marshal criteria: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO bulk_operations (id, video_id, operation_type, input_criteria, cuts_affected, time_saved_seconds, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), op.ID, op.VideoID, string(op.OperationType), string(criteria), op.CutsAffected, op.TimeSavedSeconds,
		nullString(op.CreatedBy), db.FormatTime(op.CreatedAt)); err != nil {
		return nil, fmt.Errorf("insert bulk operation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

func (r *SQLRepository) selectForUpdate(ctx context.Context, tx *sql.Tx, videoID string, sel Selection) ([]string, float64, error) {
	var where []string
	args := []any{videoID}
	where = append(where, "video_id = ?")

	if len(sel.CutIDs) > 0 {
		where = append(where, "id IN ("+db.Placeholders(len(sel.CutIDs))+")")
		for _, id := range sel.CutIDs {
			args = append(args, id)
		}
	}
	if len(sel.Categories) > 0 {
		where = append(where, "cut_type IN ("+db.Placeholders(len(sel.Categories))+")")
		for _, c := range sel.Categories {
			args = append(args, string(c))
		}
	}
	if sel.MinConfidence != nil {
		where = append(where, "confidence >= ?")
		args = append(args, *sel.MinConfidence)
	}
	if sel.Active != nil {
		where = append(where, "is_active = ?")
		args = append(args, boolToInt(*sel.Active))
	}

	rows, err := tx.QueryContext(ctx, r.dialect.Rebind(`
		SELECT id, source_start, source_end FROM cuts WHERE `+strings.Join(where, " AND ")+`
		ORDER BY source_start ASC
	`), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select cuts: %w", err)
	}
	defer rows.Close()

	var ids []string
	var saved float64
	for rows.Next() {
		var id string
		var start, end float64
		if err := rows.Scan(&id, &start, &end); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
		saved += end - start
	}
	return ids, saved, rows.Err()
}

// DeleteCuts removes the named cuts of videoID and returns the IDs it
// removed.
func (r *SQLRepository) DeleteCuts(ctx context.Context, videoID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	owned, _, err := r.selectForUpdate(ctx, tx, videoID, Selection{CutIDs: ids})
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, nil
	}

	args := []any{videoID}
	for _, id := range owned {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`
		DELETE FROM cuts WHERE video_id = ? AND id IN (`+db.Placeholders(len(owned))+`)
	`), args...); err != nil {
		return nil, fmt.Errorf("delete cuts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return owned, nil
}

// ListBulkOperations returns the video's audit records, newest first.
func (r *SQLRepository) ListBulkOperations(ctx context.Context, videoID string) ([]*BulkOperation, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
		SELECT id, video_id, operation_type, input_criteria, cuts_affected, time_saved_seconds, created_by, created_at
		FROM bulk_operations WHERE video_id = ? ORDER BY created_at DESC, id DESC
	`), videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []*BulkOperation
	for rows.Next() {
		var op BulkOperation
		var opType, criteria, createdAt string
		var createdBy sql.NullString
		if err := rows.Scan(&op.ID, &op.VideoID, &opType, &criteria, &op.CutsAffected, &op.TimeSavedSeconds, &createdBy, &createdAt); err != nil {
			return nil, err
		}
		op.OperationType = OperationType(opType)
		op.CreatedBy = createdBy.String
		op.CreatedAt = db.ParseTime(createdAt)
		if err := json.Unmarshal([]byte(criteria), &op.InputCriteria); err != nil {
			return nil, fmt.Errorf("decode criteria for %s: %w", op.ID, err)
		}
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
