package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
)

type Repository interface {
	CreateVideo(ctx context.Context, video *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	ListVideos(ctx context.Context, ownerID string) ([]*Video, error)
	UpdateTranscript(ctx context.Context, id, transcriptJSON, status string) error
	UpdateAnalysisStatus(ctx context.Context, id, status string) error
	DeleteVideo(ctx context.Context, id string) error

	CreateToken(ctx context.Context, token *APIToken) error
	GetUserIDByToken(ctx context.Context, token string) (string, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// SQLRepository works against both SQLite and Postgres; queries are written
// with '?' placeholders and rebound for the connection's dialect.
type SQLRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, dialect: dialect}
}

const videoColumns = `id, owner_id, title, duration_seconds, analysis_status, transcript_json, storage_path, created_at, updated_at`

func (r *SQLRepository) CreateVideo(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), v.ID, v.OwnerID, v.Title, v.DurationSeconds, v.AnalysisStatus,
		nullString(v.TranscriptJSON), nullString(v.StoragePath),
		db.FormatTime(v.CreatedAt), db.FormatTime(v.UpdatedAt))
	return err
}

func (r *SQLRepository) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *SQLRepository) ListVideos(ctx context.Context, ownerID string) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
		SELECT `+videoColumns+` FROM videos WHERE owner_id = ? ORDER BY created_at DESC
	`), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*Video, error) {
	var v Video
	var transcript, storagePath sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.DurationSeconds, &v.AnalysisStatus,
		&transcript, &storagePath, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	v.TranscriptJSON = transcript.String
	v.StoragePath = storagePath.String
	v.CreatedAt = db.ParseTime(createdAt)
	v.UpdatedAt = db.ParseTime(updatedAt)
	return &v, nil
}

func (r *SQLRepository) UpdateTranscript(ctx context.Context, id, transcriptJSON, status string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE videos SET transcript_json = ?, analysis_status = ?, updated_at = ? WHERE id = ?
	`), nullString(transcriptJSON), status, db.FormatTime(time.Now()), id)
	return err
}

func (r *SQLRepository) UpdateAnalysisStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE videos SET analysis_status = ?, updated_at = ? WHERE id = ?
	`), status, db.FormatTime(time.Now()), id)
	return err
}

func (r *SQLRepository) DeleteVideo(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind("DELETE FROM videos WHERE id = ?"), id)
	return err
}

func (r *SQLRepository) CreateToken(ctx context.Context, t *APIToken) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO api_tokens (token, user_id, created_at) VALUES (?, ?, ?)
	`), t.Token, t.UserID, db.FormatTime(t.CreatedAt))
	return err
}

func (r *SQLRepository) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT user_id FROM api_tokens WHERE token = ?"), token).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return userID, err
}

func (r *SQLRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT value FROM config WHERE key = ?"), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`), key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
