package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn(), database.Dialect())
	return database, repo
}

func TestService_ImportVideo(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)

	v, err := svc.ImportVideo(context.Background(), &Video{OwnerID: "user-1", Title: "Demo", DurationSeconds: 60})
	if err != nil {
		t.Fatalf("ImportVideo() error = %v", err)
	}
	if v.ID == "" {
		t.Error("video ID is empty")
	}
	if v.AnalysisStatus != AnalysisPending {
		t.Errorf("AnalysisStatus = %s, want pending", v.AnalysisStatus)
	}

	got, err := repo.GetVideo(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got == nil || got.Title != "Demo" || got.DurationSeconds != 60 {
		t.Errorf("GetVideo() = %+v", got)
	}
}

func TestService_ImportVideo_WithTranscriptIsCompleted(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)
	v, err := svc.ImportVideo(context.Background(), &Video{OwnerID: "user-1", TranscriptJSON: `{"words":[]}`})
	if err != nil {
		t.Fatalf("ImportVideo() error = %v", err)
	}
	if v.AnalysisStatus != AnalysisCompleted {
		t.Errorf("AnalysisStatus = %s, want completed", v.AnalysisStatus)
	}
}

func TestService_ImportVideo_Invalid(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)
	tests := []struct {
		name  string
		video *Video
	}{
		{"missing owner", &Video{Title: "x"}},
		{"negative duration", &Video{OwnerID: "u", DurationSeconds: -1}},
		{"bad status", &Video{OwnerID: "u", AnalysisStatus: "done"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ImportVideo(context.Background(), tc.video); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestService_GetOwnedVideo(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)
	ctx := context.Background()
	v, err := svc.ImportVideo(ctx, &Video{OwnerID: "owner"})
	if err != nil {
		t.Fatalf("ImportVideo() error = %v", err)
	}

	if _, err := svc.GetOwnedVideo(ctx, v.ID, "owner"); err != nil {
		t.Errorf("owner lookup error = %v", err)
	}
	if _, err := svc.GetOwnedVideo(ctx, v.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Errorf("non-owner lookup error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetOwnedVideo(ctx, "missing", "owner"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing lookup error = %v, want ErrNotFound", err)
	}
}

func TestService_AttachTranscript(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)
	ctx := context.Background()
	v, _ := svc.ImportVideo(ctx, &Video{OwnerID: "owner"})

	if err := svc.AttachTranscript(ctx, v.ID, `{"words":[{"text":"hi","start":0,"end":100}]}`); err != nil {
		t.Fatalf("AttachTranscript() error = %v", err)
	}
	got, _ := repo.GetVideo(ctx, v.ID)
	if !got.HasTranscript() {
		t.Errorf("expected transcript to be attached, got status %s", got.AnalysisStatus)
	}

	if err := svc.AttachTranscript(ctx, "missing", "{}"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AttachTranscript(missing) error = %v, want ErrNotFound", err)
	}
}

func TestService_Tokens(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, "user-7")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if len(token) != tokenBytes*2 {
		t.Errorf("token length = %d, want %d", len(token), tokenBytes*2)
	}

	userID, err := svc.ResolveToken(ctx, token)
	if err != nil || userID != "user-7" {
		t.Errorf("ResolveToken() = %q, %v", userID, err)
	}

	userID, err = svc.ResolveToken(ctx, "unknown")
	if err != nil || userID != "" {
		t.Errorf("ResolveToken(unknown) = %q, %v", userID, err)
	}
}

func TestService_ListVideos(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil)
	ctx := context.Background()
	svc.ImportVideo(ctx, &Video{OwnerID: "a", Title: "one"})
	svc.ImportVideo(ctx, &Video{OwnerID: "a", Title: "two"})
	svc.ImportVideo(ctx, &Video{OwnerID: "b", Title: "three"})

	videos, err := svc.ListVideos(ctx, "a")
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("len(videos) = %d, want 2", len(videos))
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := map[string]bool{"a.MP4": true, "b.mov": true, "c.txt": false, "noext": false}
	for name, want := range tests {
		if got := IsVideoFile(name); got != want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", name, got, want)
		}
	}
}
