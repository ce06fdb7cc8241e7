package catalog

import (
	"context"
	"testing"
	"time"
)

func TestRepository_Config(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	ctx := context.Background()
	if v, err := repo.GetConfig(ctx, "missing"); err != nil || v != "" {
		t.Errorf("GetConfig(missing) = %q, %v", v, err)
	}
	if err := repo.SetConfig(ctx, "k", "1"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := repo.SetConfig(ctx, "k", "2"); err != nil {
		t.Fatalf("SetConfig() overwrite error = %v", err)
	}
	if v, _ := repo.GetConfig(ctx, "k"); v != "2" {
		t.Errorf("GetConfig(k) = %q, want 2", v)
	}
}

func TestRepository_GetVideo_NotFound(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	v, err := repo.GetVideo(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if v != nil {
		t.Errorf("GetVideo() = %+v, want nil", v)
	}
}

func TestRepository_UpdateAnalysisStatus(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	ctx := context.Background()
	now := time.Now()
	if err := repo.CreateVideo(ctx, &Video{ID: "v1", OwnerID: "u", AnalysisStatus: AnalysisPending, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}
	if err := repo.UpdateAnalysisStatus(ctx, "v1", AnalysisProcessing); err != nil {
		t.Fatalf("UpdateAnalysisStatus() error = %v", err)
	}
	v, _ := repo.GetVideo(ctx, "v1")
	if v.AnalysisStatus != AnalysisProcessing {
		t.Errorf("AnalysisStatus = %s, want processing", v.AnalysisStatus)
	}
	if v.HasTranscript() {
		t.Error("HasTranscript() = true for processing video")
	}
}
