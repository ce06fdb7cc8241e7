package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/billing"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/detect"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/events"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/llm"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/logging"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/media"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	// onCall, when set, replaces the canned reply.
	onCall func(ctx context.Context) error
}

func (f *fakeCompleter) Complete(ctx context.Context, _ string, _ string, _ llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.onCall != nil {
		return "", f.onCall(ctx)
	}
	return f.response, f.err
}

type testEnv struct {
	t         *testing.T
	db        *db.DB
	cfg       ServerConfig
	router    http.Handler
	catalog   *catalog.Service
	cuts      *cuts.Service
	gate      *billing.SQLGate
	completer *fakeCompleter
	token     string
	video     *catalog.Video
}

// sixtySecondTranscript has one word per second.
func sixtySecondTranscript() string {
	words := make([]string, 60)
	for i := range words {
		words[i] = fmt.Sprintf(`{"text":"w%d","start":%d,"end":%d}`, i, i*1000, i*1000+400)
	}
	return `{"words":[` + strings.Join(words, ",") + `]}`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger := logging.Discard()
	catalogRepo := catalog.NewRepository(database.Conn(), database.Dialect())
	catalogSvc := catalog.NewService(catalogRepo, logger)
	cutSvc := cuts.NewService(cuts.NewRepository(database.Conn(), database.Dialect()), events.Nop{}, logger)
	gate := billing.NewSQLGate(database.Conn(), database.Dialect(), 1)
	completer := &fakeCompleter{response: `{"removed_segments":[]}`}

	ctx := context.Background()
	video, err := catalogSvc.ImportVideo(ctx, &catalog.Video{
		OwnerID:         "user-1",
		Title:           "Launch Demo",
		DurationSeconds: 60,
		TranscriptJSON:  sixtySecondTranscript(),
	})
	if err != nil {
		t.Fatalf("ImportVideo() error = %v", err)
	}
	token, err := catalogSvc.IssueToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	cfg := ServerConfig{
		Catalog:     catalogSvc,
		Cuts:        cutSvc,
		Detector:    detect.New(completer, detect.Config{ChunkSeconds: 180, Concurrency: 2}, logger),
		Transcripts: transcript.NewCatalogSource(catalogRepo),
		Credits:     gate,
		Media:       media.NewStreamer(logger),
		DB:          database,
		Logger:      logger,
		StartTime:   time.Now(),
		Version:     "test",
	}

	return &testEnv{
		t:         t,
		db:        database,
		cfg:       cfg,
		router:    NewRouter(cfg),
		catalog:   catalogSvc,
		cuts:      cutSvc,
		gate:      gate,
		completer: completer,
		token:     token,
		video:     video,
	}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedCuts(candidates ...cuts.Candidate) []*cuts.Cut {
	e.t.Helper()
	created, err := e.cuts.CreateMany(context.Background(), e.video.ID, "user-1", candidates)
	if err != nil {
		e.t.Fatalf("CreateMany() error = %v", err)
	}
	return created
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rr.Body.String(), err)
	}
	return body
}

func decodeInto[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rr.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status code = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	if got := decodeJSONBody(t, rr)["code"]; got != code {
		t.Fatalf("code = %v, want %s", got, code)
	}
}
