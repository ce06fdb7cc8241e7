package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/logging"
)

func TestParseByteRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantOK    bool
		wantErr   error
	}{
		{"no header", "", 1000, 0, 0, false, nil},
		{"full", "bytes=0-999", 1000, 0, 999, true, nil},
		{"open ended", "bytes=500-", 1000, 500, 999, true, nil},
		{"suffix", "bytes=-500", 1000, 500, 999, true, nil},
		{"suffix larger than file", "bytes=-2000", 500, 0, 499, true, nil},
		{"end clamped", "bytes=0-2000", 1000, 0, 999, true, nil},
		{"first of many", "bytes=0-99, 200-299", 1000, 0, 99, true, nil},
		{"start past end of file", "bytes=1000-", 1000, 0, 0, false, ErrUnsatisfiable},
		{"inverted", "bytes=300-200", 1000, 0, 0, false, ErrUnsatisfiable},
		{"wrong unit", "items=0-10", 1000, 0, 0, false, ErrInvalidRange},
		{"no dash", "bytes=100", 1000, 0, 0, false, ErrInvalidRange},
		{"bad start", "bytes=x-10", 1000, 0, 0, false, ErrInvalidRange},
		{"bad end", "bytes=0-y", 1000, 0, 0, false, ErrInvalidRange},
		{"zero suffix", "bytes=-0", 1000, 0, 0, false, ErrInvalidRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, ok, err := ParseByteRange(tc.header, tc.size)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && (r.Start != tc.wantStart || r.End != tc.wantEnd) {
				t.Errorf("range = %d-%d, want %d-%d", r.Start, r.End, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func writeMedia(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func TestStream_FullAndRanged(t *testing.T) {
	s := NewStreamer(logging.Discard())
	path := writeMedia(t)

	rr := httptest.NewRecorder()
	if err := s.Stream(rr, httptest.NewRequest(http.MethodGet, "/media", nil), path); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if rr.Code != http.StatusOK || rr.Body.String() != "0123456789" || rr.Header().Get("Accept-Ranges") != "bytes" {
		t.Errorf("full response = %d %q", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req.Header.Set("Range", "bytes=2-4")
	rr = httptest.NewRecorder()
	if err := s.Stream(rr, req, path); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if rr.Code != http.StatusPartialContent || rr.Body.String() != "234" {
		t.Errorf("ranged response = %d %q", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 2-4/10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestStream_UnsatisfiableAndHead(t *testing.T) {
	s := NewStreamer(nil)
	path := writeMedia(t)

	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req.Header.Set("Range", "bytes=50-")
	rr := httptest.NewRecorder()
	s.Stream(rr, req, path)
	if rr.Code != http.StatusRequestedRangeNotSatisfiable || rr.Header().Get("Content-Range") != "bytes */10" {
		t.Errorf("response = %d, Content-Range %q", rr.Code, rr.Header().Get("Content-Range"))
	}

	rr = httptest.NewRecorder()
	s.Stream(rr, httptest.NewRequest(http.MethodHead, "/media", nil), path)
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 || rr.Header().Get("Content-Length") != "10" {
		t.Errorf("HEAD response = %d, body %d bytes", rr.Code, rr.Body.Len())
	}
}

func TestStream_Missing(t *testing.T) {
	s := NewStreamer(nil)
	rr := httptest.NewRecorder()
	err := s.Stream(rr, httptest.NewRequest(http.MethodGet, "/media", nil), filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, ErrNoMedia) {
		t.Fatalf("error = %v, want ErrNoMedia", err)
	}
}

func TestFFprobe_Duration(t *testing.T) {
	var gotArgs []string
	p := NewFFprobe("")
	p.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("123.456\n"), nil
	}

	d, err := p.Duration(context.Background(), "/videos/a.mp4")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if d != 123.456 {
		t.Errorf("Duration() = %v", d)
	}
	if gotArgs[0] != "ffprobe" || gotArgs[len(gotArgs)-1] != "/videos/a.mp4" {
		t.Errorf("args = %v", gotArgs)
	}

	p.run = func(context.Context, string, ...string) ([]byte, error) { return []byte("N/A"), nil }
	if _, err := p.Duration(context.Background(), "x"); err == nil {
		t.Error("expected parse error")
	}
	p.run = func(context.Context, string, ...string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, err := p.Duration(context.Background(), "x"); err == nil {
		t.Error("expected exec error")
	}
}
