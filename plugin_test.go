package prestatic

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
)

// TestNew_EmptyRootDir tests config validation
func TestNew_EmptyRootDir(t *testing.T) {
	if _, err := New(context.Background(), http.NotFoundHandler(), CreateConfig(), "test"); err == nil {
		t.Error("expected error for empty rootdir")
	}
}

// TestNew_ServesAndFallsThrough tests the middleware form over a real directory
func TestNew_ServesAndFallsThrough(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.js"), "let a;")
	writeFile(t, filepath.Join(dir, "app.js.gz"), "gz")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	cfg := CreateConfig()
	cfg.RootDir = dir
	cfg.Fallthrough = true
	h, err := New(context.Background(), next, cfg, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := doRequest(h, "/app.js", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("expected gzip 200, got %d %q", w.Code, w.Header().Get("Content-Encoding"))
	}

	w = doRequest(h, "/missing.js", nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("expected fallthrough status %d, got %d", http.StatusAccepted, w.Code)
	}
}
