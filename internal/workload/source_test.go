package workload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSource_File(t *testing.T) {
	content := []byte("workloads:\n  - name: stable-1\n    kind: stable\n")
	path := filepath.Join(t.TempDir(), "workloads.yml")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	src, err := LoadSource(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(src.Body) != string(content) {
		t.Fatalf("unexpected body: %q", src.Body)
	}

	sum := sha256.Sum256(content)
	if src.Digest != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected digest: %s", src.Digest)
	}
}

func TestLoadSource_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("services:\n  cache:\n    image: redis:7\n"))
	}))
	defer server.Close()

	src, err := LoadSource(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(src.Body), "redis:7") {
		t.Fatalf("unexpected body: %q", src.Body)
	}
	if src.Digest == "" {
		t.Fatal("expected a digest")
	}
}

func TestLoadSource_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := LoadSource(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoadSource_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxSourceBytes+1))
	}))
	defer server.Close()

	_, err := LoadSource(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestLoadSource_EmptyContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := LoadSource(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty source error, got %v", err)
	}
}

func TestLoadSource_EmptyRef(t *testing.T) {
	_, err := LoadSource(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestLoadSource_MissingFile(t *testing.T) {
	_, err := LoadSource(context.Background(), filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
