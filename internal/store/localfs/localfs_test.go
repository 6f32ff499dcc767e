package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s, err := New(dir, "http://localhost:8080/images/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := s.Put(context.Background(), "a.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://localhost:8080/images/a.png" {
		t.Fatalf("unexpected url: %s", url)
	}
	b, err := os.ReadFile(filepath.Join(dir, "a.png"))
	if err != nil || string(b) != "png" {
		t.Fatalf("unexpected file contents %q: %v", b, err)
	}

	if _, err := s.Put(context.Background(), "a.png", "image/png", []byte("again")); err == nil {
		t.Fatal("expected error when the object already exists")
	}
}

func TestPut_RejectsPaths(t *testing.T) {
	s, err := New(t.TempDir(), "/images")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"", "../x.png", "sub/x.png", ".."} {
		if _, err := s.Put(context.Background(), name, "", nil); err == nil {
			t.Errorf("Put(%q): expected error", name)
		}
	}
}
