package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammad-safakhou/researcher/config"
)

func TestFileBackendMissingDocument(t *testing.T) {
	t.Parallel()
	b := NewFileBackend(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := b.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	n, err := b.Size(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected size 0, got %d (%v)", n, err)
	}
}

func TestFileBackendSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	b := NewFileBackend(path)
	ctx := context.Background()

	if err := b.Save(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := b.Save(ctx, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	data, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Fatalf("unexpected document %s", data)
	}
	n, err := b.Size(ctx)
	if err != nil || n != int64(len(`{"a":2}`)) {
		t.Fatalf("unexpected size %d (%v)", n, err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "doc.json")
	b, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendFile}, "doc", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Location() != path {
		t.Fatalf("expected file backend at %s, got %s", path, b.Location())
	}
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "etcd"}, "doc", path); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}
