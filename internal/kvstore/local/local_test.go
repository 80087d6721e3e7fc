package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fruitsalade/saladefs/internal/kvstore"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := New(Config{
		RootPath:   t.TempDir(),
		Collection: "trees",
		CreateDirs: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []byte(`{"name":"","kind":"dir","entries":{}}`)
	if err := s.Put(ctx, "fs", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "fs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Get = %q, want %q", got, want)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("Get missing key: err = %v, want ErrNotFound", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "fs", []byte("one")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "fs", []byte("two")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "fs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("Get = %q, want %q", got, "two")
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(context.Background(), "fs", []byte("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(s.dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "fs" {
		t.Errorf("collection dir = %v, want exactly [fs]", entries)
	}
}

func TestOpenMissingDirWithoutCreate(t *testing.T) {
	s, err := New(Config{
		RootPath:   filepath.Join(t.TempDir(), "absent"),
		Collection: "trees",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Open(context.Background()); err == nil {
		t.Error("Open succeeded with missing dir and CreateDirs=false")
	}
}

func TestNewRejectsEmptyConfig(t *testing.T) {
	if _, err := New(Config{Collection: "trees"}); err == nil {
		t.Error("New accepted empty root_path")
	}
	if _, err := New(Config{RootPath: "/tmp"}); err == nil {
		t.Error("New accepted empty collection")
	}
}
