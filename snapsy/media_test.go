package snapsy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *MediaStore {
	t.Helper()
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore: %v", err)
	}
	return store
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return entries
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sunset", "Sunset"},
		{"my holiday photo", "my-holiday-photo"},
		{"  padded   out  ", "padded-out"},
		{"weird/|\\name", "weird___name"},
		{"under_score-keep", "under_score-keep"},
		{"", ""},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoreUsesLabelPrefix(t *testing.T) {
	store := newTestStore(t)
	name, err := store.Store(strings.NewReader("fake image bytes"), "IMG_1234.JPG", "image/jpeg", "Sunset")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(name, "Sunset-") {
		t.Errorf("stored name %q should start with Sunset-", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("stored name %q should keep the lowercased extension", name)
	}
	if !store.Has(name) {
		t.Errorf("stored file %q should exist", name)
	}
}

func TestStoreFallsBackToOriginalName(t *testing.T) {
	store := newTestStore(t)
	name, err := store.Store(strings.NewReader("bytes"), "beach day.png", "image/png", "")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(name, "beach-day-") {
		t.Errorf("stored name %q should start with beach-day-", name)
	}
}

func TestStoreGeneratesDistinctNames(t *testing.T) {
	store := newTestStore(t)
	a, err := store.Store(strings.NewReader("one"), "x.png", "image/png", "same")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	b, err := store.Store(strings.NewReader("two"), "x.png", "image/png", "same")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if a == b {
		t.Errorf("two stores produced the same name %q", a)
	}
}

func TestStoreRejectsUnsupportedType(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Store(strings.NewReader("#!/bin/sh"), "evil.sh", "application/x-sh", "")
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("err = %v, want ErrUnsupportedMediaType", err)
	}
	if got := dirEntries(t, store.Dir()); len(got) != 0 {
		t.Errorf("store dir should be empty, has %d entries", len(got))
	}
}

func TestStoreRejectsOversizedPayload(t *testing.T) {
	store := newTestStore(t)
	store.maxBytes = 8
	_, err := store.Store(strings.NewReader("well over eight bytes"), "big.mp4", "video/mp4", "")
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
	if got := dirEntries(t, store.Dir()); len(got) != 0 {
		t.Errorf("oversized upload must leave nothing behind, found %d entries", len(got))
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	name, err := store.Store(strings.NewReader("bytes"), "a.png", "image/png", "")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Delete(name); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := store.Delete(name); err != nil {
		t.Fatalf("second Delete of missing file should be a no-op, got %v", err)
	}
	if err := store.Delete(""); err != nil {
		t.Fatalf("Delete of empty name should be a no-op, got %v", err)
	}
}

func TestDeleteNeverEscapesDir(t *testing.T) {
	store := newTestStore(t)
	outside := filepath.Join(filepath.Dir(store.Dir()), "outside.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := store.Delete("../outside.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the media dir was deleted")
	}
}
