package kv_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/tanuki-sh/luahost/pkg/kv"
)

// exerciseStore runs the common Store behavior checks against any backend.
func exerciseStore(t *testing.T, s kv.Store) {
	t.Helper()
	ctx := context.Background()

	// Get non-existent key.
	_, err := s.Get(ctx, "user/profile/123")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Set and Get.
	if err := s.Set(ctx, "user/profile/123", []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "user/profile/123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Get = %q, want %q", got, "hello")
	}

	// Overwrite.
	if err := s.Set(ctx, "user/profile/123", []byte("world")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err = s.Get(ctx, "user/profile/123")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if string(got) != "world" {
		t.Fatalf("Get = %q, want %q", got, "world")
	}

	// Delete.
	if err := s.Delete(ctx, "user/profile/123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = s.Get(ctx, "user/profile/123")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Delete non-existent key should not error.
	if err := s.Delete(ctx, "no/such/key"); err != nil {
		t.Fatalf("Delete non-existent: %v", err)
	}
}

// exerciseScan runs the common Scan behavior checks against any backend.
func exerciseScan(t *testing.T, s kv.Store) {
	t.Helper()
	ctx := context.Background()

	seed := map[string]string{
		"m1/e/alice": "a",
		"m1/e/bob":   "b",
		"m1/r/x":     "r1",
		"m2/e/carol": "c",
	}
	for k, v := range seed {
		if err := s.Set(ctx, k, []byte(v)); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	var got []string
	for entry, err := range s.Scan(ctx, "m1/e/") {
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		got = append(got, entry.Key+"="+string(entry.Value))
	}
	want := []string{"m1/e/alice=a", "m1/e/bob=b"}
	if !slices.Equal(got, want) {
		t.Fatalf("Scan m1/e/ = %v, want %v", got, want)
	}

	got = nil
	for entry, err := range s.Scan(ctx, "") {
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		got = append(got, entry.Key)
	}
	if len(got) != len(seed) {
		t.Fatalf("Scan all: got %d entries, want %d: %v", len(got), len(seed), got)
	}
	if !slices.IsSorted(got) {
		t.Fatalf("Scan all: keys not sorted: %v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	s := kv.NewMemory()
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestMemoryScan(t *testing.T) {
	s := kv.NewMemory()
	t.Cleanup(func() { s.Close() })
	exerciseScan(t, s)
}

func TestMemoryValueIsolation(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemory()
	t.Cleanup(func() { s.Close() })

	original := []byte("original")
	if err := s.Set(ctx, "iso", original); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Mutating the original slice must not affect the store.
	original[0] = 'X'
	got, err := s.Get(ctx, "iso")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[0] != 'o' {
		t.Fatal("store value was mutated via original slice")
	}

	// Mutating the returned slice must not affect the store.
	got[0] = 'Y'
	got2, _ := s.Get(ctx, "iso")
	if got2[0] != 'o' {
		t.Fatal("store value was mutated via returned slice")
	}
}
