package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func setupStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range setupStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
				t.Errorf("Get(missing) = ok=%v err=%v, want miss without error", ok, err)
			}

			if err := store.Set(ctx, "k", []byte("v1")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := store.Set(ctx, "k", []byte("v2")); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}

			got, ok, err := store.Get(ctx, "k")
			if err != nil || !ok || string(got) != "v2" {
				t.Errorf("Get(k) = %q ok=%v err=%v, want v2", got, ok, err)
			}

			if err := store.Remove(ctx, "k"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if _, ok, _ := store.Get(ctx, "k"); ok {
				t.Error("Get(k) after Remove() still hits")
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for name, store := range setupStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, k := range []string{"a", "b", "c"} {
				if err := store.Set(ctx, k, []byte(k)); err != nil {
					t.Fatalf("Set(%q) error = %v", k, err)
				}
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			for _, k := range []string{"a", "b", "c"} {
				if _, ok, _ := store.Get(ctx, k); ok {
					t.Errorf("Get(%q) after Clear() still hits", k)
				}
			}
		})
	}
}

func TestError_TagsOperation(t *testing.T) {
	inner := errors.New("disk full")
	err := &Error{Op: "set", Key: "k", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is() should reach the wrapped error")
	}
	var se *Error
	if !errors.As(error(err), &se) || se.Op != "set" {
		t.Errorf("errors.As() Op = %q, want set", se.Op)
	}
}
