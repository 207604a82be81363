// Package storetest holds the behavior every store.Store must show.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/Reposoft/repos-deltav-sub000/store"
	"github.com/google/go-cmp/cmp"
)

// Run exercises s. It leaves s open.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	keys := []string{"docs/a.xml", "b", "with space/and?query#frag"}

	for _, k := range keys {
		ok, err := s.Has(ctx, k)
		if err != nil {
			t.Fatalf("Has(%q): %v", k, err)
		}
		if ok {
			t.Errorf("Has(%q) before Put", k)
		}
		if _, err := s.Get(ctx, k); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get(%q) before Put: %v, want ErrNotFound", k, err)
		}
	}
	for i, k := range keys {
		if err := s.Put(ctx, k, []byte{'<', byte('a' + i), '/', '>'}); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	for i, k := range keys {
		ok, err := s.Has(ctx, k)
		if err != nil || !ok {
			t.Errorf("Has(%q) = %v, %v", k, ok, err)
		}
		got, err := s.Get(ctx, k)
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if diff := cmp.Diff([]byte{'<', byte('a' + i), '/', '>'}, got); diff != "" {
			t.Errorf("Get(%q) mismatch (-want +got):\n%s", k, diff)
		}
	}

	// Overwrite, and make sure the store does not alias caller memory.
	data := []byte("<new/>")
	if err := s.Put(ctx, keys[0], data); err != nil {
		t.Fatal(err)
	}
	data[1] = 'x'
	got, err := s.Get(ctx, keys[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<new/>" {
		t.Errorf("Get after overwrite = %q", got)
	}
	if err := s.Put(ctx, "", data); err == nil {
		t.Error("Put with empty key succeeded")
	}
}
