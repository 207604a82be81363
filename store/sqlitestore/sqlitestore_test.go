package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Reposoft/repos-deltav-sub000/store/storetest"
)

func TestFile(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "idx.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	storetest.Run(t, s)
}

func TestMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	storetest.Run(t, s)
	// migrations are idempotent
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
}
