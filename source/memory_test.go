package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.Commit("a", t0, []byte("<a/>"))
	m.Commit("b", t0.Add(time.Hour), []byte("<b/>"))
	m.Skip(3)
	m.Commit("a", t0.Add(2*time.Hour), []byte("<a><x/></a>"))

	revs, err := m.Revisions(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	want := []Revision{
		{Number: 1, Time: t0, ID: "r1"},
		{Number: 6, Time: t0.Add(2 * time.Hour), ID: "r6"},
	}
	if diff := cmp.Diff(want, revs); diff != "" {
		t.Errorf("revisions mismatch (-want +got):\n%s", diff)
	}

	data, err := m.Fetch(ctx, "a", revs[1])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<a><x/></a>" {
		t.Errorf("fetched %q", data)
	}
	if _, err := m.Fetch(ctx, "a", Revision{Number: 2}); !errors.Is(err, ErrRevision) {
		t.Errorf("fetch of foreign revision: %v", err)
	}
	if _, err := m.Revisions(ctx, "c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("revisions of missing key: %v", err)
	}
	if r, ok := Find(revs, 6); !ok || r.ID != "r6" {
		t.Errorf("Find(6) = %v, %v", r, ok)
	}
	if _, ok := Find(revs, 2); ok {
		t.Error("Find(2) found a revision")
	}
}
