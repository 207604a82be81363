package main

import (
	"strings"
	"testing"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/vfile"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/google/go-cmp/cmp"
)

func TestWriteDiff(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    string
		changed bool
	}{
		{
			name: "same",
			a:    "<a>\n  <b/>\n</a>\n",
			b:    "<a>\n  <b/>\n</a>\n",
			want: " <a>\n   <b/>\n </a>\n",
		},
		{
			name:    "insert",
			a:       "<a>\n  <b/>\n</a>\n",
			b:       "<a>\n  <b/>\n  <c/>\n</a>\n",
			want:    " <a>\n   <b/>\n+  <c/>\n </a>\n",
			changed: true,
		},
		{
			name:    "replace",
			a:       "<a>\n  <b/>\n</a>",
			b:       "<a>\n  <c/>\n</a>",
			want:    " <a>\n-  <b/>\n+  <c/>\n </a>\n",
			changed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			changed, err := writeDiff(&b, tt.a, tt.b, newPalette(false))
			if err != nil {
				t.Fatal(err)
			}
			if changed != tt.changed {
				t.Errorf("changed = %v", changed)
			}
			if diff := cmp.Diff(tt.want, b.String()); diff != "" {
				t.Errorf("diff output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteNode(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ix, err := vfile.NormalizeDocument(xdom.MustParse(`<a x="1"><b/></a>`), t0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Update(xdom.MustParse(`<a x="1"><b/></a>`), xdom.MustParse(`<a x="1"/>`), t0.Add(time.Minute), 2); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	p := newPalette(false)
	if err := ix.Walk(func(n vfile.Node) error {
		writeNode(&b, n, true, p)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	want := `/a[1] [1,NOW)
/a[1]/@x [1,NOW) "1"
/a[1]/b[1] [1,2)
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}
