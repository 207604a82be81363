package vfile

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/xdiff"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func tm(v int64) time.Time {
	return t0.Add(time.Duration(v) * time.Minute)
}

func doc(s string) *etree.Document {
	return xdom.MustParse(s)
}

// history indexes revs as versions 1..n and checks the index after
// every step.
func history(t *testing.T, revs ...string) *Index {
	t.Helper()
	ix, err := NormalizeDocument(doc(revs[0]), tm(1), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ix.DocumentEquals(doc(revs[0])) {
		t.Fatalf("bootstrap of %s", revs[0])
	}
	for i := 1; i < len(revs); i++ {
		v := int64(i + 1)
		if _, err := ix.Update(doc(revs[i-1]), doc(revs[i]), tm(v), v); err != nil {
			t.Fatalf("update %d (%s -> %s): %v", v, revs[i-1], revs[i], err)
		}
		if !ix.DocumentEquals(doc(revs[i])) {
			t.Fatalf("index of %d does not match %s", v, revs[i])
		}
	}
	return ix
}

// checkAt compares the content of every version of revs with the
// revision. Sibling order is only checked when ordered is set, since a
// moved node shows its latest position in every version.
func checkAt(t *testing.T, ix *Index, revs []string, ordered bool) {
	t.Helper()
	for i, s := range revs {
		v := int64(i + 1)
		got, err := ix.At(v)
		if err != nil {
			t.Fatal(err)
		}
		for _, d := range xdiff.Compare(xdiff.DefaultConfig(), doc(s), got).Differences {
			if d.ID == xdiff.ChildOrderChanged && !ordered {
				continue
			}
			gs, _ := got.WriteToString()
			t.Errorf("At(%d) = %s, want %s: %s", v, gs, s, d)
			break
		}
	}
}

func nodes(t *testing.T, ix *Index) []Node {
	t.Helper()
	var res []Node
	if err := ix.Walk(func(n Node) error {
		res = append(res, n)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestBootstrap(t *testing.T) {
	for _, s := range []string{
		`<a/>`,
		`<?xml version="1.0"?><a x="1" y="2">t<b>u<!--c--><?pi d?></b> <b/></a>`,
		`<p:a xmlns:p="urn:p"><p:b p:x="1"/><![CDATA[x<y]]></p:a>`,
	} {
		ix, err := NormalizeDocument(doc(s), tm(1), 1)
		if err != nil {
			t.Fatal(err)
		}
		if !ix.DocumentEquals(doc(s)) {
			t.Errorf("bootstrap fidelity failed for %s", s)
		}
		for _, n := range nodes(t, ix) {
			if !n.Live || n.Start != 1 || n.End != Now || !n.TStart.Equal(tm(1)) {
				t.Errorf("%s: %+v", s, n)
			}
		}
	}
}

func TestAddChild(t *testing.T) {
	ix := history(t, `<a/>`, `<a><b/></a>`)
	want := []Node{
		{Path: "/a[1]", Kind: xdom.Element, Name: "a", Start: 1, End: Now, TStart: tm(1), Live: true},
		{Path: "/a[1]/b[1]", Kind: xdom.Element, Name: "b", Start: 2, End: Now, TStart: tm(2), Live: true},
	}
	if diff := cmp.Diff(want, nodes(t, ix)); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if ix.DocVersion() != 2 || !ix.DocTime().Equal(tm(2)) {
		t.Errorf("doc clock %d %s", ix.DocVersion(), ix.DocTime())
	}
}

func TestUpdateSequences(t *testing.T) {
	tests := []struct {
		name  string
		revs  []string
		moves bool
	}{
		{"values", []string{
			`<a x="1">t<!--c--><?pi d?></a>`,
			`<a x="2">u<!--e--><?pi f?></a>`,
			`<a x="2">u<!--e--><?pi f?></a>`,
			`<a x="3">t<!--c--><?pi d?></a>`,
		}, false},
		{"attribute sets", []string{
			`<a x="1"/>`,
			`<a y="1"/>`,
			`<a x="1" y="2" z="3"/>`,
			`<a/>`,
		}, false},
		{"insert and delete", []string{
			`<r><a/><b/><c/></r>`,
			`<r><a/><c/></r>`,
			`<r><x><y>t</y></x><a/><c/><z/></r>`,
			`<r><c/></r>`,
			`<r/>`,
			`<r><a/><b/></r>`,
		}, false},
		{"replace root", []string{
			`<a><b/></a>`,
			`<c><b/></c>`,
			`<a><b/></a>`,
		}, false},
		{"same names", []string{
			`<r><b>1</b><b>2</b><b>3</b></r>`,
			`<r><b>1</b><b>3</b></r>`,
			`<r><b>0</b><b>1</b><b>3</b><b>4</b></r>`,
		}, false},
		{"nested", []string{
			`<r><a><b><c>1</c></b></a></r>`,
			`<r><a><b><c>2</c><d/></b><e/></a></r>`,
			`<r><a x="1"><e/></a><f/></r>`,
		}, false},
		{"namespaces", []string{
			`<r xmlns:p="u1"><p:a/></r>`,
			`<r xmlns:p="u2"><p:a/></r>`,
			`<r xmlns:p="u2" xmlns:q="v"><p:a/></r>`,
			`<r xmlns:q="v" xmlns="w"><p:a/></r>`,
		}, false},
		{"namespace below the root", []string{
			`<r><e><c>x</c></e></r>`,
			`<r><e xmlns:p="u"><c>x</c></e></r>`,
			`<r><e><c>y</c></e></r>`,
			`<r><e xmlns:p="u" xmlns:q="v"><c>y</c><p:d/></e></r>`,
			`<r><e xmlns:p="w" xmlns:q="v"><c>y</c><p:d/></e></r>`,
		}, false},
		{"mixed content", []string{
			`<p>one <b>two</b> three</p>`,
			`<p>one <i>new</i> <b>two</b> three</p>`,
			`<p><b>two</b> one</p>`,
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := history(t, tt.revs...)
			checkAt(t, ix, tt.revs, !tt.moves)
		})
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name string
		revs []string
	}{
		{"swap", []string{`<r><a/><b/></r>`, `<r><b/><a/></r>`}},
		{"rotate", []string{`<r><a/><b/><c/><d/></r>`, `<r><d/><a/><b/><c/></r>`}},
		{"reverse", []string{`<r><a/><b/><c/><d/></r>`, `<r><d/><c/><b/><a/></r>`}},
		{"insert and move", []string{`<r><a/><b/><c/></r>`, `<r><c/><x/><a/><b/></r>`}},
		{"insert between moved", []string{`<r><a/><b/><c/></r>`, `<r><b/><x/><c/><y/><a/></r>`}},
		{"delete and move", []string{`<r><a/><b/><c/><d/></r>`, `<r><d/><b/><a/></r>`}},
		{"text moves", []string{`<r>t1<a/>t2<b/></r>`, `<r><b/>t2<a/>t1</r>`}},
		{"same name runs", []string{`<r><b>1</b><c/><b>2</b></r>`, `<r><c/><b>1</b><b>2</b><c/></r>`}},
		{"with closed siblings", []string{
			`<r><a/><b/><c/><d/></r>`,
			`<r><a/><c/><d/></r>`,
			`<r><d/><x/><c/><a/></r>`,
			`<r><a/><y/><c/><x/><d/></r>`,
		}},
		{"nested moves", []string{
			`<r><a><x/><y/></a><b/></r>`,
			`<r><b/><a><y/><z/><x/></a></r>`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := history(t, tt.revs...)
			checkAt(t, ix, tt.revs, false)
			last := ix.DocVersion()
			moved := 0
			for _, n := range nodes(t, ix) {
				if n.Reorder == last {
					moved++
				}
			}
			if moved == 0 {
				t.Error("no node carries the reorder marker")
			}
		})
	}
}

func TestReorderKeepsChildren(t *testing.T) {
	ix := history(t, `<r><a/>t<b/><!--c--></r>`)
	before := map[string]int{}
	for _, n := range nodes(t, ix) {
		before[fmt.Sprint(n.Kind, n.Name, n.Value, n.Start)]++
	}
	rep, err := ix.Update(doc(`<r><a/>t<b/><!--c--></r>`), doc(`<r><!--c--><b/>t<a/></r>`), tm(2), 2)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Inserted != 0 || rep.Deleted != 0 || rep.Replaced != 0 {
		t.Errorf("reorder changed the node set: %+v", rep)
	}
	after := map[string]int{}
	for _, n := range nodes(t, ix) {
		if !n.Live {
			t.Errorf("%s closed by a reorder", n.Path)
		}
		after[fmt.Sprint(n.Kind, n.Name, n.Value, n.Start)]++
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("live multiset changed (-want +got):\n%s", diff)
	}
}

func TestNoOpUpdate(t *testing.T) {
	s := `<a x="1"><b>t</b><!--c--></a>`
	ix := history(t, s)
	before := nodes(t, ix)
	rep, err := ix.Update(doc(s), doc("<a x=\"1\">\n  <b>t</b>\n  <!--c-->\n</a>"), tm(5), 5)
	if err != nil {
		t.Fatal(err)
	}
	want := &Report{Version: 5}
	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, nodes(t, ix)); diff != "" {
		t.Errorf("nodes changed (-want +got):\n%s", diff)
	}
	if ix.DocVersion() != 5 || !ix.DocTime().Equal(tm(5)) {
		t.Errorf("doc clock %d %s", ix.DocVersion(), ix.DocTime())
	}
}

func TestTombstoneMonotonicity(t *testing.T) {
	revs := []string{
		`<r><a x="1">t</a><b/><c/></r>`,
		`<r><a x="2">u</a><c/><b/></r>`,
		`<r><c/><d/></r>`,
		`<r><d/><a x="1">t</a></r>`,
		`<r xmlns:p="u"><d/></r>`,
	}
	ix, err := NormalizeDocument(doc(revs[0]), tm(1), 1)
	if err != nil {
		t.Fatal(err)
	}
	type key struct {
		Kind        xdom.Kind
		Name, Value string
		Start       int64
	}
	for i := 1; i < len(revs); i++ {
		prev := map[key][]Node{}
		for _, n := range nodes(t, ix) {
			k := key{n.Kind, n.Name, n.Value, n.Start}
			prev[k] = append(prev[k], n)
		}
		v := int64(i + 1)
		if _, err := ix.Update(doc(revs[i-1]), doc(revs[i]), tm(v), v); err != nil {
			t.Fatal(err)
		}
		cur := map[key][]Node{}
		for _, n := range nodes(t, ix) {
			k := key{n.Kind, n.Name, n.Value, n.Start}
			cur[k] = append(cur[k], n)
		}
		for k, ns := range prev {
			closed := 0
			for _, n := range ns {
				if !n.Live {
					closed++
				}
			}
			if len(cur[k]) != len(ns) {
				t.Errorf("version %d: %+v: %d nodes, had %d", v, k, len(cur[k]), len(ns))
				continue
			}
			closedNow := 0
			for _, n := range cur[k] {
				if !n.Live {
					closedNow++
					if n.End > v || n.End < n.Start {
						t.Errorf("version %d: %+v closed at %d", v, k, n.End)
					}
				}
			}
			if closedNow < closed {
				t.Errorf("version %d: %+v reopened", v, k)
			}
		}
	}
}

func TestZeroLifetimeErasure(t *testing.T) {
	ix := history(t,
		`<a xmlns:p="u1" xmlns:q="v1"/>`,
		`<a xmlns:p="u2" xmlns:q="v2"/>`,
	)
	got := []string{}
	for _, n := range nodes(t, ix) {
		got = append(got, fmt.Sprintf("%s %s %d-%d", n.Path, n.Value, n.Start, n.End))
	}
	want := []string{
		"/a[1]  2--1",
		"/a[1]/@xmlns:p u2 2--1",
		"/a[1]/@xmlns:q v2 2--1",
		"/a[2]  1-2",
		"/a[2]/@xmlns:p u1 1-2",
		"/a[2]/@xmlns:q v1 1-2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if ix.Len() != 7 {
		t.Errorf("Len() = %d, want 7", ix.Len())
	}
}

func TestSameVersionErasure(t *testing.T) {
	ix := history(t, `<a/>`)
	if _, err := ix.Update(doc(`<a/>`), doc(`<a><b/></a>`), tm(2), 2); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Update(doc(`<a><b/></a>`), doc(`<a/>`), tm(2), 2); err != nil {
		t.Fatal(err)
	}
	if n := len(nodes(t, ix)); n != 1 {
		t.Errorf("%d nodes, want only a", n)
	}
}

func TestAt(t *testing.T) {
	revs := []string{
		`<a><b>1</b></a>`,
		`<a><b>2</b><c x="1"/></a>`,
		`<a><c x="2"/></a>`,
		`<a><c x="2"/><b>1</b></a>`,
	}
	ix := history(t, revs...)
	for i, s := range revs {
		v := int64(i + 1)
		got, err := ix.At(v)
		if err != nil {
			t.Fatal(err)
		}
		gs, _ := got.WriteToString()
		ws, _ := xdiff.DefaultConfig().Prepare(doc(s)).WriteToString()
		if gs != ws {
			t.Errorf("At(%d) = %s, want %s", v, gs, ws)
		}
		byTime, err := ix.AtTime(tm(v).Add(30 * time.Second))
		if err != nil {
			t.Fatal(err)
		}
		ts, _ := byTime.WriteToString()
		if ts != ws {
			t.Errorf("AtTime(%d) = %s, want %s", v, ts, ws)
		}
	}
	if _, err := ix.At(0); !errors.Is(err, ErrNoRevision) {
		t.Errorf("At(0) error = %v", err)
	}
	if _, err := ix.AtTime(tm(0)); !errors.Is(err, ErrNoRevision) {
		t.Errorf("AtTime(0) error = %v", err)
	}
}

func TestAtKeepsReplacedContent(t *testing.T) {
	ix := history(t,
		`<r><e><c>x</c></e></r>`,
		`<r><e xmlns:p="u"><c>x</c></e></r>`,
	)
	for v, want := range map[int64]string{
		1: `<r><e><c>x</c></e></r>`,
		2: `<r><e xmlns:p="u"><c>x</c></e></r>`,
	} {
		got, err := ix.At(v)
		if err != nil {
			t.Fatal(err)
		}
		if s, _ := got.WriteToString(); s != want {
			t.Errorf("At(%d) = %s, want %s", v, s, want)
		}
	}
}

func TestPersistedRoundTrip(t *testing.T) {
	revs := []string{
		`<r a="1"><b>x</b><c/></r>`,
		`<r a="2"><c/><b>y</b><d/></r>`,
	}
	ix := history(t, revs...)
	data, err := ix.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(nodes(t, ix), nodes(t, back)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if back.DocVersion() != 2 || !back.DocTime().Equal(tm(2)) {
		t.Errorf("doc clock %d %s", back.DocVersion(), back.DocTime())
	}
	next := `<r><b>z</b></r>`
	if _, err := back.Update(doc(revs[1]), doc(next), tm(3), 3); err != nil {
		t.Fatal(err)
	}
	if !back.DocumentEquals(doc(next)) {
		t.Error("loaded index does not update")
	}
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{
		`not xml <`,
		`<a/>`,
		`<vf:document xmlns:vf="urn:x-deltav:vfile" docVersion="1"/>`,
	} {
		if _, err := Parse([]byte(s)); !errors.Is(err, ErrMalformedIndex) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformedIndex", s, err)
		}
	}
}

func TestUpdateErrors(t *testing.T) {
	base := `<a><b/></a>`
	tests := []struct {
		name     string
		old, new string
		version  int64
		opts     []Option
		want     error
	}{
		{"older version", base, `<a/>`, 0, nil, ErrIntegrity},
		{"stale content", `<a><c/></a>`, `<a/>`, 2, nil, ErrIntegrity},
		{"doctype", base, `<!DOCTYPE a><a><b/></a>`, 2, nil, ErrUnsupportedDiff},
		{"unresolved target", `<a><b/><b/></a>`, base, 2, []Option{WithVerifyTargets(false)}, ErrAddressing},
		{"missing target", `<a><c/></a>`, `<a/>`, 2, []Option{WithVerifyTargets(false)}, ErrAddressing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := NormalizeDocument(doc(base), tm(1), 1, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			before := nodes(t, ix)
			_, err = ix.Update(doc(tt.old), doc(tt.new), tm(tt.version+1), tt.version)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Update error = %v, want %v", err, tt.want)
			}
			if ix.DocVersion() != 1 {
				t.Errorf("DocVersion() = %d after failed update", ix.DocVersion())
			}
			if diff := cmp.Diff(before, nodes(t, ix)); diff != "" {
				t.Errorf("failed update changed the index (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := xdiff.Config{IgnoreComments: true, TrimText: true}
	ix, err := NormalizeDocument(doc(`<a> t <!--c--></a>`), tm(1), 1, WithCompare(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if !ix.DocumentEquals(doc(`<a>t</a>`)) {
		t.Error("comparison options not applied")
	}
	if _, err := NormalizeDocument(doc(`<a/>`), time.Time{}, 1); !errors.Is(err, ErrIntegrity) {
		t.Errorf("zero time error = %v", err)
	}
}
