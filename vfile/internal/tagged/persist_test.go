package tagged

import (
	"errors"
	"testing"

	"github.com/Reposoft/repos-deltav-sub000/axis"
	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
)

type walked struct {
	Path    string
	Kind    string
	Name    string
	Value   string
	Life    Lifetime
	Reorder int64
}

func walkAll(t *testing.T, tr *Tree) []walked {
	t.Helper()
	var res []walked
	err := tr.Walk(func(h Handle, p axis.Path) error {
		res = append(res, walked{
			Path:    p.String(),
			Kind:    tr.Kind(h).String(),
			Name:    tr.Name(h),
			Value:   tr.Value(h),
			Life:    tr.Lifetime(h),
			Reorder: tr.Reorder(h),
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestMarshalRoundTrip(t *testing.T) {
	tr, _ := fromDoc(t, `<r xmlns:p="urn:p" a="1"><p:b>x &amp; y</p:b><!--c--><?pi d?>  <e/></r>`)
	tr.SetClock(2, tm(2))
	if _, err := tr.SetValue(resolve(t, tr, "/r[1]/p:b[1]/text()[1]"), "z"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Delete(resolve(t, tr, "/r[1]/@a")); err != nil {
		t.Fatal(err)
	}
	tr.SetReorder(resolve(t, tr, "/r[1]/e[1]"), 2)

	doc, err := tr.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		t.Fatal(err)
	}
	back := etree.NewDocument()
	if err := back.ReadFromBytes(data); err != nil {
		t.Fatal(err)
	}
	tr2, err := Unmarshal(back)
	if err != nil {
		t.Fatalf("%v\n%s", err, data)
	}
	if tr2.Version() != 2 || !tr2.Time().Equal(tm(2)) {
		t.Errorf("clock %d %s", tr2.Version(), tr2.Time())
	}
	if diff := cmp.Diff(walkAll(t, tr), walkAll(t, tr2)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalDeclaresNamespaces(t *testing.T) {
	tr, _ := fromDoc(t, `<r xmlns:p="urn:p" xmlns:vf="urn:other"><p:b><c xmlns="urn:d"/></p:b></r>`)
	doc, err := tr.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		t.Fatal(err)
	}
	back := etree.NewDocument()
	if err := back.ReadFromBytes(data); err != nil {
		t.Fatal(err)
	}
	r := back.Root().SelectElement("r")
	if r == nil {
		t.Fatalf("no r element in\n%s", data)
	}
	b := r.SelectElement("p:b")
	if b == nil {
		t.Fatalf("no p:b element in\n%s", data)
	}
	c := b.SelectElement("c")
	if c == nil {
		t.Fatalf("no c element in\n%s", data)
	}
	for _, e := range []*etree.Element{r, c} {
		if got := e.SelectElement(tagAttr).NamespaceURI(); got != Namespace {
			t.Errorf("%s: index element namespace %q", e.FullTag(), got)
		}
	}
	if got := b.NamespaceURI(); got != "urn:p" {
		t.Errorf("p:b namespace %q, want urn:p", got)
	}
	if got := c.NamespaceURI(); got != "urn:d" {
		t.Errorf("c namespace %q, want urn:d", got)
	}
	tr2, err := Unmarshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(walkAll(t, tr), walkAll(t, tr2)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalReservedPrefix(t *testing.T) {
	tr, _ := fromDoc(t, `<r xmlns:vf="urn:other"><vf:x/></r>`)
	if _, err := tr.Marshal(); !errors.Is(err, ErrKind) {
		t.Errorf("Marshal error = %v, want ErrKind", err)
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	const life = `start="1" end="NOW" tstart="2024-03-01T13:00:00Z" tend="NOW"`
	const head = `<vf:document xmlns:vf="urn:x-deltav:vfile" docVersion="1" docTime="2024-03-01T13:00:00Z" ` + life + `>`
	tests := []struct {
		name string
		doc  string
	}{
		{"wrong root", `<document/>`},
		{"no doc version", `<vf:document xmlns:vf="urn:x-deltav:vfile" docTime="2024-03-01T13:00:00Z" ` + life + `/>`},
		{"bad doc time", `<vf:document xmlns:vf="urn:x-deltav:vfile" docVersion="1" docTime="yesterday" ` + life + `/>`},
		{"missing start", head + `<a end="NOW" tstart="2024-03-01T13:00:00Z" tend="NOW"/></vf:document>`},
		{"now start", head + `<a start="NOW" end="NOW" tstart="2024-03-01T13:00:00Z" tend="NOW"/></vf:document>`},
		{"bad end", head + `<a start="1" end="x" tstart="2024-03-01T13:00:00Z" tend="NOW"/></vf:document>`},
		{"liveness", head + `<a start="1" end="2" tstart="2024-03-01T13:00:00Z" tend="NOW"/></vf:document>`},
		{"bad reorder", head + `<a ` + life + ` reorder="x"/></vf:document>`},
		{"attribute without name", head + `<a ` + life + `><vf:attribute ` + life + `>1</vf:attribute></a></vf:document>`},
		{"attribute at top", head + `<vf:attribute name="x" ` + life + `/></vf:document>`},
		{"unknown index element", head + `<vf:node ` + life + `/></vf:document>`},
		{"pi without name", head + `<a ` + life + `><vf:pi ` + life + `>d</vf:pi></a></vf:document>`},
		{"live below closed", head + `<a start="1" end="2" tstart="2024-03-01T13:00:00Z" tend="2024-03-01T14:00:00Z"><vf:text ` + life + `>x</vf:text></a></vf:document>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := etree.NewDocument()
			if err := doc.ReadFromString(tt.doc); err != nil {
				t.Fatal(err)
			}
			if _, err := Unmarshal(doc); !errors.Is(err, ErrMalformed) {
				t.Errorf("Unmarshal error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	tr, _ := fromDoc(t, `<r><b>1</b></r>`)
	tr.SetClock(3, tm(3))
	if _, err := tr.Normalize(resolve(t, tr, "/r[1]"), prepared(`<r><b>1</b><c/></r>`).Root().ChildElements()[1]); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.SetValue(resolve(t, tr, "/r[1]/b[1]/text()[1]"), "2"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		v    int64
		want string
	}{
		{1, `<r><b>1</b></r>`},
		{2, `<r><b>1</b></r>`},
		{3, `<r><b>2</b><c/></r>`},
	}
	for _, tt := range tests {
		s, err := tr.Snapshot(func(l Lifetime) bool { return l.At(tt.v) }).WriteToString()
		if err != nil {
			t.Fatal(err)
		}
		if s != tt.want {
			t.Errorf("At(%d) = %s, want %s", tt.v, s, tt.want)
		}
	}
}
