// Package tagged implements the lifetime-tagged node tree of a temporal
// index.
//
// The tree is an arena of nodes addressed by generation checked handles.
// A node is never mutated in a way that changes its observable history:
// value changes create a replacement node and close the original,
// deletions close nodes. Only nodes whose lifetime is empty (opened and
// closed at the same version and time) are removed from the arena.
package tagged

import (
	"errors"
	"fmt"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/xdom"
)

// Now is the end version of a live node.
const Now int64 = -1

var (
	ErrStale     = errors.New("stale handle")
	ErrDead      = errors.New("node is not live")
	ErrKind      = errors.New("unsupported node kind")
	ErrMalformed = errors.New("malformed index")
)

// Lifetime holds the version and time bounds of a node. End and TEnd
// are Now and the zero time while the node is live.
type Lifetime struct {
	Start  int64
	End    int64
	TStart time.Time
	TEnd   time.Time
}

// Live reports whether both bounds are still open.
func (l Lifetime) Live() bool {
	return l.End == Now && l.TEnd.IsZero()
}

// Empty reports whether the lifetime was opened and closed at the same
// version and time.
func (l Lifetime) Empty() bool {
	return !l.Live() && l.Start == l.End && l.TStart.Equal(l.TEnd)
}

// At reports whether a node with this lifetime exists at version v.
func (l Lifetime) At(v int64) bool {
	return l.Start <= v && (l.End == Now || v < l.End)
}

// AtTime reports whether a node with this lifetime exists at time t.
func (l Lifetime) AtTime(t time.Time) bool {
	return !l.TStart.After(t) && (l.TEnd.IsZero() || t.Before(l.TEnd))
}

// Handle addresses a node of a Tree. The zero Handle is invalid.
type Handle struct {
	idx int32
	gen uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.idx, h.gen)
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

type node struct {
	gen      uint32
	used     bool
	kind     xdom.Kind
	name     string
	value    string
	life     Lifetime
	reorder  int64
	parent   Handle
	attrs    []Handle
	children []Handle
}

// Tree is a tagged node tree rooted at a document node.
type Tree struct {
	nodes   []node
	free    []int32
	root    Handle
	version int64
	time    time.Time
}

// New returns a tree whose document node starts at version and t.
func New(version int64, t time.Time) *Tree {
	tr := &Tree{version: version, time: t}
	tr.root = tr.Create(xdom.Document, "", "")
	return tr
}

// Root returns the document node.
func (t *Tree) Root() Handle {
	return t.root
}

// Version returns the document version the tree reflects.
func (t *Tree) Version() int64 {
	return t.version
}

// Time returns the document time the tree reflects.
func (t *Tree) Time() time.Time {
	return t.time
}

// SetClock sets the document version and time. Nodes created or closed
// afterwards are stamped with them.
func (t *Tree) SetClock(version int64, tm time.Time) {
	t.version = version
	t.time = tm
}

// Clone returns a deep copy of t. Handles of t are valid in the copy.
func (t *Tree) Clone() *Tree {
	res := &Tree{
		nodes:   make([]node, len(t.nodes)),
		free:    append([]int32(nil), t.free...),
		root:    t.root,
		version: t.version,
		time:    t.time,
	}
	for i := range t.nodes {
		n := t.nodes[i]
		n.attrs = append([]Handle(nil), n.attrs...)
		n.children = append([]Handle(nil), n.children...)
		res.nodes[i] = n
	}
	return res
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes) - len(t.free)
}

// Valid reports whether h addresses a node of t.
func (t *Tree) Valid(h Handle) bool {
	if h.gen == 0 || h.idx < 0 || int(h.idx) >= len(t.nodes) {
		return false
	}
	n := &t.nodes[h.idx]
	return n.used && n.gen == h.gen
}

func (t *Tree) get(h Handle) *node {
	if !t.Valid(h) {
		panic(fmt.Sprintf("tagged: %v: %s", ErrStale, h))
	}
	return &t.nodes[h.idx]
}

func (t *Tree) Kind(h Handle) xdom.Kind    { return t.get(h).kind }
func (t *Tree) Name(h Handle) string       { return t.get(h).name }
func (t *Tree) Value(h Handle) string      { return t.get(h).value }
func (t *Tree) Lifetime(h Handle) Lifetime { return t.get(h).life }
func (t *Tree) Parent(h Handle) Handle     { return t.get(h).parent }
func (t *Tree) Reorder(h Handle) int64     { return t.get(h).reorder }

// Live reports whether h is valid and live.
func (t *Tree) Live(h Handle) bool {
	return t.Valid(h) && t.nodes[h.idx].life.Live()
}

// Attrs returns all attribute nodes of h, live and dead.
func (t *Tree) Attrs(h Handle) []Handle {
	return append([]Handle(nil), t.get(h).attrs...)
}

// Children returns all children of h, live and dead, in order.
func (t *Tree) Children(h Handle) []Handle {
	return append([]Handle(nil), t.get(h).children...)
}

// LiveAttrs returns the live attribute nodes of h.
func (t *Tree) LiveAttrs(h Handle) []Handle {
	return t.filterLive(t.get(h).attrs)
}

// LiveChildren returns the live children of h in order.
func (t *Tree) LiveChildren(h Handle) []Handle {
	return t.filterLive(t.get(h).children)
}

func (t *Tree) filterLive(hs []Handle) []Handle {
	res := make([]Handle, 0, len(hs))
	for _, c := range hs {
		if t.nodes[c.idx].life.Live() {
			res = append(res, c)
		}
	}
	return res
}

// LiveAttr returns the live attribute of h with the given name.
func (t *Tree) LiveAttr(h Handle, name string) (Handle, bool) {
	for _, a := range t.get(h).attrs {
		n := &t.nodes[a.idx]
		if n.name == name && n.life.Live() {
			return a, true
		}
	}
	return Handle{}, false
}

// SetReorder stamps the reorder marker of h.
func (t *Tree) SetReorder(h Handle, version int64) {
	t.get(h).reorder = version
}

// Create returns a new detached live node stamped with the current
// document version and time.
func (t *Tree) Create(kind xdom.Kind, name, value string) Handle {
	return t.alloc(node{
		kind:  kind,
		name:  name,
		value: value,
		life:  Lifetime{Start: t.version, End: Now, TStart: t.time},
	})
}

func (t *Tree) alloc(n node) Handle {
	n.used = true
	if k := len(t.free); k > 0 {
		idx := t.free[k-1]
		t.free = t.free[:k-1]
		n.gen = t.nodes[idx].gen + 1
		t.nodes[idx] = n
		return Handle{idx: idx, gen: n.gen}
	}
	n.gen = 1
	t.nodes = append(t.nodes, n)
	return Handle{idx: int32(len(t.nodes) - 1), gen: 1}
}

// AddAttr appends the detached attribute node a to element e.
func (t *Tree) AddAttr(e, a Handle) {
	t.get(a).parent = e
	en := t.get(e)
	en.attrs = append(en.attrs, a)
}

// Append appends the detached node c to the children of p.
func (t *Tree) Append(p, c Handle) {
	t.InsertAt(p, len(t.get(p).children), c)
}

// InsertAt inserts the detached node c into the child list of p at raw
// position pos, counting live and dead children.
func (t *Tree) InsertAt(p Handle, pos int, c Handle) {
	t.get(c).parent = p
	pn := t.get(p)
	if pos < 0 || pos > len(pn.children) {
		pos = len(pn.children)
	}
	pn.children = append(pn.children, Handle{})
	copy(pn.children[pos+1:], pn.children[pos:])
	pn.children[pos] = c
}

// Detach removes h from the attribute or child list of its parent. The
// node itself is kept.
func (t *Tree) Detach(h Handle) {
	n := t.get(h)
	if n.parent.IsZero() {
		return
	}
	pn := t.get(n.parent)
	if n.kind == xdom.Attribute {
		pn.attrs = remove(pn.attrs, h)
	} else {
		pn.children = remove(pn.children, h)
	}
	n.parent = Handle{}
}

func remove(hs []Handle, h Handle) []Handle {
	for i, x := range hs {
		if x == h {
			return append(hs[:i], hs[i+1:]...)
		}
	}
	return hs
}

// RawIndex returns the position of h in its parent's list, or -1.
func (t *Tree) RawIndex(h Handle) int {
	n := t.get(h)
	if n.parent.IsZero() {
		return -1
	}
	pn := t.get(n.parent)
	list := pn.children
	if n.kind == xdom.Attribute {
		list = pn.attrs
	}
	for i, x := range list {
		if x == h {
			return i
		}
	}
	return -1
}

// LivePos returns the raw child position of the k-th live child of p,
// or the length of the child list when p has at most k live children.
func (t *Tree) LivePos(p Handle, k int) int {
	pn := t.get(p)
	for i, c := range pn.children {
		if !t.nodes[c.idx].life.Live() {
			continue
		}
		if k == 0 {
			return i
		}
		k--
	}
	return len(pn.children)
}

// Class returns the sibling class of h.
func (t *Tree) Class(h Handle) string {
	n := t.get(h)
	return xdom.ClassOf(n.kind, n.name)
}

func (t *Tree) closeNode(n *node) {
	if !n.life.Live() {
		return
	}
	n.life.End = t.version
	n.life.TEnd = t.time
}

// erase frees h and its subtree.
func (t *Tree) erase(h Handle) {
	t.Detach(h)
	t.free1(h)
}

func (t *Tree) free1(h Handle) {
	n := t.get(h)
	for _, c := range n.attrs {
		t.free1(c)
	}
	for _, c := range n.children {
		t.free1(c)
	}
	gen := n.gen
	t.nodes[h.idx] = node{gen: gen}
	t.free = append(t.free, h.idx)
}

// sweep erases nodes with an empty lifetime in the subtree of h. It
// reports whether h itself was erased.
func (t *Tree) sweep(h Handle) bool {
	n := t.get(h)
	if n.life.Empty() {
		t.erase(h)
		return true
	}
	for _, c := range append(t.Attrs(h), t.Children(h)...) {
		t.sweep(c)
	}
	return false
}
