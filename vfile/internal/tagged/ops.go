package tagged

import (
	"fmt"

	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// SetValue replaces the live node h by a new node carrying value. The
// replacement is inserted immediately before h and h is closed. For
// elements value is ignored and the replacement receives new copies of
// the live attributes and children of h, which are closed with h, so
// the element's past content stays below the original. The replacement
// handle is returned.
func (t *Tree) SetValue(h Handle, value string) (Handle, error) {
	return t.Replace(h, value, nil)
}

// Replace is SetValue that reports every node it copies to copied,
// starting with h and its replacement. copied may be nil.
func (t *Tree) Replace(h Handle, value string, copied func(from, to Handle)) (Handle, error) {
	if !t.Valid(h) {
		return Handle{}, fmt.Errorf("%w: %s", ErrStale, h)
	}
	n := t.get(h)
	if !n.life.Live() {
		return Handle{}, fmt.Errorf("%w: set value of %s", ErrDead, h)
	}
	if n.kind == xdom.Document {
		return Handle{}, fmt.Errorf("%w: cannot replace the document node", ErrKind)
	}
	if n.parent.IsZero() {
		return Handle{}, fmt.Errorf("%w: set value of detached %s", ErrKind, h)
	}
	kind, name, parent := n.kind, n.name, n.parent
	if kind == xdom.Element {
		value = ""
	}
	r := t.Create(kind, name, value)
	pos := t.RawIndex(h)
	if kind == xdom.Attribute {
		pn := t.get(parent)
		t.get(r).parent = parent
		pn.attrs = append(pn.attrs, Handle{})
		copy(pn.attrs[pos+1:], pn.attrs[pos:])
		pn.attrs[pos] = r
	} else {
		t.InsertAt(parent, pos, r)
	}
	if copied != nil {
		copied(h, r)
	}
	if kind == xdom.Element {
		t.copyContent(h, r, copied)
	}
	t.closeTree(h)
	t.sweep(h)
	return r, nil
}

// copyContent appends new copies of the live attributes and children of
// from to to, recursively.
func (t *Tree) copyContent(from, to Handle, copied func(from, to Handle)) {
	for _, a := range t.LiveAttrs(from) {
		c := t.Create(xdom.Attribute, t.Name(a), t.Value(a))
		t.AddAttr(to, c)
		if copied != nil {
			copied(a, c)
		}
	}
	for _, ch := range t.LiveChildren(from) {
		kind := t.Kind(ch)
		c := t.Create(kind, t.Name(ch), t.Value(ch))
		t.Append(to, c)
		if copied != nil {
			copied(ch, c)
		}
		if kind == xdom.Element {
			t.copyContent(ch, c, copied)
		}
	}
}

// Delete closes the live node h and every live node below it, then
// erases the nodes whose lifetime became empty.
func (t *Tree) Delete(h Handle) error {
	if !t.Valid(h) {
		return fmt.Errorf("%w: %s", ErrStale, h)
	}
	if !t.Live(h) {
		return fmt.Errorf("%w: delete %s", ErrDead, h)
	}
	if h == t.root {
		return fmt.Errorf("%w: cannot delete the document node", ErrKind)
	}
	t.closeTree(h)
	t.sweep(h)
	return nil
}

func (t *Tree) closeTree(h Handle) {
	n := t.get(h)
	if !n.life.Live() {
		return
	}
	t.closeNode(n)
	for _, a := range n.attrs {
		t.closeTree(a)
	}
	for _, c := range n.children {
		t.closeTree(c)
	}
}

// CreateAttr adds a new live attribute to element e.
func (t *Tree) CreateAttr(e Handle, name, value string) (Handle, error) {
	if !t.Live(e) {
		return Handle{}, fmt.Errorf("%w: add attribute %s to %s", ErrDead, name, e)
	}
	if t.Kind(e) != xdom.Element {
		return Handle{}, fmt.Errorf("%w: attribute on %s", ErrKind, t.Kind(e))
	}
	if _, ok := t.LiveAttr(e, name); ok {
		return Handle{}, fmt.Errorf("%w: duplicate live attribute %s", ErrKind, name)
	}
	a := t.Create(xdom.Attribute, name, value)
	t.AddAttr(e, a)
	return a, nil
}

// Normalize converts the live document node tok and its subtree into
// new tagged nodes under parent. The new node goes before the live child
// at the position tok has among its own siblings, but never ahead of a
// live sibling of the same class; without such a child it is appended.
func (t *Tree) Normalize(parent Handle, tok etree.Token) (Handle, error) {
	if !t.Live(parent) {
		return Handle{}, fmt.Errorf("%w: normalize under %s", ErrDead, parent)
	}
	if !t.Kind(parent).HasChildren() {
		return Handle{}, fmt.Errorf("%w: children of %s", ErrKind, t.Kind(parent))
	}
	h, err := t.build(tok)
	if err != nil {
		return Handle{}, err
	}
	pos := len(t.get(parent).children)
	if k := xdom.ChildIndex(tok); k >= 0 {
		pos = t.LivePos(parent, k)
	}
	cls := t.Class(h)
	for i, c := range t.get(parent).children {
		if i >= pos && t.Live(c) && t.Class(c) == cls {
			pos = i + 1
		}
	}
	t.InsertAt(parent, pos, h)
	return h, nil
}

// build creates a detached tagged subtree for tok, attributes first.
func (t *Tree) build(tok etree.Token) (Handle, error) {
	k, ok := xdom.KindOf(tok)
	if !ok {
		return Handle{}, fmt.Errorf("%w: %T", ErrKind, tok)
	}
	switch k {
	case xdom.Element:
		e := tok.(*etree.Element)
		h := t.Create(xdom.Element, e.FullTag(), "")
		for _, a := range e.Attr {
			t.AddAttr(h, t.Create(xdom.Attribute, a.FullKey(), a.Value))
		}
		for _, c := range xdom.Children(e) {
			ch, err := t.build(c)
			if err != nil {
				return Handle{}, err
			}
			t.Append(h, ch)
		}
		return h, nil
	case xdom.Text, xdom.Comment, xdom.ProcInst:
		return t.Create(k, xdom.Name(tok), xdom.Value(tok)), nil
	}
	return Handle{}, fmt.Errorf("%w: cannot normalize %s", ErrKind, k)
}

// NormalizeChildren normalizes every modeled child of the live document
// node e under parent, in order.
func (t *Tree) NormalizeChildren(parent Handle, e *etree.Element) error {
	for _, c := range xdom.Children(e) {
		if _, err := t.Normalize(parent, c); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether the live content of h matches the live document
// node tok: kind, name and value, and for elements the live attribute
// set and the ordered live children, recursively.
func (t *Tree) Equal(h Handle, tok etree.Token) bool {
	if !t.Live(h) {
		return false
	}
	k, ok := xdom.KindOf(tok)
	if !ok {
		return false
	}
	n := t.get(h)
	if n.kind != k {
		return false
	}
	switch k {
	case xdom.Document:
		return t.equalChildren(h, tok.(*etree.Element))
	case xdom.Element:
		e := tok.(*etree.Element)
		if n.name != e.FullTag() {
			return false
		}
		return t.equalAttrs(h, e) && t.equalChildren(h, e)
	case xdom.Text, xdom.Comment:
		return n.value == xdom.Value(tok)
	case xdom.ProcInst:
		return n.name == xdom.Name(tok) && n.value == xdom.Value(tok)
	}
	return false
}

// EqualAttr reports whether the live attribute h matches attribute name
// of the document element e.
func (t *Tree) EqualAttr(h Handle, e *etree.Element, name string) bool {
	if !t.Live(h) || t.Kind(h) != xdom.Attribute || t.Name(h) != name {
		return false
	}
	a := xdom.FindAttr(e, name)
	return a != nil && a.Value == t.Value(h)
}

func (t *Tree) equalAttrs(h Handle, e *etree.Element) bool {
	live := t.LiveAttrs(h)
	want := xdom.Attrs(e)
	if len(live) != len(want) {
		return false
	}
	for _, a := range live {
		v, ok := want[t.Name(a)]
		if !ok || v != t.Value(a) {
			return false
		}
	}
	return true
}

func (t *Tree) equalChildren(h Handle, e *etree.Element) bool {
	live := t.LiveChildren(h)
	want := xdom.Children(e)
	if len(live) != len(want) {
		return false
	}
	for i := range live {
		if !t.Equal(live[i], want[i]) {
			return false
		}
	}
	return true
}
