package tagged

import (
	"fmt"

	"github.com/Reposoft/repos-deltav-sub000/axis"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
)

// Resolve evaluates p against the live nodes of t. Every context on the
// way must be live and of a matching kind. Element and other child
// steps select the n-th live child of the step's kind (and name);
// attribute steps select the live attribute by name.
func (t *Tree) Resolve(p axis.Path) (Handle, error) {
	cur := t.root
	if !t.Live(cur) {
		return Handle{}, fmt.Errorf("%w: %s: document node not live", axis.ErrNotFound, p)
	}
	for i, s := range p {
		next, ok := t.step(cur, s)
		if !ok {
			return Handle{}, fmt.Errorf("%w: %s at step %d (%s)", axis.ErrNotFound, p, i+1, s)
		}
		cur = next
	}
	return cur, nil
}

func (t *Tree) step(cur Handle, s axis.Step) (Handle, bool) {
	k := t.Kind(cur)
	switch s.Kind {
	case xdom.Attribute:
		if k != xdom.Element {
			return Handle{}, false
		}
		return t.LiveAttr(cur, s.Name)
	case xdom.Element, xdom.Text, xdom.Comment, xdom.ProcInst:
		if !k.HasChildren() {
			return Handle{}, false
		}
		n := 0
		for _, c := range t.get(cur).children {
			cn := &t.nodes[c.idx]
			if !cn.life.Live() || !s.Matches(cn.kind, cn.name) {
				continue
			}
			n++
			if n == s.Index {
				return c, true
			}
		}
	}
	return Handle{}, false
}

// Walk visits every node of t, live or dead, in document order with
// attributes before children. The path passed to fn counts live and dead
// siblings, so it is a display path rather than an address.
func (t *Tree) Walk(fn func(h Handle, p axis.Path) error) error {
	return t.walk(t.root, nil, fn)
}

func (t *Tree) walk(h Handle, p axis.Path, fn func(Handle, axis.Path) error) error {
	if err := fn(h, p); err != nil {
		return err
	}
	n := t.get(h)
	for _, a := range n.attrs {
		if err := t.walk(a, p.Append(axis.Step{Kind: xdom.Attribute, Name: t.nodes[a.idx].name}), fn); err != nil {
			return err
		}
	}
	counts := map[string]int{}
	for _, c := range n.children {
		cn := &t.nodes[c.idx]
		s := axis.Step{Kind: cn.kind}
		if cn.kind == xdom.Element {
			s.Name = cn.name
		}
		key := s.String()
		counts[key]++
		s.Index = counts[key]
		if err := t.walk(c, p.Append(s), fn); err != nil {
			return err
		}
	}
	return nil
}
