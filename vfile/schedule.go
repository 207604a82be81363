package vfile

import (
	"fmt"
	"slices"

	"github.com/Reposoft/repos-deltav-sub000/axis"
	"github.com/Reposoft/repos-deltav-sub000/debug"
	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
	"github.com/Reposoft/repos-deltav-sub000/xdiff"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// changeSet holds the operations deferred for one node of the index, in
// the order they were first reported.
type changeSet struct {
	target  tagged.Handle
	control xdiff.Node
	test    xdiff.Node
	ops     []Op
}

func (cs *changeSet) add(op Op) {
	if !slices.Contains(cs.ops, op) {
		cs.ops = append(cs.ops, op)
	}
}

// schedule is the outcome of mapping differences onto the index.
type schedule struct {
	changes map[tagged.Handle]*changeSet
	// order lists change set targets as they were first seen.
	order []tagged.Handle

	reorders     map[tagged.Handle]*changeSet
	reorderOrder []tagged.Handle

	// pending maps the path of a test side parent to the new subtrees
	// waiting to be inserted below it.
	pending     map[string][]etree.Token
	pendingKeys []string
}

func newSchedule() *schedule {
	return &schedule{
		changes:  map[tagged.Handle]*changeSet{},
		reorders: map[tagged.Handle]*changeSet{},
		pending:  map[string][]etree.Token{},
	}
}

func (s *schedule) addPending(tok etree.Token) {
	key := axis.FromToken(tok.Parent()).String()
	if _, ok := s.pending[key]; !ok {
		s.pendingKeys = append(s.pendingKeys, key)
	}
	s.pending[key] = append(s.pending[key], tok)
}

// take removes and returns the subtrees pending under key.
func (s *schedule) take(key string) []etree.Token {
	toks, ok := s.pending[key]
	if !ok {
		return nil
	}
	delete(s.pending, key)
	s.pendingKeys = slices.DeleteFunc(s.pendingKeys, func(k string) bool { return k == key })
	return toks
}

func (s *schedule) pendingCount() int {
	n := 0
	for _, toks := range s.pending {
		n += len(toks)
	}
	return n
}

func (s *schedule) changeSet(sets map[tagged.Handle]*changeSet, order *[]tagged.Handle, h tagged.Handle, d xdiff.Difference) *changeSet {
	cs, ok := sets[h]
	if !ok {
		cs = &changeSet{target: h, control: d.Control, test: d.Test}
		sets[h] = cs
		*order = append(*order, h)
	}
	return cs
}

// schedule maps the differences of res onto tree, which must reflect
// the control document.
func (c *config) schedule(tree *tagged.Tree, res *xdiff.Result) (*schedule, error) {
	s := newSchedule()
	for _, d := range res.Differences {
		if d.Control.IsZero() {
			s.addPending(d.Test.Token)
			if debug.Schedule() {
				debug.Logf("schedule insert %s\n", d.Test.Location)
			}
			continue
		}
		op, err := Classify(d.ID)
		if err != nil {
			return nil, err
		}
		h, err := c.resolve(tree, d.Control)
		if err != nil {
			return nil, err
		}
		var cs *changeSet
		if op == OpChildOrder {
			cs = s.changeSet(s.reorders, &s.reorderOrder, h, d)
		} else {
			cs = s.changeSet(s.changes, &s.order, h, d)
		}
		cs.add(op)
		if debug.Schedule() {
			debug.Logf("schedule %s %s -> %s\n", op, d.Control.Location, h)
		}
	}
	return s, nil
}

// resolve finds the live index node for the control side of a
// difference.
func (c *config) resolve(tree *tagged.Tree, n xdiff.Node) (tagged.Handle, error) {
	p, err := axis.Parse(n.Location)
	if err != nil {
		return tagged.Handle{}, fmt.Errorf("%w: %w", ErrAddressing, err)
	}
	h, err := tree.Resolve(p)
	if err != nil {
		return tagged.Handle{}, fmt.Errorf("%w: %w", ErrAddressing, err)
	}
	if c.verifyTargets && !matches(tree, h, n) {
		return tagged.Handle{}, fmt.Errorf("%w: %s does not match the control node", ErrAddressing, p)
	}
	return h, nil
}

// matches compares h to n without descending into children.
func matches(tree *tagged.Tree, h tagged.Handle, n xdiff.Node) bool {
	if n.Attr != "" {
		return tree.EqualAttr(h, n.Element(), n.Attr)
	}
	switch k := n.Kind(); k {
	case xdom.Document:
		return tree.Kind(h) == k
	case xdom.Element:
		return tree.Kind(h) == k && tree.Name(h) == xdom.Name(n.Token)
	case xdom.Text, xdom.Comment, xdom.ProcInst:
		return tree.Equal(h, n.Token)
	}
	return false
}
