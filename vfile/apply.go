package vfile

import (
	"fmt"

	"github.com/Reposoft/repos-deltav-sub000/debug"
	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// Report summarizes one update.
type Report struct {
	Version     int64
	Differences int
	// Scheduled is the number of change sets and Operations the number
	// of operations they hold. Reorders counts nodes scheduled for a
	// position change.
	Scheduled  int
	Operations int
	Reorders   int

	Inserted  int
	Orphans   int
	Deleted   int
	Replaced  int
	Reordered int
}

// updater applies a schedule to a staged tree whose clock already
// carries the new version.
type updater struct {
	tree  *tagged.Tree
	sched *schedule

	// replaced follows nodes superseded by SetValue to their
	// replacement, and copies leads each copy made for a replaced
	// element back to the node it was copied from.
	replaced map[tagged.Handle]tagged.Handle
	copies   map[tagged.Handle]tagged.Handle
	applied  int

	// touched maps parents which received new children to the matching
	// test side parent.
	touched      map[tagged.Handle]*etree.Element
	touchedOrder []tagged.Handle

	report *Report
}

func newUpdater(tree *tagged.Tree, sched *schedule, report *Report) *updater {
	return &updater{
		tree:     tree,
		sched:    sched,
		replaced: map[tagged.Handle]tagged.Handle{},
		copies:   map[tagged.Handle]tagged.Handle{},
		touched:  map[tagged.Handle]*etree.Element{},
		report:   report,
	}
}

func (u *updater) run() error {
	if err := u.visit(u.tree.Root()); err != nil {
		return err
	}
	if u.applied != len(u.sched.changes) {
		return fmt.Errorf("%w: %d of %d scheduled changes were not reached", ErrIntegrity, len(u.sched.changes)-u.applied, len(u.sched.changes))
	}
	if err := u.orphans(); err != nil {
		return err
	}
	return u.reorder()
}

// current follows the replacement chain of h.
func (u *updater) current(h tagged.Handle) tagged.Handle {
	for {
		r, ok := u.replaced[h]
		if !ok {
			return h
		}
		h = r
	}
}

// origin follows h back to the node scheduled changes refer to.
func (u *updater) origin(h tagged.Handle) tagged.Handle {
	for {
		o, ok := u.copies[h]
		if !ok {
			return h
		}
		h = o
	}
}

// visit applies the changes below h before those of h itself.
func (u *updater) visit(h tagged.Handle) error {
	for _, a := range u.tree.LiveAttrs(u.current(h)) {
		if err := u.apply(a); err != nil {
			return err
		}
	}
	if u.tree.Kind(u.current(h)).HasChildren() {
		for _, c := range u.tree.LiveChildren(u.current(h)) {
			if err := u.visit(c); err != nil {
				return err
			}
		}
	}
	return u.apply(h)
}

func (u *updater) apply(h tagged.Handle) error {
	h = u.origin(h)
	cs, ok := u.sched.changes[h]
	if !ok {
		return nil
	}
	u.applied++
	for _, op := range cs.ops {
		cur := u.current(h)
		if !u.tree.Live(cur) {
			return fmt.Errorf("%w: %s: target of %s is no longer live", ErrAddressing, cs.control.Location, op)
		}
		if debug.Apply() {
			debug.Logf("apply %s %s (%s)\n", op, cs.control.Location, cur)
		}
		var err error
		switch op {
		case OpDelete:
			if err := u.tree.Delete(cur); err != nil {
				return fmt.Errorf("%w: %w", ErrIntegrity, err)
			}
			u.report.Deleted++
			return nil
		case OpChildCount:
			err = u.drain(cur, cs.test.Location)
		case OpAttributeSet:
			err = u.attributeSet(cur, cs.test.Element())
		case OpAttributeValue:
			if xdom.IsNamespaceDecl(u.tree.Name(cur)) {
				if _, err := u.setValue(u.tree.Parent(cur), ""); err != nil {
					return err
				}
				cur = u.current(cur)
			}
			_, err = u.setValue(cur, cs.test.Value())
		case OpTextValue, OpCommentValue, OpPIData:
			_, err = u.setValue(cur, cs.test.Value())
		case OpChildOrder:
			return fmt.Errorf("%w: %s scheduled as a change of %s", ErrUnsupportedDiff, op, cs.control.Location)
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedDiff, op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *updater) setValue(h tagged.Handle, value string) (tagged.Handle, error) {
	r, err := u.tree.Replace(h, value, func(from, to tagged.Handle) {
		u.replaced[from] = to
		u.copies[to] = from
	})
	if err != nil {
		return tagged.Handle{}, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	u.report.Replaced++
	return r, nil
}

// attributeSet brings the live attribute names of e in line with te.
// Values of attributes present on both sides are changed by their own
// operations. Declaring or removing a namespace replaces the element.
func (u *updater) attributeSet(e tagged.Handle, te *etree.Element) error {
	want := xdom.Attrs(te)
	have := map[string]bool{}
	var err error
	var names []string
	for _, a := range u.tree.LiveAttrs(e) {
		names = append(names, u.tree.Name(a))
	}
	for _, name := range names {
		have[name] = true
		if _, ok := want[name]; ok {
			continue
		}
		if xdom.IsNamespaceDecl(name) {
			if e, err = u.setValue(e, ""); err != nil {
				return err
			}
		}
		a, _ := u.tree.LiveAttr(e, name)
		if err := u.tree.Delete(a); err != nil {
			return fmt.Errorf("%w: %w", ErrIntegrity, err)
		}
		u.report.Deleted++
	}
	for _, ta := range te.Attr {
		name := ta.FullKey()
		if have[name] {
			continue
		}
		if xdom.IsNamespaceDecl(name) {
			if e, err = u.setValue(e, ""); err != nil {
				return err
			}
		}
		if _, err := u.tree.CreateAttr(e, name, ta.Value); err != nil {
			return fmt.Errorf("%w: %w", ErrIntegrity, err)
		}
		u.report.Inserted++
	}
	return nil
}

// drain inserts the subtrees pending below the test side parent key
// under p.
func (u *updater) drain(p tagged.Handle, key string) error {
	for _, tok := range u.sched.take(key) {
		h, err := u.tree.Normalize(p, tok)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIntegrity, err)
		}
		u.report.Inserted++
		u.touch(p, tok.Parent())
		if debug.Apply() {
			debug.Logf("insert %s below %s (%s)\n", h, key, p)
		}
	}
	return nil
}

func (u *updater) touch(p tagged.Handle, te *etree.Element) {
	if _, ok := u.touched[p]; !ok {
		u.touchedOrder = append(u.touchedOrder, p)
	}
	u.touched[p] = te
}

// isNew reports whether h was created by the running update.
func (u *updater) isNew(h tagged.Handle) bool {
	l := u.tree.Lifetime(h)
	return l.Start == u.tree.Version() && l.TStart.Equal(u.tree.Time())
}
