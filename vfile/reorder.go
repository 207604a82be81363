package vfile

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Reposoft/repos-deltav-sub000/axis"
	"github.com/Reposoft/repos-deltav-sub000/debug"
	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// orphans inserts the subtrees whose parent had no scheduled child
// count change. Parents are resolved shallowest first.
func (u *updater) orphans() error {
	type entry struct {
		key  string
		path axis.Path
	}
	entries := make([]entry, 0, len(u.sched.pendingKeys))
	for _, key := range u.sched.pendingKeys {
		p, err := axis.Parse(key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAddressing, err)
		}
		entries = append(entries, entry{key: key, path: p})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.path.Depth(), b.path.Depth())
	})
	for _, e := range entries {
		p, err := u.tree.Resolve(e.path)
		if err != nil {
			return fmt.Errorf("%w: parent of pending insert: %w", ErrAddressing, err)
		}
		u.report.Orphans += len(u.sched.pending[e.key])
		if err := u.drain(p, e.key); err != nil {
			return err
		}
	}
	if n := u.sched.pendingCount(); n > 0 {
		return fmt.Errorf("%w: %d pending inserts left unresolved", ErrAddressing, n)
	}
	return nil
}

// reorder aligns the live children of every parent which received new
// children or holds a node scheduled for a position change with the
// test document.
func (u *updater) reorder() error {
	type target struct {
		parent tagged.Handle
		test   *etree.Element
	}
	var targets []target
	seen := map[tagged.Handle]bool{}
	add := func(p tagged.Handle, te *etree.Element) {
		p = u.current(p)
		if seen[p] {
			return
		}
		seen[p] = true
		targets = append(targets, target{parent: p, test: te})
	}
	for _, p := range u.touchedOrder {
		add(p, u.touched[p])
	}
	scheduled := map[tagged.Handle]bool{}
	for _, h := range u.sched.reorderOrder {
		cs := u.sched.reorders[h]
		cur := u.current(h)
		if !u.tree.Live(cur) {
			return fmt.Errorf("%w: %s: reorder target is no longer live", ErrAddressing, cs.control.Location)
		}
		scheduled[cur] = true
		add(u.tree.Parent(cur), cs.test.Token.Parent())
	}
	for _, t := range targets {
		if err := u.order(t.parent, t.test, scheduled); err != nil {
			return err
		}
	}
	return nil
}

// order moves the live children of p into the order of the children of
// te. Children pair by their ordinal within their sibling class. The
// longest run already in order stays; the others are taken out and put
// back in increasing target position.
func (u *updater) order(p tagged.Handle, te *etree.Element, scheduled map[tagged.Handle]bool) error {
	if !u.tree.Live(p) {
		return fmt.Errorf("%w: reordered parent %s is not live", ErrIntegrity, p)
	}
	live := u.tree.LiveChildren(p)
	want := xdom.Children(te)
	if len(live) != len(want) {
		return fmt.Errorf("%w: %s has %d live children, want %d", ErrIntegrity, axis.FromToken(te), len(live), len(want))
	}
	byClass := map[string][]int{}
	for j, tok := range want {
		cls := xdom.Class(tok)
		byClass[cls] = append(byClass[cls], j)
	}
	ords := map[string]int{}
	pos := make([]int, len(live))
	for i, h := range live {
		cls := u.tree.Class(h)
		ord := ords[cls]
		ords[cls] = ord + 1
		if ord >= len(byClass[cls]) {
			return fmt.Errorf("%w: %s: no counterpart for child %d of class %s", ErrIntegrity, axis.FromToken(te), i+1, cls)
		}
		pos[i] = byClass[cls][ord]
	}
	keep := longestIncreasing(pos)
	var moved []int
	for i, h := range live {
		if !keep[i] {
			moved = append(moved, i)
			u.tree.Detach(h)
		}
	}
	slices.SortFunc(moved, func(a, b int) int { return cmp.Compare(pos[a], pos[b]) })
	for _, i := range moved {
		h := live[i]
		u.tree.InsertAt(p, u.tree.LivePos(p, pos[i]), h)
		if !u.isNew(h) {
			u.tree.SetReorder(h, u.tree.Version())
			u.report.Reordered++
		}
		if debug.Reorder() {
			debug.Logf("reorder %s to %d below %s\n", h, pos[i], axis.FromToken(te))
		}
	}
	for _, h := range live {
		if scheduled[h] {
			u.tree.SetReorder(h, u.tree.Version())
		}
	}
	return nil
}

// longestIncreasing marks one longest strictly increasing subsequence
// of seq.
func longestIncreasing(seq []int) []bool {
	var tails []int
	prev := make([]int, len(seq))
	for i, v := range seq {
		k, _ := slices.BinarySearchFunc(tails, v, func(j, v int) int {
			return cmp.Compare(seq[j], v)
		})
		prev[i] = -1
		if k > 0 {
			prev[i] = tails[k-1]
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}
	keep := make([]bool, len(seq))
	if len(tails) == 0 {
		return keep
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		keep[i] = true
	}
	return keep
}
