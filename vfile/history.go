package vfile

import (
	"fmt"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/axis"
	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// At reconstructs the document as it was at version.
func (ix *Index) At(version int64) (*etree.Document, error) {
	root := ix.tree.Lifetime(ix.tree.Root())
	if version < root.Start {
		return nil, fmt.Errorf("%w: version %d precedes %d", ErrNoRevision, version, root.Start)
	}
	return ix.tree.Snapshot(func(l tagged.Lifetime) bool { return l.At(version) }), nil
}

// AtTime reconstructs the document as it was at t.
func (ix *Index) AtTime(t time.Time) (*etree.Document, error) {
	root := ix.tree.Lifetime(ix.tree.Root())
	if t.Before(root.TStart) {
		return nil, fmt.Errorf("%w: %s precedes %s", ErrNoRevision, t.Format(time.RFC3339), root.TStart.Format(time.RFC3339))
	}
	return ix.tree.Snapshot(func(l tagged.Lifetime) bool { return l.AtTime(t) }), nil
}

// Node describes one node of the index, live or closed.
type Node struct {
	// Path counts live and closed siblings, so it identifies the node
	// in the persisted index rather than in any one revision.
	Path    string
	Kind    xdom.Kind
	Name    string
	Value   string
	Start   int64
	End     int64 // tagged Now while live
	TStart  time.Time
	TEnd    time.Time
	Live    bool
	Reorder int64
}

// Now is the End of a live Node.
const Now = tagged.Now

// Walk calls fn for every node of the index in document order,
// attributes before children. The document node is not visited.
func (ix *Index) Walk(fn func(Node) error) error {
	return ix.tree.Walk(func(h tagged.Handle, p axis.Path) error {
		if h == ix.tree.Root() {
			return nil
		}
		l := ix.tree.Lifetime(h)
		return fn(Node{
			Path:    p.String(),
			Kind:    ix.tree.Kind(h),
			Name:    ix.tree.Name(h),
			Value:   ix.tree.Value(h),
			Start:   l.Start,
			End:     l.End,
			TStart:  l.TStart,
			TEnd:    l.TEnd,
			Live:    l.Live(),
			Reorder: ix.tree.Reorder(h),
		})
	})
}
