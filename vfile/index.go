// Package vfile maintains the temporal index of an xml document.
//
// The index records every element, attribute, text, comment and
// processing instruction a document ever held, together with the
// range of revisions and times during which that exact node existed.
// It is built from the first revision with [NormalizeDocument] and
// brought forward one revision at a time with [Index.Update], which
// compares the previous and the new content and merges the differences
// without losing history: removed nodes are closed, changed values get
// a new node next to the closed one, and moved siblings are
// repositioned.
package vfile

import (
	"errors"
	"fmt"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/debug"
	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
	"github.com/Reposoft/repos-deltav-sub000/xdiff"
	"github.com/beevik/etree"
)

// ErrNoRevision is returned by history queries for a revision or time
// before the first indexed one.
var ErrNoRevision = errors.New("revision not indexed")

// Index is the temporal index of one document. An Index is not safe for
// concurrent use.
type Index struct {
	cfg  config
	tree *tagged.Tree
}

// NormalizeDocument builds the index of the first indexed revision of
// a document.
func NormalizeDocument(doc *etree.Document, t time.Time, version int64, opts ...Option) (*Index, error) {
	cfg := newConfig(opts)
	if t.IsZero() {
		return nil, fmt.Errorf("%w: zero time for version %d", ErrIntegrity, version)
	}
	prep := cfg.compare.Prepare(doc)
	tree := tagged.New(version, t)
	if err := tree.NormalizeChildren(tree.Root(), &prep.Element); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	if !tree.Equal(tree.Root(), &prep.Element) {
		return nil, fmt.Errorf("%w: index of version %d does not reflect the document", ErrIntegrity, version)
	}
	cfg.log.Debug("index created", "version", version, "nodes", tree.Len())
	return &Index{cfg: cfg, tree: tree}, nil
}

// Update records the change from oldDoc, the content at the current
// document version, to newDoc at version and t. The update is staged on
// a copy of the index and only replaces it when the result reflects
// newDoc exactly; on error the index is unchanged.
func (ix *Index) Update(oldDoc, newDoc *etree.Document, t time.Time, version int64) (*Report, error) {
	if version < ix.tree.Version() {
		return nil, fmt.Errorf("%w: version %d is older than %d", ErrIntegrity, version, ix.tree.Version())
	}
	if t.IsZero() || t.Before(ix.tree.Time()) {
		return nil, fmt.Errorf("%w: time %s is older than %s", ErrIntegrity, t, ix.tree.Time())
	}
	res := xdiff.Compare(ix.cfg.compare, oldDoc, newDoc)
	tree := ix.tree.Clone()
	if ix.cfg.verifyTargets && !tree.Equal(tree.Root(), &res.Control.Element) {
		return nil, fmt.Errorf("%w: index at version %d does not reflect the previous content", ErrIntegrity, tree.Version())
	}
	sched, err := ix.cfg.schedule(tree, res)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Version:     version,
		Differences: len(res.Differences),
		Scheduled:   len(sched.changes),
		Reorders:    len(sched.reorders),
	}
	for _, cs := range sched.changes {
		report.Operations += len(cs.ops)
	}
	tree.SetClock(version, t)
	if err := newUpdater(tree, sched, report).run(); err != nil {
		return nil, err
	}
	if !tree.Equal(tree.Root(), &res.Test.Element) {
		if debug.Index() {
			debug.Logf("index after update to %d:\n%v\nwant:\n%v\n", version, tree.Snapshot(tagged.Lifetime.Live), res.Test.Root())
		}
		return nil, fmt.Errorf("%w: index of version %d does not reflect the document", ErrIntegrity, version)
	}
	ix.tree = tree
	ix.cfg.log.Debug("index updated",
		"version", version,
		"differences", report.Differences,
		"scheduled", report.Scheduled,
		"inserted", report.Inserted,
		"deleted", report.Deleted,
		"replaced", report.Replaced,
		"reordered", report.Reordered)
	return report, nil
}

// DocumentEquals reports whether the live content of the index is the
// content of doc.
func (ix *Index) DocumentEquals(doc *etree.Document) bool {
	prep := ix.cfg.compare.Prepare(doc)
	return ix.tree.Equal(ix.tree.Root(), &prep.Element)
}

// DocVersion returns the version the index was last brought to.
func (ix *Index) DocVersion() int64 {
	return ix.tree.Version()
}

// DocTime returns the time of DocVersion.
func (ix *Index) DocTime() time.Time {
	return ix.tree.Time()
}

// Len returns the number of nodes, live and closed, in the index.
func (ix *Index) Len() int {
	return ix.tree.Len()
}
