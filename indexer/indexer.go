// Package indexer drives document revisions through the temporal index
// and persists the result.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Reposoft/repos-deltav-sub000/source"
	"github.com/Reposoft/repos-deltav-sub000/store"
	"github.com/Reposoft/repos-deltav-sub000/vfile"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
	"golang.org/x/sync/errgroup"
)

// Config holds the collaborators of an Indexer.
type Config struct {
	Store  store.Store
	Source source.Source
	Log    *slog.Logger
	// Options are passed to every index built or loaded.
	Options []vfile.Option
}

// Indexer keeps the stored index of each key up to date with its
// source. It is safe for concurrent use; work on one key is serialized.
type Indexer struct {
	cfg   Config
	log   *slog.Logger
	locks keyLock
}

func New(cfg Config) (*Indexer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: no store", ErrConfig)
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: no source", ErrConfig)
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Indexer{cfg: cfg, log: cfg.Log}, nil
}

// Result describes one Sync.
type Result struct {
	Key string
	// From is the version of the stored index before the sync, 0 if
	// there was none.
	From int64
	To   int64
	// Revisions counts the revisions merged, including a bootstrap.
	Revisions int
	Reports   []*vfile.Report
}

// Sync brings the index of key up to the latest revision of its
// source. Without a stored index the first revision bootstraps one.
// The index is stored only if it changed.
func (ix *Indexer) Sync(ctx context.Context, key string) (*Result, error) {
	unlock := ix.locks.lock(key)
	defer unlock()

	revs, err := ix.cfg.Source.Revisions(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("revisions of %s: %w", key, err)
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("%w: no revisions of %s", source.ErrNotFound, key)
	}
	res := &Result{Key: key}

	idx, err := ix.load(ctx, key)
	var prev *etree.Document
	switch {
	case errors.Is(err, store.ErrNotFound):
		first := revs[0]
		if prev, err = ix.fetch(ctx, key, first); err != nil {
			return nil, err
		}
		if idx, err = vfile.NormalizeDocument(prev, first.Time, first.Number, ix.cfg.Options...); err != nil {
			return nil, fmt.Errorf("bootstrap %s at %d: %w", key, first.Number, err)
		}
		res.Revisions++
		revs = revs[1:]
	case err != nil:
		return nil, err
	default:
		res.From = idx.DocVersion()
		at, ok := source.Find(revs, res.From)
		if !ok {
			return nil, fmt.Errorf("%w: %s: stored index at %d", source.ErrRevision, key, res.From)
		}
		if prev, err = ix.fetch(ctx, key, at); err != nil {
			return nil, err
		}
	}

	for _, rev := range revs {
		if rev.Number <= idx.DocVersion() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := ix.fetch(ctx, key, rev)
		if err != nil {
			return nil, err
		}
		rep, err := idx.Update(prev, next, rev.Time, rev.Number)
		if err != nil {
			return nil, fmt.Errorf("update %s to %d: %w", key, rev.Number, err)
		}
		ix.log.Debug("revision indexed", "key", key, "version", rev.Number,
			"differences", rep.Differences, "operations", rep.Operations)
		res.Reports = append(res.Reports, rep)
		res.Revisions++
		prev = next
	}
	res.To = idx.DocVersion()
	if res.Revisions == 0 {
		ix.log.Debug("index up to date", "key", key, "version", res.To)
		return res, nil
	}
	if err := ix.put(ctx, key, idx); err != nil {
		return nil, err
	}
	ix.log.Info("index synced", "key", key, "from", res.From, "to", res.To, "revisions", res.Revisions)
	return res, nil
}

// SyncAll syncs keys with at most parallel syncs running at once. A
// parallel value below 1 means no limit. The results are in the order
// of keys; the first error cancels the remaining syncs.
func (ix *Indexer) SyncAll(ctx context.Context, keys []string, parallel int) ([]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	res := make([]*Result, len(keys))
	for i, key := range keys {
		g.Go(func() error {
			r, err := ix.Sync(ctx, key)
			if err != nil {
				return err
			}
			res[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// Check loads the stored index of key and verifies that its live
// content equals the document at the index's version.
func (ix *Indexer) Check(ctx context.Context, key string) error {
	unlock := ix.locks.lock(key)
	defer unlock()

	idx, err := ix.load(ctx, key)
	if err != nil {
		return err
	}
	revs, err := ix.cfg.Source.Revisions(ctx, key)
	if err != nil {
		return fmt.Errorf("revisions of %s: %w", key, err)
	}
	rev, ok := source.Find(revs, idx.DocVersion())
	if !ok {
		return fmt.Errorf("%w: %s: stored index at %d", source.ErrRevision, key, idx.DocVersion())
	}
	doc, err := ix.fetch(ctx, key, rev)
	if err != nil {
		return err
	}
	if !idx.DocumentEquals(doc) {
		return fmt.Errorf("%w: %s at %d", ErrMismatch, key, rev.Number)
	}
	if !idx.DocTime().Equal(rev.Time) {
		return fmt.Errorf("%w: %s: index time %s, revision time %s", ErrMismatch, key, idx.DocTime(), rev.Time)
	}
	return nil
}

// Load returns the stored index of key.
func (ix *Indexer) Load(ctx context.Context, key string) (*vfile.Index, error) {
	return ix.load(ctx, key)
}

func (ix *Indexer) load(ctx context.Context, key string) (*vfile.Index, error) {
	data, err := ix.cfg.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	idx, err := vfile.Parse(data, ix.cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return idx, nil
}

func (ix *Indexer) fetch(ctx context.Context, key string, rev source.Revision) (*etree.Document, error) {
	data, err := ix.cfg.Source.Fetch(ctx, key, rev)
	if err != nil {
		return nil, fmt.Errorf("fetch %s at %d: %w", key, rev.Number, err)
	}
	doc, err := xdom.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s at %d: %w", key, rev.Number, err)
	}
	return doc, nil
}

// put stores idx unless the store already holds a newer index of key,
// which another writer may have put since this one was loaded.
func (ix *Indexer) put(ctx context.Context, key string, idx *vfile.Index) error {
	cur, err := ix.load(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	case cur.DocVersion() > idx.DocVersion():
		return fmt.Errorf("%w: %s: stored %d, new %d", ErrStale, key, cur.DocVersion(), idx.DocVersion())
	}
	data, err := idx.Bytes()
	if err != nil {
		return err
	}
	return ix.cfg.Store.Put(ctx, key, data)
}
