// Package gitsource reads document revisions from a git repository.
//
// Commits reachable from a reference are numbered 1..N oldest first in
// committer time order, so revision numbers are shared by all files of
// the repository. The revisions of a file are the commits where its
// blob changed.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/Reposoft/repos-deltav-sub000/source"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultRef is the reference followed when none is given.
const DefaultRef = "HEAD"

// Source is a source.Source over a git repository.
type Source struct {
	repo   *git.Repository
	ref    string
	logger *slog.Logger
}

var _ source.Source = (*Source)(nil)

// New returns a source following ref in repo. An empty ref means
// DefaultRef; a nil logger means slog.Default().
func New(repo *git.Repository, ref string, logger *slog.Logger) *Source {
	if ref == "" {
		ref = DefaultRef
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{repo: repo, ref: ref, logger: logger}
}

// Open opens the repository at path.
func Open(path, ref string, logger *slog.Logger) (*Source, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", path, err)
	}
	return New(repo, ref, logger), nil
}

// commits returns the commits reachable from the reference, oldest
// first.
func (s *Source) commits(ctx context.Context) ([]*object.Commit, error) {
	hash, err := s.repo.ResolveRevision(plumbing.Revision(s.ref))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %w", source.ErrRevision, s.ref, err)
	}
	iter, err := s.repo.Log(&git.LogOptions{From: *hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var res []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res = append(res, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

func gitPath(key string) string {
	return filepath.ToSlash(filepath.Clean(key))
}

// Revisions lists the commits that changed the file key.
func (s *Source) Revisions(ctx context.Context, key string) ([]source.Revision, error) {
	commits, err := s.commits(ctx)
	if err != nil {
		return nil, err
	}
	p := gitPath(key)
	var (
		res  []source.Revision
		last plumbing.Hash
	)
	for i, c := range commits {
		f, err := c.File(p)
		if errors.Is(err, object.ErrFileNotFound) {
			last = plumbing.ZeroHash
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s at %s: %w", p, c.Hash, err)
		}
		if f.Hash == last {
			continue
		}
		last = f.Hash
		res = append(res, source.Revision{
			Number: int64(i + 1),
			Time:   c.Committer.When,
			ID:     c.Hash.String(),
		})
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, key)
	}
	s.logger.Debug("git revisions", "key", key, "commits", len(commits), "revisions", len(res))
	return res, nil
}

// Fetch reads key at the commit named by rev.ID.
func (s *Source) Fetch(_ context.Context, key string, rev source.Revision) ([]byte, error) {
	if !plumbing.IsHash(rev.ID) {
		return nil, fmt.Errorf("%w: %q is not a commit hash", source.ErrRevision, rev.ID)
	}
	c, err := s.repo.CommitObject(plumbing.NewHash(rev.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", source.ErrRevision, rev.ID, err)
	}
	f, err := c.File(gitPath(key))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s at %s", source.ErrNotFound, key, rev.ID)
	}
	if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
