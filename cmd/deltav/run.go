package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/vfile"
	"github.com/Reposoft/repos-deltav-sub000/vfile/query"
	"github.com/beevik/etree"
	"github.com/scott-cotton/cli"
)

func index(cfg *IndexConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Index.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: index requires at least one file", cli.ErrUsage)
	}
	e, err := cfg.open(cc)
	if err != nil {
		return err
	}
	defer e.close()
	ix, err := e.indexer()
	if err != nil {
		return err
	}
	parallel := e.cfg.Parallel
	if cfg.Parallel > 0 {
		parallel = cfg.Parallel
	}
	res, err := ix.SyncAll(e.ctx, args, parallel)
	p := newPalette(e.colors)
	for _, r := range res {
		if r == nil {
			continue
		}
		if r.Revisions == 0 {
			fmt.Fprintf(cc.Out, "%s %s\n", p.path("%s", r.Key), p.meta("up to date at %d", r.To))
			continue
		}
		fmt.Fprintf(cc.Out, "%s %s\n", p.path("%s", r.Key), p.meta("%d -> %d (%d revisions)", r.From, r.To, r.Revisions))
	}
	return err
}

func show(cfg *ShowConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Show.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: show requires one file", cli.ErrUsage)
	}
	e, err := cfg.open(cc)
	if err != nil {
		return err
	}
	defer e.close()
	idx, err := e.load(args[0])
	if err != nil {
		return err
	}
	doc, err := idx.Marshal()
	if err != nil {
		return err
	}
	if cfg.Indent {
		doc.Indent(2)
	}
	_, err = doc.WriteTo(cc.Out)
	return err
}

func at(cfg *AtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.At.Parse(cc, args)
	if err != nil {
		return err
	}
	var (
		version int64
		when    time.Time
	)
	switch {
	case cfg.Time != "" && len(args) == 1:
		if when, err = time.Parse(time.RFC3339, cfg.Time); err != nil {
			return fmt.Errorf("%w: -t: %w", cli.ErrUsage, err)
		}
	case cfg.Time == "" && len(args) == 2:
		if version, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("%w: version: %w", cli.ErrUsage, err)
		}
	default:
		return fmt.Errorf("%w: at requires a file and either a version or -t", cli.ErrUsage)
	}
	e, err := cfg.open(cc)
	if err != nil {
		return err
	}
	defer e.close()
	idx, err := e.load(args[0])
	if err != nil {
		return err
	}
	var doc *etree.Document
	if cfg.Time != "" {
		doc, err = idx.AtTime(when)
	} else {
		doc, err = idx.At(version)
	}
	if err != nil {
		return err
	}
	return writeDoc(cc.Out, doc)
}

func writeDoc(w io.Writer, doc *etree.Document) error {
	if _, err := doc.WriteTo(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("%w: diff requires a file and two versions", cli.ErrUsage)
	}
	var vs [2]int64
	for i, a := range args[1:] {
		if vs[i], err = strconv.ParseInt(a, 10, 64); err != nil {
			return fmt.Errorf("%w: version %q: %w", cli.ErrUsage, a, err)
		}
	}
	e, err := cfg.open(cc)
	if err != nil {
		return err
	}
	defer e.close()
	idx, err := e.load(args[0])
	if err != nil {
		return err
	}
	var texts [2]string
	for i, v := range vs {
		doc, err := idx.At(v)
		if err != nil {
			return err
		}
		// indentation is for display only
		doc.Indent(2)
		if texts[i], err = doc.WriteToString(); err != nil {
			return err
		}
	}
	_, err = writeDiff(cc.Out, texts[0], texts[1], newPalette(e.colors))
	return err
}

func queryIndex(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Query.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: query requires a file and an expression", cli.ErrUsage)
	}
	q, err := query.Compile(args[1])
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	e, err := cfg.open(cc)
	if err != nil {
		return err
	}
	defer e.close()
	idx, err := e.load(args[0])
	if err != nil {
		return err
	}
	nodes, err := q.Select(idx)
	if err != nil {
		return err
	}
	p := newPalette(e.colors)
	for _, n := range nodes {
		writeNode(cc.Out, n, cfg.Values, p)
	}
	return nil
}

func writeNode(w io.Writer, n vfile.Node, values bool, p *palette) {
	end := "NOW"
	if !n.Live {
		end = strconv.FormatInt(n.End, 10)
	}
	path := p.path("%s", n.Path)
	if !n.Live {
		path = p.dead("%s", n.Path)
	}
	fmt.Fprintf(w, "%s %s", path, p.meta("[%d,%s)", n.Start, end))
	if n.Reorder != 0 {
		fmt.Fprintf(w, " %s", p.meta("moved@%d", n.Reorder))
	}
	if values && n.Kind.HasValue() {
		fmt.Fprintf(w, " %q", n.Value)
	}
	fmt.Fprintln(w)
}

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: check requires at least one file", cli.ErrUsage)
	}
	e, err := cfg.open(cc)
	if err != nil {
		return err
	}
	defer e.close()
	ix, err := e.indexer()
	if err != nil {
		return err
	}
	p := newPalette(e.colors)
	failed := 0
	for _, key := range args {
		if err := ix.Check(e.ctx, key); err != nil {
			failed++
			fmt.Fprintf(cc.Out, "%s %s\n", p.path("%s", key), p.del("%v", err))
			continue
		}
		fmt.Fprintf(cc.Out, "%s %s\n", p.path("%s", key), p.add("ok"))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed the check", failed, len(args))
	}
	return nil
}
