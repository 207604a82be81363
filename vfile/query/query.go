// Package query filters the nodes of a temporal index with expr-lang
// expressions.
//
// An expression is evaluated once per node and must yield a bool. It
// sees the fields of Env:
//
//	kind == "element" && name == "page" && !live
//	kind == "attribute" && name == "id" && start >= 3
//	kind == "text" && At(2) && value contains "draft"
//	reorder > 0
package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/vfile"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var ErrQuery = errors.New("query error")

// Env is what an expression sees for one node. End is -1 and TEnd the
// zero time while the node is live.
type Env struct {
	Kind    string    `expr:"kind"`
	Name    string    `expr:"name"`
	Value   string    `expr:"value"`
	Path    string    `expr:"path"`
	Start   int64     `expr:"start"`
	End     int64     `expr:"end"`
	TStart  time.Time `expr:"tstart"`
	TEnd    time.Time `expr:"tend"`
	Live    bool      `expr:"live"`
	Reorder int64     `expr:"reorder"`
}

// At reports whether the node existed at version v.
func (e Env) At(v int) bool {
	return e.Start <= int64(v) && (e.End == vfile.Now || int64(v) < e.End)
}

// AtTime reports whether the node existed at t.
func (e Env) AtTime(t time.Time) bool {
	return !e.TStart.After(t) && (e.TEnd.IsZero() || t.Before(e.TEnd))
}

func envOf(n vfile.Node) Env {
	return Env{
		Kind:    n.Kind.String(),
		Name:    n.Name,
		Value:   n.Value,
		Path:    n.Path,
		Start:   n.Start,
		End:     n.End,
		TStart:  n.TStart,
		TEnd:    n.TEnd,
		Live:    n.Live,
		Reorder: n.Reorder,
	}
}

// Query is a compiled filter.
type Query struct {
	src string
	prg *vm.Program
}

// Compile compiles src. The expression must evaluate to a bool.
func Compile(src string) (*Query, error) {
	prg, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return &Query{src: src, prg: prg}, nil
}

func (q *Query) String() string {
	return q.src
}

// Match evaluates q for n.
func (q *Query) Match(n vfile.Node) (bool, error) {
	res, err := expr.Run(q.prg, envOf(n))
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrQuery, n.Path, err)
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrQuery, q.src, res)
	}
	return b, nil
}

// Select returns the nodes of ix matched by q, in document order.
func (q *Query) Select(ix *vfile.Index) ([]vfile.Node, error) {
	var res []vfile.Node
	err := ix.Walk(func(n vfile.Node) error {
		ok, err := q.Match(n)
		if err != nil {
			return err
		}
		if ok {
			res = append(res, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Select compiles src and selects the matching nodes of ix.
func Select(ix *vfile.Index, src string) ([]vfile.Node, error) {
	q, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return q.Select(ix)
}
