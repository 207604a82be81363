// Package xdiff compares two xml documents and reports the structural
// differences between them.
//
// Nodes of the two trees are paired with a name and relative position
// qualifier: two elements are comparable when they share the qualified
// tag and the ordinal among same-tag siblings. Text and comment nodes
// pair by ordinal among their own kind, processing instructions by
// target and ordinal. Inserting or removing differently named siblings
// therefore never misaligns same-named ones.
package xdiff

import (
	"slices"

	"github.com/Reposoft/repos-deltav-sub000/debug"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Config is the immutable comparison configuration.
type Config struct {
	// KeepWhitespace retains whitespace-only text nodes.
	KeepWhitespace bool
	// TrimText trims text values before comparing.
	TrimText bool
	// IgnoreComments drops comments from both documents.
	IgnoreComments bool
}

// DefaultConfig ignores whitespace-only text and keeps comments.
func DefaultConfig() Config {
	return Config{}
}

// Options returns the normalization options implied by c.
func (c Config) Options() xdom.Options {
	return xdom.Options{
		KeepWhitespace: c.KeepWhitespace,
		TrimText:       c.TrimText,
		IgnoreComments: c.IgnoreComments,
	}
}

// Prepare returns a normalized copy of doc. All nodes referenced by a
// comparison belong to prepared copies.
func (c Config) Prepare(doc *etree.Document) *etree.Document {
	res := doc.Copy()
	xdom.Normalize(res, c.Options())
	return res
}

// Result is the outcome of Compare.
type Result struct {
	// Control and Test are the prepared documents the differences
	// refer to.
	Control, Test *etree.Document
	Differences   []Difference
}

// Compare prepares copies of control and test according to cfg and
// returns their differences.
func Compare(cfg Config, control, test *etree.Document) *Result {
	res := &Result{
		Control: cfg.Prepare(control),
		Test:    cfg.Prepare(test),
	}
	c := &comparer{}
	if xdom.Directives(res.Control) != xdom.Directives(res.Test) {
		c.add(DoctypeChanged, tokenNode(&res.Control.Element), tokenNode(&res.Test.Element))
	}
	c.children(&res.Control.Element, &res.Test.Element)
	res.Differences = c.diffs
	if debug.Diff() {
		for _, d := range c.diffs {
			debug.Logf("diff %s\n", d)
		}
	}
	return res
}

type comparer struct {
	diffs []Difference
}

func (c *comparer) add(id ID, control, test Node) {
	c.diffs = append(c.diffs, Difference{ID: id, Control: control, Test: test})
}

func (c *comparer) pair(cn, tn etree.Token) {
	switch x := cn.(type) {
	case *etree.Element:
		c.element(x, tn.(*etree.Element))
	case *etree.CharData:
		if x.Data != tn.(*etree.CharData).Data {
			c.add(TextValueChanged, tokenNode(cn), tokenNode(tn))
		}
	case *etree.Comment:
		if x.Data != tn.(*etree.Comment).Data {
			c.add(CommentValueChanged, tokenNode(cn), tokenNode(tn))
		}
	case *etree.ProcInst:
		if x.Inst != tn.(*etree.ProcInst).Inst {
			c.add(ProcessingInstructionDataChanged, tokenNode(cn), tokenNode(tn))
		}
	}
}

func (c *comparer) element(ce, te *etree.Element) {
	ca, ta := xdom.Attrs(ce), xdom.Attrs(te)
	sameSet := len(ca) == len(ta)
	if sameSet {
		for k := range ca {
			if _, ok := ta[k]; !ok {
				sameSet = false
				break
			}
		}
	}
	if !sameSet {
		c.add(AttributeSetChanged, tokenNode(ce), tokenNode(te))
	}
	for _, a := range ce.Attr {
		k := a.FullKey()
		tv, ok := ta[k]
		if ok && tv != a.Value {
			c.add(AttributeValueChanged, attrNode(ce, k), attrNode(te, k))
		}
	}
	c.children(ce, te)
}

// children pairs the children of two comparable parents.
func (c *comparer) children(cp, tp *etree.Element) {
	cc, tc := xdom.Children(cp), xdom.Children(tp)
	if len(cc) != len(tc) {
		c.add(ChildCountChanged, tokenNode(cp), tokenNode(tp))
	}
	classes := map[string][]int{}
	for i, tok := range cc {
		cls := xdom.Class(tok)
		classes[cls] = append(classes[cls], i)
	}
	// testOf[i] is the test index paired with control child i, or -1.
	testOf := make([]int, len(cc))
	for i := range testOf {
		testOf[i] = -1
	}
	seen := map[string]int{}
	var added []int
	for j, tok := range tc {
		cls := xdom.Class(tok)
		ord := seen[cls]
		seen[cls] = ord + 1
		if ord < len(classes[cls]) {
			testOf[classes[cls][ord]] = j
			continue
		}
		added = append(added, j)
	}
	var paired []int
	for i, tok := range cc {
		if testOf[i] < 0 {
			c.add(NodeNotFound, tokenNode(tok), Node{})
			continue
		}
		paired = append(paired, i)
		c.pair(tok, tc[testOf[i]])
	}
	for _, j := range added {
		c.add(NodeNotFound, Node{}, tokenNode(tc[j]))
	}
	for _, i := range outOfOrder(paired, testOf) {
		c.add(ChildOrderChanged, tokenNode(cc[i]), tokenNode(tc[testOf[i]]))
	}
}

// outOfOrder returns the control indices of paired children which are
// not part of the longest run kept in order by the test side, ordered
// by their test index.
func outOfOrder(paired, testOf []int) []int {
	if len(paired) < 2 {
		return nil
	}
	byTest := slices.Clone(paired)
	slices.SortFunc(byTest, func(a, b int) int { return testOf[a] - testOf[b] })
	if slices.Equal(byTest, paired) {
		return nil
	}
	runeOf := make(map[int]rune, len(paired))
	from := make([]rune, len(paired))
	for k, i := range paired {
		runeOf[i] = seqRune(k)
		from[k] = runeOf[i]
	}
	to := make([]rune, len(byTest))
	for k, i := range byTest {
		to[k] = runeOf[i]
	}
	diffs := diffpatch.New().DiffMainRunes(from, to, false)
	stable := map[rune]bool{}
	for _, d := range diffs {
		if d.Type != diffpatch.DiffEqual {
			continue
		}
		for _, r := range d.Text {
			stable[r] = true
		}
	}
	var res []int
	for _, i := range byTest {
		if !stable[runeOf[i]] {
			res = append(res, i)
		}
	}
	return res
}

// seqRune maps a sequence position to a rune outside the surrogate
// range, since the diff works on strings.
func seqRune(k int) rune {
	if k >= 0xD800 {
		k += 0x800
	}
	return rune(k)
}
