// Package xdom holds helpers over etree documents: parsing, text
// normalization, node kinds and sibling classes shared by the
// comparator, the path type and the index.
package xdom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

var ErrParse = errors.New("xml parse error")

// Parse reads an xml document.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no document element", ErrParse)
	}
	return doc, nil
}

// MustParse is Parse for literals in tests and examples.
func MustParse(s string) *etree.Document {
	doc, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return doc
}

// Options controls text normalization.
type Options struct {
	// KeepWhitespace retains whitespace-only text inside elements.
	KeepWhitespace bool
	// TrimText trims leading and trailing whitespace of text values.
	TrimText bool
	// IgnoreComments removes comments.
	IgnoreComments bool
}

// Normalize rewrites doc in place: adjacent text and CDATA sections are
// coalesced into single text nodes, insignificant whitespace is
// dropped according to opts and the xml declaration is removed.
func Normalize(doc *etree.Document, opts Options) {
	normalizeChildren(&doc.Element, opts, true)
}

func normalizeChildren(e *etree.Element, opts Options, top bool) {
	var (
		out     []etree.Token
		text    strings.Builder
		pending bool
	)
	flush := func() {
		if !pending {
			return
		}
		pending = false
		s := text.String()
		text.Reset()
		if top {
			return
		}
		if opts.TrimText {
			s = strings.TrimSpace(s)
		}
		if s == "" || !opts.KeepWhitespace && strings.TrimSpace(s) == "" {
			return
		}
		out = append(out, etree.NewText(s))
	}
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			text.WriteString(t.Data)
			pending = true
			continue
		case *etree.ProcInst:
			if top && t.Target == "xml" {
				continue
			}
		case *etree.Comment:
			if opts.IgnoreComments {
				continue
			}
		case *etree.Element:
			normalizeChildren(t, opts, false)
		}
		flush()
		out = append(out, tok)
	}
	flush()
	for i := len(e.Child) - 1; i >= 0; i-- {
		e.RemoveChildAt(i)
	}
	for _, tok := range out {
		e.AddChild(tok)
	}
}

// Children returns the child tokens of e the index models, in order.
func Children(e *etree.Element) []etree.Token {
	res := make([]etree.Token, 0, len(e.Child))
	for _, tok := range e.Child {
		if _, ok := KindOf(tok); ok {
			res = append(res, tok)
		}
	}
	return res
}

// ChildIndex returns the position of tok among the modeled children of
// its parent, or -1.
func ChildIndex(tok etree.Token) int {
	p := tok.Parent()
	if p == nil {
		return -1
	}
	i := 0
	for _, c := range p.Child {
		if c == tok {
			return i
		}
		if _, ok := KindOf(c); ok {
			i++
		}
	}
	return -1
}

// ClassOrdinal returns the 0-based position of tok among the siblings
// sharing its class.
func ClassOrdinal(tok etree.Token) int {
	p := tok.Parent()
	if p == nil {
		return 0
	}
	cls := Class(tok)
	n := 0
	for _, c := range p.Child {
		if c == tok {
			return n
		}
		if _, ok := KindOf(c); ok && Class(c) == cls {
			n++
		}
	}
	return -1
}

// Attrs returns the attributes of e keyed by qualified name.
func Attrs(e *etree.Element) map[string]string {
	res := make(map[string]string, len(e.Attr))
	for _, a := range e.Attr {
		res[a.FullKey()] = a.Value
	}
	return res
}

// FindAttr returns the attribute of e with the qualified name, or nil.
func FindAttr(e *etree.Element, name string) *etree.Attr {
	for i := range e.Attr {
		if e.Attr[i].FullKey() == name {
			return &e.Attr[i]
		}
	}
	return nil
}

// Directives returns the concatenated directive data of the document
// prolog, used to detect doctype changes.
func Directives(doc *etree.Document) string {
	var b strings.Builder
	for _, tok := range doc.Child {
		if d, ok := tok.(*etree.Directive); ok {
			b.WriteString(d.Data)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
