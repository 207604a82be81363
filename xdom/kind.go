package xdom

import (
	"fmt"

	"github.com/beevik/etree"
)

// Kind is the closed set of structural node kinds tracked by the index.
type Kind int

const (
	InvalidKind Kind = iota
	Element
	Attribute
	Text
	Comment
	ProcInst
	Document
)

var kindNames = [...]string{
	InvalidKind: "invalid",
	Element:     "element",
	Attribute:   "attribute",
	Text:        "text",
	Comment:     "comment",
	ProcInst:    "processing-instruction",
	Document:    "document",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s && Kind(i) != InvalidKind {
			return Kind(i), nil
		}
	}
	return InvalidKind, fmt.Errorf("unknown node kind %q", s)
}

// HasChildren reports whether nodes of kind k carry an ordered child list.
func (k Kind) HasChildren() bool {
	return k == Element || k == Document
}

// HasValue reports whether nodes of kind k carry a value.
func (k Kind) HasValue() bool {
	switch k {
	case Attribute, Text, Comment, ProcInst:
		return true
	}
	return false
}

// HasName reports whether nodes of kind k carry a name.
func (k Kind) HasName() bool {
	switch k {
	case Element, Attribute, ProcInst:
		return true
	}
	return false
}

// KindOf returns the kind of a document token. Tokens the index does
// not model, such as directives, report false.
func KindOf(tok etree.Token) (Kind, bool) {
	switch t := tok.(type) {
	case *etree.Element:
		if IsDocument(t) {
			return Document, true
		}
		return Element, true
	case *etree.CharData:
		return Text, true
	case *etree.Comment:
		return Comment, true
	case *etree.ProcInst:
		return ProcInst, true
	}
	return InvalidKind, false
}

// IsDocument reports whether e is the document node of an
// etree.Document rather than an element.
func IsDocument(e *etree.Element) bool {
	return e != nil && e.Parent() == nil && e.Tag == "" && e.Space == ""
}

// DocumentOf returns the document node of the tree containing tok.
func DocumentOf(tok etree.Token) *etree.Element {
	var e *etree.Element
	if x, ok := tok.(*etree.Element); ok {
		e = x
	} else {
		e = tok.Parent()
	}
	for e != nil && e.Parent() != nil {
		e = e.Parent()
	}
	return e
}

// Name returns the name the index records for tok: the qualified tag of
// an element or the target of a processing instruction.
func Name(tok etree.Token) string {
	switch t := tok.(type) {
	case *etree.Element:
		if IsDocument(t) {
			return ""
		}
		return t.FullTag()
	case *etree.ProcInst:
		return t.Target
	}
	return ""
}

// Value returns the value the index records for tok.
func Value(tok etree.Token) string {
	switch t := tok.(type) {
	case *etree.CharData:
		return t.Data
	case *etree.Comment:
		return t.Data
	case *etree.ProcInst:
		return t.Inst
	}
	return ""
}

// Class returns the sibling class of tok. Siblings of the same class are
// addressed and paired by their ordinal within the class.
func Class(tok etree.Token) string {
	k, _ := KindOf(tok)
	return ClassOf(k, Name(tok))
}

// ClassOf returns the sibling class for a kind and name.
func ClassOf(k Kind, name string) string {
	switch k {
	case Element:
		return "e:" + name
	case ProcInst:
		return "p:" + name
	case Text:
		return "t"
	case Comment:
		return "c"
	}
	return k.String()
}

// IsNamespaceDecl reports whether an attribute name declares a namespace.
func IsNamespaceDecl(name string) bool {
	return name == "xmlns" || len(name) > 6 && name[:6] == "xmlns:"
}
