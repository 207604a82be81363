package xdiff

import (
	"fmt"

	"github.com/Reposoft/repos-deltav-sub000/axis"
	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// ID classifies a difference.
type ID int

const (
	NodeNotFound ID = iota + 1
	AttributeSetChanged
	AttributeValueChanged
	TextValueChanged
	CommentValueChanged
	ProcessingInstructionDataChanged
	ChildCountChanged
	ChildOrderChanged
	DoctypeChanged
)

var idNames = map[ID]string{
	NodeNotFound:                     "node-not-found",
	AttributeSetChanged:              "attribute-set-changed",
	AttributeValueChanged:            "attribute-value-changed",
	TextValueChanged:                 "text-value-changed",
	CommentValueChanged:              "comment-value-changed",
	ProcessingInstructionDataChanged: "processing-instruction-data-changed",
	ChildCountChanged:                "child-count-changed",
	ChildOrderChanged:                "child-order-changed",
	DoctypeChanged:                   "doctype-changed",
}

func (id ID) String() string {
	if s, ok := idNames[id]; ok {
		return s
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// Node is one side of a difference. The zero Node means the other side
// has no counterpart.
type Node struct {
	// Token is the node, or the owning element for attributes.
	Token etree.Token
	// Attr is the attribute name for attribute nodes.
	Attr string
	// Location is the positional path of the node.
	Location string
}

func tokenNode(tok etree.Token) Node {
	return Node{Token: tok, Location: axis.FromToken(tok).String()}
}

func attrNode(e *etree.Element, name string) Node {
	return Node{Token: e, Attr: name, Location: axis.FromAttr(e, name).String()}
}

// IsZero reports whether n is absent.
func (n Node) IsZero() bool {
	return n.Token == nil
}

// Kind returns the node kind.
func (n Node) Kind() xdom.Kind {
	if n.Attr != "" {
		return xdom.Attribute
	}
	k, _ := xdom.KindOf(n.Token)
	return k
}

// Element returns the token as an element, or nil.
func (n Node) Element() *etree.Element {
	e, _ := n.Token.(*etree.Element)
	return e
}

// Value returns the value of a value-carrying node.
func (n Node) Value() string {
	if n.Attr != "" {
		if a := xdom.FindAttr(n.Element(), n.Attr); a != nil {
			return a.Value
		}
		return ""
	}
	return xdom.Value(n.Token)
}

// Difference pairs a control node with a test node.
type Difference struct {
	ID      ID
	Control Node
	Test    Node
}

func (d Difference) String() string {
	c, t := d.Control.Location, d.Test.Location
	if d.Control.IsZero() {
		c = "-"
	}
	if d.Test.IsZero() {
		t = "-"
	}
	return fmt.Sprintf("%s %s %s", d.ID, c, t)
}
