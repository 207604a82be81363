package tagged

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

// Namespace and prefix of the index vocabulary.
const (
	Namespace = "urn:x-deltav:vfile"
	Prefix    = "vf"
)

const (
	tagDocument = Prefix + ":document"
	tagAttr     = Prefix + ":attribute"
	tagText     = Prefix + ":text"
	tagComment  = Prefix + ":comment"
	tagPI       = Prefix + ":pi"

	attrStart      = "start"
	attrEnd        = "end"
	attrTStart     = "tstart"
	attrTEnd       = "tend"
	attrReorder    = "reorder"
	attrName       = "name"
	attrDocVersion = "docVersion"
	attrDocTime    = "docTime"

	nowLit = "NOW"
)

// Marshal renders t in the persisted index format.
func (t *Tree) Marshal() (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(tagDocument)
	root.CreateAttr("xmlns:"+Prefix, Namespace)
	root.CreateAttr(attrDocVersion, strconv.FormatInt(t.version, 10))
	root.CreateAttr(attrDocTime, formatTime(t.time))
	t.marshalLife(root, t.root)
	for _, c := range t.get(t.root).children {
		if err := t.marshal(root, c); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (t *Tree) marshal(parent *etree.Element, h Handle) error {
	n := t.get(h)
	var el *etree.Element
	switch n.kind {
	case xdom.Element:
		if n.name == Prefix || strings.HasPrefix(n.name, Prefix+":") {
			return fmt.Errorf("%w: element %q uses the reserved prefix %q", ErrKind, n.name, Prefix)
		}
		el = parent.CreateElement(n.name)
		t.declare(el, h)
		t.marshalLife(el, h)
		for _, a := range n.attrs {
			an := t.get(a)
			ael := el.CreateElement(tagAttr)
			ael.CreateAttr(attrName, an.name)
			t.marshalLife(ael, a)
			setText(ael, an.value)
		}
		for _, c := range n.children {
			if err := t.marshal(el, c); err != nil {
				return err
			}
		}
		return nil
	case xdom.Text:
		el = parent.CreateElement(tagText)
	case xdom.Comment:
		el = parent.CreateElement(tagComment)
	case xdom.ProcInst:
		el = parent.CreateElement(tagPI)
		el.CreateAttr(attrName, n.name)
	default:
		return fmt.Errorf("%w: cannot marshal %s below the document node", ErrKind, n.kind)
	}
	t.marshalLife(el, h)
	setText(el, n.value)
	return nil
}

// declare repeats the namespace declarations of element h as real
// attributes of el, which keeps prefixed names bound in the persisted
// document. The index prefix is never rebound. Unmarshal reads the
// declarations from the pseudo attributes only.
func (t *Tree) declare(el *etree.Element, h Handle) {
	for _, a := range t.get(h).attrs {
		an := &t.nodes[a.idx]
		if !xdom.IsNamespaceDecl(an.name) || an.name == "xmlns:"+Prefix {
			continue
		}
		el.CreateAttr(an.name, an.value)
	}
}

func setText(el *etree.Element, s string) {
	if s != "" {
		el.AddChild(etree.NewText(s))
	}
}

func (t *Tree) marshalLife(el *etree.Element, h Handle) {
	n := t.get(h)
	el.CreateAttr(attrStart, strconv.FormatInt(n.life.Start, 10))
	el.CreateAttr(attrEnd, formatVersion(n.life.End))
	el.CreateAttr(attrTStart, formatTime(n.life.TStart))
	el.CreateAttr(attrTEnd, formatTime(n.life.TEnd))
	if n.reorder != 0 {
		el.CreateAttr(attrReorder, strconv.FormatInt(n.reorder, 10))
	}
}

func formatVersion(v int64) string {
	if v == Now {
		return nowLit
	}
	return strconv.FormatInt(v, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return nowLit
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Unmarshal reads a tree in the persisted index format. Missing or
// unparsable lifetime and version attributes are rejected with
// ErrMalformed.
func Unmarshal(doc *etree.Document) (*Tree, error) {
	root := doc.Root()
	if root == nil || root.FullTag() != tagDocument {
		return nil, fmt.Errorf("%w: root element must be %s", ErrMalformed, tagDocument)
	}
	t := &Tree{}
	var err error
	if t.version, err = parseVersion(root, attrDocVersion, false); err != nil {
		return nil, err
	}
	if t.time, err = parseTime(root, attrDocTime, false); err != nil {
		return nil, err
	}
	t.root, err = t.unmarshalNode(root, xdom.Document, "")
	if err != nil {
		return nil, err
	}
	for _, c := range root.ChildElements() {
		h, err := t.unmarshal(c)
		if err != nil {
			return nil, err
		}
		t.Append(t.root, h)
	}
	return t, nil
}

func (t *Tree) unmarshal(el *etree.Element) (Handle, error) {
	switch el.FullTag() {
	case tagAttr:
		return Handle{}, fmt.Errorf("%w: %s outside an element", ErrMalformed, tagAttr)
	case tagText:
		return t.unmarshalNode(el, xdom.Text, "")
	case tagComment:
		return t.unmarshalNode(el, xdom.Comment, "")
	case tagPI:
		name := el.SelectAttrValue(attrName, "")
		if name == "" {
			return Handle{}, fmt.Errorf("%w: %s without %s", ErrMalformed, tagPI, attrName)
		}
		return t.unmarshalNode(el, xdom.ProcInst, name)
	case tagDocument:
		return Handle{}, fmt.Errorf("%w: nested %s", ErrMalformed, tagDocument)
	}
	if el.Space == Prefix {
		return Handle{}, fmt.Errorf("%w: unknown index element %s", ErrMalformed, el.FullTag())
	}
	h, err := t.unmarshalNode(el, xdom.Element, el.FullTag())
	if err != nil {
		return Handle{}, err
	}
	for _, c := range el.ChildElements() {
		if c.FullTag() == tagAttr {
			name := c.SelectAttrValue(attrName, "")
			if name == "" {
				return Handle{}, fmt.Errorf("%w: %s without %s", ErrMalformed, tagAttr, attrName)
			}
			a, err := t.unmarshalNode(c, xdom.Attribute, name)
			if err != nil {
				return Handle{}, err
			}
			t.AddAttr(h, a)
			continue
		}
		ch, err := t.unmarshal(c)
		if err != nil {
			return Handle{}, err
		}
		t.Append(h, ch)
	}
	if !t.Live(h) && (len(t.LiveAttrs(h)) > 0 || len(t.LiveChildren(h)) > 0) {
		return Handle{}, fmt.Errorf("%w: %s: live content below a closed element", ErrMalformed, el.GetPath())
	}
	return h, nil
}

func (t *Tree) unmarshalNode(el *etree.Element, kind xdom.Kind, name string) (Handle, error) {
	var (
		n   = node{kind: kind, name: name}
		err error
	)
	if n.life.Start, err = parseVersion(el, attrStart, false); err != nil {
		return Handle{}, err
	}
	if n.life.End, err = parseVersion(el, attrEnd, true); err != nil {
		return Handle{}, err
	}
	if n.life.TStart, err = parseTime(el, attrTStart, false); err != nil {
		return Handle{}, err
	}
	if n.life.TEnd, err = parseTime(el, attrTEnd, true); err != nil {
		return Handle{}, err
	}
	if n.life.End == Now != n.life.TEnd.IsZero() {
		return Handle{}, fmt.Errorf("%w: %s: %s and %s disagree on liveness", ErrMalformed, el.GetPath(), attrEnd, attrTEnd)
	}
	if r := el.SelectAttr(attrReorder); r != nil {
		if n.reorder, err = strconv.ParseInt(r.Value, 10, 64); err != nil {
			return Handle{}, fmt.Errorf("%w: %s: %s: %w", ErrMalformed, el.GetPath(), attrReorder, err)
		}
	}
	if kind.HasValue() {
		n.value = textOf(el)
	}
	return t.alloc(n), nil
}

func textOf(el *etree.Element) string {
	var b strings.Builder
	for _, c := range el.Child {
		if cd, ok := c.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

func parseVersion(el *etree.Element, key string, nowOK bool) (int64, error) {
	a := el.SelectAttr(key)
	if a == nil {
		return 0, fmt.Errorf("%w: %s: missing %s", ErrMalformed, el.GetPath(), key)
	}
	if a.Value == nowLit {
		if !nowOK {
			return 0, fmt.Errorf("%w: %s: %s cannot be %s", ErrMalformed, el.GetPath(), key, nowLit)
		}
		return Now, nil
	}
	v, err := strconv.ParseInt(a.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s: %w", ErrMalformed, el.GetPath(), key, err)
	}
	return v, nil
}

func parseTime(el *etree.Element, key string, nowOK bool) (time.Time, error) {
	a := el.SelectAttr(key)
	if a == nil {
		return time.Time{}, fmt.Errorf("%w: %s: missing %s", ErrMalformed, el.GetPath(), key)
	}
	if a.Value == nowLit {
		if !nowOK {
			return time.Time{}, fmt.Errorf("%w: %s: %s cannot be %s", ErrMalformed, el.GetPath(), key, nowLit)
		}
		return time.Time{}, nil
	}
	tm, err := time.Parse(time.RFC3339Nano, a.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %s: %w", ErrMalformed, el.GetPath(), key, err)
	}
	return tm, nil
}

// Snapshot rebuilds the document made of the nodes whose lifetime
// satisfies visible.
func (t *Tree) Snapshot(visible func(Lifetime) bool) *etree.Document {
	doc := etree.NewDocument()
	for _, c := range t.get(t.root).children {
		t.snapshot(&doc.Element, c, visible)
	}
	return doc
}

func (t *Tree) snapshot(parent *etree.Element, h Handle, visible func(Lifetime) bool) {
	n := t.get(h)
	if !visible(n.life) {
		return
	}
	switch n.kind {
	case xdom.Element:
		el := parent.CreateElement(n.name)
		for _, a := range n.attrs {
			an := t.get(a)
			if visible(an.life) {
				el.CreateAttr(an.name, an.value)
			}
		}
		for _, c := range n.children {
			t.snapshot(el, c, visible)
		}
	case xdom.Text:
		parent.AddChild(etree.NewText(n.value))
	case xdom.Comment:
		parent.CreateComment(n.value)
	case xdom.ProcInst:
		parent.CreateProcInst(n.name, n.value)
	}
}
