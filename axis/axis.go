package axis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Reposoft/repos-deltav-sub000/xdom"
	"github.com/beevik/etree"
)

var (
	ErrSyntax   = errors.New("path syntax error")
	ErrNotFound = errors.New("path not found")
)

const (
	textStep    = "text()"
	commentStep = "comment()"
	piStep      = "processing-instruction()"
)

// Step is one axis step.
type Step struct {
	Kind xdom.Kind
	// Name is the qualified element tag or attribute name. It is empty
	// for text, comment and processing instruction steps.
	Name string
	// Index is the 1-based position among siblings of the same kind
	// (and name, for elements). Attribute steps have no index.
	Index int
}

func (s Step) String() string {
	switch s.Kind {
	case xdom.Attribute:
		return "@" + s.Name
	case xdom.Text:
		return textStep + "[" + strconv.Itoa(s.Index) + "]"
	case xdom.Comment:
		return commentStep + "[" + strconv.Itoa(s.Index) + "]"
	case xdom.ProcInst:
		return piStep + "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// Matches reports whether a node of kind k and name falls in the
// sibling group counted by s.
func (s Step) Matches(k xdom.Kind, name string) bool {
	if k != s.Kind {
		return false
	}
	switch k {
	case xdom.Element, xdom.Attribute:
		return name == s.Name
	}
	return true
}

// Path is a sequence of steps from the document node. The empty path
// addresses the document node itself.
type Path []Step

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Depth is the number of steps.
func (p Path) Depth() int {
	return len(p)
}

// Parent returns p without its last step. The parent of the document
// path is itself.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final step; ok is false for the document path.
func (p Path) Last() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}
	return p[len(p)-1], true
}

// Append returns a new path extending p by s.
func (p Path) Append(s Step) Path {
	res := make(Path, len(p), len(p)+1)
	copy(res, p)
	return append(res, s)
}

// IsAttr reports whether p addresses an attribute.
func (p Path) IsAttr() bool {
	s, ok := p.Last()
	return ok && s.Kind == xdom.Attribute
}

// Parse parses a location string such as "/a[1]/b[2]/text()[1]".
// A missing index means 1.
func Parse(loc string) (Path, error) {
	if loc == "" || loc[0] != '/' {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrSyntax, loc)
	}
	if loc == "/" {
		return Path{}, nil
	}
	frags := strings.Split(loc[1:], "/")
	res := make(Path, 0, len(frags))
	for i, frag := range frags {
		s, err := parseStep(frag)
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, loc)
		}
		if s.Kind == xdom.Attribute && i != len(frags)-1 {
			return nil, fmt.Errorf("%w: attribute step %q must be last in %q", ErrSyntax, frag, loc)
		}
		res = append(res, s)
	}
	return res, nil
}

func parseStep(frag string) (Step, error) {
	if frag == "" {
		return Step{}, fmt.Errorf("%w: empty step", ErrSyntax)
	}
	if frag[0] == '@' {
		if len(frag) == 1 || strings.ContainsAny(frag, "[]") {
			return Step{}, fmt.Errorf("%w: bad attribute step %q", ErrSyntax, frag)
		}
		return Step{Kind: xdom.Attribute, Name: frag[1:]}, nil
	}
	name, index := frag, 1
	if i := strings.IndexByte(frag, '['); i >= 0 {
		if frag[len(frag)-1] != ']' {
			return Step{}, fmt.Errorf("%w: unclosed bracket in %q", ErrSyntax, frag)
		}
		n, err := strconv.Atoi(frag[i+1 : len(frag)-1])
		if err != nil || n < 1 {
			return Step{}, fmt.Errorf("%w: bad index in %q", ErrSyntax, frag)
		}
		name, index = frag[:i], n
	}
	switch name {
	case "":
		return Step{}, fmt.Errorf("%w: missing name in %q", ErrSyntax, frag)
	case textStep:
		return Step{Kind: xdom.Text, Index: index}, nil
	case commentStep:
		return Step{Kind: xdom.Comment, Index: index}, nil
	case piStep:
		return Step{Kind: xdom.ProcInst, Index: index}, nil
	}
	if strings.ContainsAny(name, "()@[]") {
		return Step{}, fmt.Errorf("%w: bad element name %q", ErrSyntax, name)
	}
	return Step{Kind: xdom.Element, Name: name, Index: index}, nil
}

// MustParse is Parse for literals.
func MustParse(loc string) Path {
	p, err := Parse(loc)
	if err != nil {
		panic(err)
	}
	return p
}

// FromToken builds the path of a live document node by walking to its
// root. The document node has the empty path; a detached element is
// treated as a document element.
func FromToken(tok etree.Token) Path {
	var rev []Step
	for {
		k, ok := xdom.KindOf(tok)
		if !ok {
			panic(fmt.Sprintf("axis: unsupported token %T", tok))
		}
		if k == xdom.Document {
			break
		}
		p := tok.Parent()
		s := Step{Kind: k, Index: 1}
		if k == xdom.Element {
			s.Name = xdom.Name(tok)
		}
		if p == nil {
			rev = append(rev, s)
			break
		}
		s.Index = siblingIndex(p, tok, s)
		rev = append(rev, s)
		tok = p
	}
	res := make(Path, len(rev))
	for i := range rev {
		res[i] = rev[len(rev)-1-i]
	}
	return res
}

// FromAttr builds the path of the attribute name of e.
func FromAttr(e *etree.Element, name string) Path {
	return FromToken(e).Append(Step{Kind: xdom.Attribute, Name: name})
}

func siblingIndex(p *etree.Element, tok etree.Token, s Step) int {
	n := 0
	for _, c := range p.Child {
		k, ok := xdom.KindOf(c)
		if !ok || !s.Matches(k, xdom.Name(c)) {
			continue
		}
		n++
		if c == tok {
			return n
		}
	}
	return n
}
