// Package debug holds environment driven tracing toggles.
package debug

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

type debug struct {
	Diff     bool
	Schedule bool
	Apply    bool
	Reorder  bool
	Index    bool
}

var d *debug

// Out is where Logf writes.
var Out io.Writer = os.Stderr

func init() {
	d = &debug{}
	d.Diff = boolEnv("DELTAV_DEBUG_DIFF")
	d.Schedule = boolEnv("DELTAV_DEBUG_SCHEDULE")
	d.Apply = boolEnv("DELTAV_DEBUG_APPLY")
	d.Reorder = boolEnv("DELTAV_DEBUG_REORDER")
	d.Index = boolEnv("DELTAV_DEBUG_INDEX")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Diff() bool {
	return d.Diff
}
func Schedule() bool {
	return d.Schedule
}
func Apply() bool {
	return d.Apply
}
func Reorder() bool {
	return d.Reorder
}
func Index() bool {
	return d.Index
}

// Logf writes msg to Out. Element and document arguments are
// rendered as xml.
func Logf(msg string, args ...any) {
	for i := range args {
		switch x := args[i].(type) {
		case *etree.Element:
			args[i] = elementString(x)
		case *etree.Document:
			s, err := x.WriteToString()
			if err != nil {
				args[i] = fmt.Sprintf("[raw *etree.Document] %v", x)
				continue
			}
			args[i] = s
		}
	}
	fmt.Fprintf(Out, msg, args...)
}

func elementString(e *etree.Element) string {
	if e == nil {
		return "<nil>"
	}
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return fmt.Sprintf("[raw *etree.Element] %v", e)
	}
	return s
}
