package main

import (
	"fmt"

	"github.com/fatih/color"
)

// palette colors output. The zero palette leaves text unchanged.
type palette struct {
	add, del, dead, path, meta func(string, ...any) string
}

func newPalette(on bool) *palette {
	if !on {
		return &palette{add: fmt.Sprintf, del: fmt.Sprintf, dead: fmt.Sprintf, path: fmt.Sprintf, meta: fmt.Sprintf}
	}
	return &palette{
		add:  color.New(color.FgGreen).SprintfFunc(),
		del:  color.New(color.FgRed).SprintfFunc(),
		dead: color.New(color.Faint).SprintfFunc(),
		path: color.RGB(196, 96, 16).SprintfFunc(),
		meta: color.BlueString,
	}
}
