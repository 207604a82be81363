package debug

import (
	"bytes"
	"testing"

	"github.com/beevik/etree"
)

func TestLogf(t *testing.T) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(`<a x="1"><b>t</b></a>`); err != nil {
		t.Fatal(err)
	}
	var nilElement *etree.Element
	tests := []struct {
		name string
		arg  any
		want string
	}{
		{"document", doc, `<a x="1"><b>t</b></a>`},
		{"element", doc.FindElement("//b"), `<b>t</b>`},
		{"nil element", nilElement, `<nil>`},
		{"other", 3, `3`},
	}
	old := Out
	defer func() { Out = old }()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Out = &buf
			Logf("[%v]", tt.arg)
			if got := buf.String(); got != "["+tt.want+"]" {
				t.Errorf("Logf = %s, want [%s]", got, tt.want)
			}
		})
	}
}
