package vfile

import (
	"fmt"

	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
	"github.com/beevik/etree"
)

// Marshal renders the index in its persisted form.
func (ix *Index) Marshal() (*etree.Document, error) {
	doc, err := ix.tree.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedDiff, err)
	}
	return doc, nil
}

// Bytes returns the serialized persisted form.
func (ix *Index) Bytes() ([]byte, error) {
	doc, err := ix.Marshal()
	if err != nil {
		return nil, err
	}
	return doc.WriteToBytes()
}

// Load reads an index from its persisted form. Options apply to later
// updates.
func Load(doc *etree.Document, opts ...Option) (*Index, error) {
	tree, err := tagged.Unmarshal(doc)
	if err != nil {
		return nil, err
	}
	return &Index{cfg: newConfig(opts), tree: tree}, nil
}

// Parse is Load for serialized data.
func Parse(data []byte, opts ...Option) (*Index, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedIndex, err)
	}
	return Load(doc, opts...)
}
