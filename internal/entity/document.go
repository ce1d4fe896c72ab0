package entity

import "github.com/google/uuid"

// Document is the text handed to the core by the upstream OCR/PDF
// collaborator: a single UTF-8 blob, or ordered per-page blobs. No binary
// handling happens here.
type Document struct {
	ID         uuid.UUID
	SourcePath string
	Pages      []string
}

// Text joins the pages with form feeds so page boundaries survive into
// source locations.
func (d Document) Text() string {
	switch len(d.Pages) {
	case 0:
		return ""
	case 1:
		return d.Pages[0]
	}
	out := d.Pages[0]
	for _, p := range d.Pages[1:] {
		out += "\f" + p
	}
	return out
}

// NewDocument wraps a single text blob.
func NewDocument(sourcePath, text string) Document {
	return Document{ID: uuid.New(), SourcePath: sourcePath, Pages: []string{text}}
}
