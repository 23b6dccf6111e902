// Package types provides the renderer-facing output records produced by the
// merge pipeline. It has no dependencies on the merge or render packages so
// both can import it.
package types

import "encoding/json"

// ElementKind identifies the variant of an Element.
type ElementKind string

const (
	KindHeading   ElementKind = "heading"
	KindParagraph ElementKind = "paragraph"
	KindColumns   ElementKind = "columns"
	KindExample   ElementKind = "example"
	KindEndPage   ElementKind = "endpage"
)

// Element is one flat, renderer-ready unit of output. Elements are produced
// once per merge and never mutated afterwards.
type Element interface {
	Kind() ElementKind
}

// Heading is a section or page title.
type Heading struct {
	Level int
	Text  string
}

// Paragraph carries a page or section blurb.
type Paragraph struct {
	Text string
}

// Columns lays examples out side by side. Cols[i] is the i-th column.
type Columns struct {
	Cols [][]Example
}

// ProjectContent is one project's content for a merged example.
type ProjectContent struct {
	Project string `json:"project"`
	Content string `json:"content"`
}

// ProjectNote is one project's note for a merged example.
type ProjectNote struct {
	Project string `json:"project"`
	Note    string `json:"note"`
}

// Example is a merged example. Content and Note are ordered by project
// precedence.
type Example struct {
	Title   string
	Content []ProjectContent
	Note    []ProjectNote
}

// EndPage terminates the element stream of a page.
type EndPage struct{}

func (Heading) Kind() ElementKind   { return KindHeading }
func (Paragraph) Kind() ElementKind { return KindParagraph }
func (Columns) Kind() ElementKind   { return KindColumns }
func (Example) Kind() ElementKind   { return KindExample }
func (EndPage) Kind() ElementKind   { return KindEndPage }

// MarshalJSON keeps the "type"-tagged shape of the element stream.
func (h Heading) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  ElementKind `json:"type"`
		Level int         `json:"level"`
		Text  string      `json:"text"`
	}{KindHeading, h.Level, h.Text})
}

func (p Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type ElementKind `json:"type"`
		Text string      `json:"text"`
	}{KindParagraph, p.Text})
}

func (c Columns) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   ElementKind `json:"type"`
		Length int         `json:"length"`
		Cols   [][]Example `json:"cols"`
	}{KindColumns, len(c.Cols), c.Cols})
}

func (e Example) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ElementKind      `json:"type"`
		Title   string           `json:"title"`
		Content []ProjectContent `json:"content"`
		Note    []ProjectNote    `json:"note,omitempty"`
	}{KindExample, e.Title, e.Content, e.Note})
}

func (EndPage) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"endpage"}`), nil
}

// MergedPage is the result of merging one page across all contributing
// projects.
type MergedPage struct {
	// Name is the page identifier, also used as the output file stem.
	Name string `json:"filename"`
	// Title is the representative page title.
	Title string `json:"title"`
	// Sections is the page's table of contents.
	Sections []string `json:"sections"`
	// Elements is the flat stream, terminated by EndPage.
	Elements []Element `json:"output"`
}
