// Package fragment defines the per-project input shapes of a page: the raw,
// unmerged contributions that one project makes to one page.
//
// Grammar:
//
//	page    := {name, blurb?, sections[]}
//	section := {name, blurb?, (sections[] | columns[][] | examples[])?}
//	example := {name, content, note?}
//
// A nil slice means the key was absent from the source document; an empty,
// non-nil slice means it was present but empty. Empty strings count as
// missing values.
package fragment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PageFragment is one project's description of a page.
type PageFragment struct {
	Name     string            `json:"name,omitempty"`
	Blurb    string            `json:"blurb,omitempty"`
	Sections []SectionFragment `json:"sections,omitempty"`
}

// SectionFragment is one project's description of a section. A single
// fragment carries at most one body kind.
type SectionFragment struct {
	Name     string              `json:"name,omitempty"`
	Blurb    string              `json:"blurb,omitempty"`
	Sections []SectionFragment   `json:"sections,omitempty"`
	Columns  [][]ExampleFragment `json:"columns,omitempty"`
	Examples []ExampleFragment   `json:"examples,omitempty"`
}

// ExampleFragment is one project's version of an example.
type ExampleFragment struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	Note    string `json:"note,omitempty"`
}

// FlatColumns returns the column examples of s in reading order: column by
// column, top to bottom.
func (s *SectionFragment) FlatColumns() []ExampleFragment {
	if s.Columns == nil {
		return nil
	}
	out := make([]ExampleFragment, 0)
	for _, col := range s.Columns {
		out = append(out, col...)
	}
	return out
}

// DecodePage parses a page document. Unknown keys are ignored, but a key that
// matches a grammar key only when case is ignored is rejected, as is anything
// after the document.
func DecodePage(data []byte) (*PageFragment, error) {
	var p PageFragment
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding page: unexpected data after the page document")
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	if err := checkPageKeys(doc); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	return &p, nil
}

var (
	pageKeys    = []string{"name", "blurb", "sections"}
	sectionKeys = []string{"name", "blurb", "sections", "columns", "examples"}
	exampleKeys = []string{"name", "content", "note"}
)

func checkPageKeys(v interface{}) error {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	if err := checkKeys(obj, pageKeys); err != nil {
		return err
	}
	return checkSectionKeys(obj["sections"])
}

func checkSectionKeys(v interface{}) error {
	list, _ := v.([]interface{})
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if err := checkKeys(obj, sectionKeys); err != nil {
			return err
		}
		if err := checkSectionKeys(obj["sections"]); err != nil {
			return err
		}
		columns, _ := obj["columns"].([]interface{})
		for _, col := range columns {
			if err := checkExampleKeys(col); err != nil {
				return err
			}
		}
		if err := checkExampleKeys(obj["examples"]); err != nil {
			return err
		}
	}
	return nil
}

func checkExampleKeys(v interface{}) error {
	list, _ := v.([]interface{})
	for _, item := range list {
		if obj, ok := item.(map[string]interface{}); ok {
			if err := checkKeys(obj, exampleKeys); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkKeys rejects keys of obj that differ from a known key only in case.
func checkKeys(obj map[string]interface{}, known []string) error {
	for key := range obj {
		for _, k := range known {
			if key != k && strings.EqualFold(key, k) {
				return fmt.Errorf("key %q must be spelled %q", key, k)
			}
		}
	}
	return nil
}

// Snapshot returns the compact JSON form of v for error messages.
func Snapshot(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
