// Package merge combines the fragments several projects contribute to the
// same page into one ordered element stream.
//
// Same-named nodes are unified at every nesting level. A name keeps the
// position where it was first seen, scanning projects in precedence order and
// each project's items in source order. Metadata comes from the
// highest-precedence contributor; example content and notes from every
// contributor are kept, tagged with their project.
package merge

import (
	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/fragment"
	"github.com/conneroisu/docmerge/internal/types"
)

// DefaultColumns is the number of output columns column examples are dealt into.
const DefaultColumns = 2

// Merger merges pages for a fixed project precedence order. It holds no
// mutable state and may be shared by concurrent page merges.
type Merger struct {
	order   []string
	columns int
}

// Option configures a Merger.
type Option func(*Merger)

// WithColumns sets the number of output columns for column examples.
// Values below one are ignored.
func WithColumns(n int) Option {
	return func(m *Merger) {
		if n >= 1 {
			m.columns = n
		}
	}
}

// NewMerger creates a Merger for the given precedence order.
func NewMerger(order []string, opts ...Option) *Merger {
	m := &Merger{
		order:   append([]string(nil), order...),
		columns: DefaultColumns,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Order returns the project precedence order.
func (m *Merger) Order() []string {
	return append([]string(nil), m.order...)
}

// MergePage merges every project's fragment for page. frags maps project to
// its fragment; projects without the page are absent or nil. The result
// either is complete or is nil with an error.
func (m *Merger) MergePage(page string, frags map[string]*fragment.PageFragment) (*types.MergedPage, error) {
	contributors := make([]Contribution[*fragment.PageFragment], 0, len(frags))
	for _, project := range m.order {
		if f := frags[project]; f != nil {
			contributors = append(contributors, Contribution[*fragment.PageFragment]{Project: project, Item: f})
		}
	}

	rep, ok := representative(contributors)
	if !ok {
		return nil, doerrors.NewMergeError(doerrors.ErrCodeNoContributor,
			"no project contributes page "+page).
			WithPage(page)
	}
	if rep.Item.Name == "" {
		return nil, doerrors.NewMergeError(doerrors.ErrCodeMissingName,
			"expected page to have a name").
			WithPage(page).
			WithProject(rep.Project).
			WithSnapshot(fragment.Snapshot(rep.Item))
	}

	sections := make(map[string][]fragment.SectionFragment, len(contributors))
	for _, c := range contributors {
		if c.Item.Sections != nil {
			sections[c.Project] = c.Item.Sections
		}
	}
	if len(sections) == 0 {
		return nil, doerrors.NewMergeError(doerrors.ErrCodeMissingField,
			"expected page to have sections").
			WithPage(page).
			WithProject(rep.Project).
			WithSnapshot(fragment.Snapshot(rep.Item))
	}

	sc := scope{page: page, kind: "section"}
	toc, err := collect(m.order, sections, sectionName, sc)
	if err != nil {
		return nil, err
	}

	elements := []types.Element{types.Heading{Level: 1, Text: rep.Item.Name}}
	if rep.Item.Blurb != "" {
		elements = append(elements, types.Paragraph{Text: rep.Item.Blurb})
	}
	for _, name := range toc.Names {
		elems, err := m.mergeSection(sc, toc.Contributions(name), 2)
		if err != nil {
			return nil, err
		}
		elements = append(elements, elems...)
	}
	elements = append(elements, types.EndPage{})

	return &types.MergedPage{
		Name:     page,
		Title:    rep.Item.Name,
		Sections: append([]string(nil), toc.Names...),
		Elements: elements,
	}, nil
}

// MergePage merges one page with the default options.
func MergePage(order []string, page string, frags map[string]*fragment.PageFragment) (*types.MergedPage, error) {
	return NewMerger(order).MergePage(page, frags)
}
