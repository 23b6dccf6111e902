package merge

import (
	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/fragment"
	"github.com/conneroisu/docmerge/internal/types"
)

// mergeSection emits the elements of one merged section and, recursively,
// of its nested sections. Output order is fixed: heading, blurb, flat
// examples, columns, nested sections.
func (m *Merger) mergeSection(sc scope, contribs []Contribution[fragment.SectionFragment], level int) ([]types.Element, error) {
	rep, ok := representative(contribs)
	if !ok {
		return nil, doerrors.NewInternalError(doerrors.ErrCodeInternalError,
			"section merged with no contributors", nil).WithPage(sc.page)
	}

	if sc.path == "" {
		sc.path = rep.Item.Name
	} else {
		sc.path = sc.path + "/" + rep.Item.Name
	}

	out := []types.Element{types.Heading{Level: level, Text: rep.Item.Name}}
	if rep.Item.Blurb != "" {
		out = append(out, types.Paragraph{Text: rep.Item.Blurb})
	}

	var (
		examples = make(map[string][]fragment.ExampleFragment)
		columns  = make(map[string][]fragment.ExampleFragment)
		children = make(map[string][]fragment.SectionFragment)
	)
	for _, c := range contribs {
		if c.Item.Examples != nil {
			examples[c.Project] = c.Item.Examples
		}
		if c.Item.Columns != nil {
			columns[c.Project] = c.Item.FlatColumns()
		}
		if c.Item.Sections != nil {
			children[c.Project] = c.Item.Sections
		}
	}

	exScope := scope{page: sc.page, path: sc.path, kind: "example"}

	flat, err := collect(m.order, examples, exampleName, exScope)
	if err != nil {
		return nil, err
	}
	merged, err := mergeExamples(exScope, flat)
	if err != nil {
		return nil, err
	}
	for _, ex := range merged {
		out = append(out, ex)
	}

	colGroup, err := collect(m.order, columns, exampleName, exScope)
	if err != nil {
		return nil, err
	}
	if colGroup.Len() > 0 {
		colExamples, err := mergeExamples(exScope, colGroup)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Columns{Cols: distribute(colExamples, m.columns)})
	}

	secScope := scope{page: sc.page, path: sc.path, kind: "section"}
	nested, err := collect(m.order, children, sectionName, secScope)
	if err != nil {
		return nil, err
	}
	for _, name := range nested.Names {
		elems, err := m.mergeSection(secScope, nested.Contributions(name), level+1)
		if err != nil {
			return nil, err
		}
		out = append(out, elems...)
	}

	return out, nil
}

// representative returns the highest-precedence contribution. Contributions
// are always held in precedence order, so a lower-precedence project can
// never override the displayed name or blurb.
func representative[T any](contribs []Contribution[T]) (Contribution[T], bool) {
	if len(contribs) == 0 {
		return Contribution[T]{}, false
	}
	return contribs[0], true
}

// distribute deals examples into n columns: index i goes to column i mod n.
func distribute(examples []types.Example, n int) [][]types.Example {
	if n < 1 {
		n = 1
	}
	cols := make([][]types.Example, n)
	for i := range cols {
		cols[i] = make([]types.Example, 0, (len(examples)+n-1)/n)
	}
	for i, ex := range examples {
		cols[i%n] = append(cols[i%n], ex)
	}
	return cols
}
