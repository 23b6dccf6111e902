package merge

import (
	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/fragment"
	"github.com/conneroisu/docmerge/internal/types"
)

// mergeExample folds every project's version of one example into a single
// record. The title comes from the highest-precedence contributor; content
// and notes keep one entry per contributing project, in precedence order.
func mergeExample(sc scope, contribs []Contribution[fragment.ExampleFragment]) (types.Example, error) {
	var out types.Example
	if len(contribs) == 0 {
		return out, doerrors.NewInternalError(doerrors.ErrCodeInternalError,
			"example merged with no contributors", nil).WithPage(sc.page)
	}

	out.Title = contribs[0].Item.Name
	out.Content = make([]types.ProjectContent, 0, len(contribs))

	for _, c := range contribs {
		if c.Item.Content == "" {
			return types.Example{}, doerrors.NewMergeError(doerrors.ErrCodeMissingField,
				"expected example "+c.Item.Name+" in "+sc.where()+" to have content").
				WithPage(sc.page).
				WithProject(c.Project).
				WithSnapshot(fragment.Snapshot(c.Item))
		}
		out.Content = append(out.Content, types.ProjectContent{Project: c.Project, Content: c.Item.Content})
		if c.Item.Note != "" {
			out.Note = append(out.Note, types.ProjectNote{Project: c.Project, Note: c.Item.Note})
		}
	}

	return out, nil
}

// mergeExamples merges every name in g, in first-seen order.
func mergeExamples(sc scope, g *Grouping[fragment.ExampleFragment]) ([]types.Example, error) {
	out := make([]types.Example, 0, g.Len())
	for _, name := range g.Names {
		ex, err := mergeExample(sc, g.Contributions(name))
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}
