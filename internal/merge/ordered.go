package merge

import (
	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/fragment"
)

// Contribution is one project's item under a merged name.
type Contribution[T any] struct {
	Project string
	Item    T
}

// Grouping is the result of an ordered multiset merge at one nesting level:
// the distinct names in first-seen order and, per name, the contributions in
// project precedence order.
type Grouping[T any] struct {
	Names  []string
	byName map[string][]Contribution[T]
}

// Contributions returns the per-project items recorded under name. Projects
// that did not contribute name have no entry.
func (g *Grouping[T]) Contributions(name string) []Contribution[T] {
	return g.byName[name]
}

// Len returns the number of distinct names.
func (g *Grouping[T]) Len() int {
	return len(g.Names)
}

// scope locates a nesting level for error messages.
type scope struct {
	page string
	path string // slash separated section path, "" at page level
	kind string // "section" or "example"
}

func (s scope) where() string {
	if s.path == "" {
		return "page " + s.page
	}
	return "section " + s.path
}

// Collect merges the named items each project contributes at one nesting
// level. Projects are visited in precedence order and items in the order the
// project lists them; a name is placed when it is first seen and later
// contributions are attached to it. Projects absent from items contribute
// nothing, and projects in items but not in order are ignored.
func Collect[T any](order []string, items map[string][]T, nameOf func(T) string) (*Grouping[T], error) {
	return collect(order, items, nameOf, scope{kind: "item"})
}

func collect[T any](order []string, items map[string][]T, nameOf func(T) string, sc scope) (*Grouping[T], error) {
	g := &Grouping[T]{byName: make(map[string][]Contribution[T])}

	for _, project := range order {
		seenHere := make(map[string]struct{})
		for _, item := range items[project] {
			name := nameOf(item)
			if name == "" {
				return nil, doerrors.NewMergeError(doerrors.ErrCodeMissingName,
					"expected "+sc.kind+" in "+sc.where()+" to have a name").
					WithPage(sc.page).
					WithProject(project).
					WithSnapshot(fragment.Snapshot(item))
			}
			if _, dup := seenHere[name]; dup {
				return nil, doerrors.NewMergeError(doerrors.ErrCodeDuplicateName,
					sc.kind+" "+name+" is listed twice in "+sc.where()).
					WithPage(sc.page).
					WithProject(project).
					WithSnapshot(fragment.Snapshot(item))
			}
			seenHere[name] = struct{}{}

			if _, ok := g.byName[name]; !ok {
				g.Names = append(g.Names, name)
			}
			g.byName[name] = append(g.byName[name], Contribution[T]{Project: project, Item: item})
		}
	}

	return g, nil
}

func sectionName(s fragment.SectionFragment) string { return s.Name }
func exampleName(e fragment.ExampleFragment) string { return e.Name }
