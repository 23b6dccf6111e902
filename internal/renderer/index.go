package renderer

import (
	"bytes"
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/conneroisu/docmerge/internal/types"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IndexEntry is one page listed in the site table of contents.
type IndexEntry struct {
	Name     string
	Title    string
	Sections []string
}

// EntriesFor lists pages in the order given.
func EntriesFor(pages []*types.MergedPage) []IndexEntry {
	entries := make([]IndexEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, IndexEntry{Name: p.Name, Title: p.Title, Sections: p.Sections})
	}
	return entries
}

// Index returns the site index document: the homepage content followed by a
// table of contents linking every page and listing its top-level sections.
func (r *Renderer) Index(homepage string, entries []IndexEntry) templ.Component {
	return r.layout(Nodes(IndexBody(homepage, entries)))
}

// RenderIndex renders the site index into a byte slice.
func (r *Renderer) RenderIndex(ctx context.Context, homepage string, entries []IndexEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Index(homepage, entries).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IndexBody builds the index body nodes.
func IndexBody(homepage string, entries []IndexEntry) []*html.Node {
	var nodes []*html.Node
	if strings.TrimSpace(homepage) != "" {
		home := element(atom.Div, raw(homepage))
		home.Attr = []html.Attribute{{Key: "class", Val: "homepage"}}
		nodes = append(nodes, home)
	}
	if len(entries) == 0 {
		return nodes
	}

	caser := cases.Title(language.English)
	toc := element(atom.Ul)
	toc.Attr = []html.Attribute{{Key: "class", Val: "toc"}}
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = caser.String(strings.ReplaceAll(e.Name, "-", " "))
		}
		link := element(atom.A, text(title))
		link.Attr = []html.Attribute{{Key: "href", Val: PagePath(e.Name)}}

		item := element(atom.Li, link)
		if len(e.Sections) > 0 {
			sub := element(atom.Ul)
			for _, s := range e.Sections {
				sub.AppendChild(element(atom.Li, text(caser.String(s))))
			}
			item.AppendChild(sub)
		}
		toc.AppendChild(item)
	}

	return append(nodes, element(atom.H2, text("Contents")), toc)
}

// PagePath is the output file name of a page.
func PagePath(page string) string {
	return page + ".html"
}
