// Package renderer turns merged element streams into HTML documents.
//
// The body of a page is built as an x/net/html node tree so text is escaped
// by the HTML serializer, while example content, blurbs and notes are
// inserted verbatim as raw nodes. The document shell is a templ component so
// pages, the site index and the live-reload script share one layout.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/types"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultSiteTitle is the document title used when none is configured.
const DefaultSiteTitle = "Demo Site"

// Renderer renders pages and the site index.
type Renderer struct {
	siteTitle  string
	reloadPath string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSiteTitle sets the <title> of every document.
func WithSiteTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.siteTitle = title
		}
	}
}

// WithLiveReload injects a script that reloads the page when the websocket
// at path sends a reload message.
func WithLiveReload(path string) Option {
	return func(r *Renderer) {
		r.reloadPath = path
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{siteTitle: DefaultSiteTitle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SiteTitle returns the configured document title.
func (r *Renderer) SiteTitle() string {
	return r.siteTitle
}

// Page returns the full HTML document for a merged page.
func (r *Renderer) Page(page *types.MergedPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		nodes, err := Body(page.Elements)
		if err != nil {
			if de, ok := err.(*doerrors.DocError); ok {
				return de.WithPage(page.Name)
			}
			return err
		}
		return r.layout(Nodes(nodes)).Render(ctx, w)
	})
}

// RenderPage renders page into a byte slice.
func (r *Renderer) RenderPage(ctx context.Context, page *types.MergedPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Page(page).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Nodes renders a list of html nodes as a component.
func Nodes(nodes []*html.Node) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		for _, n := range nodes {
			if err := html.Render(w, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Renderer) layout(body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>"+
			templ.EscapeString(r.siteTitle)+"</title></head><body>\n"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		if r.reloadPath != "" {
			if _, err := io.WriteString(w, reloadScript(r.reloadPath)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "\n</body></html>\n")
		return err
	})
}

func reloadScript(path string) string {
	return `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + ` + strconv.Quote(path) + `);
  ws.onmessage = function (event) {
    var msg = JSON.parse(event.data);
    if (msg.type === "reload") {
      location.reload();
    }
  };
})();
</script>`
}

// Body converts an element stream into body nodes. The stream must end
// with an EndPage element; anything after it is rejected.
func Body(elements []types.Element) ([]*html.Node, error) {
	var nodes []*html.Node
	for i, el := range elements {
		switch e := el.(type) {
		case types.Heading:
			nodes = append(nodes, heading(e))
		case types.Paragraph:
			nodes = append(nodes, element(atom.P, raw(e.Text)))
		case types.Example:
			nodes = append(nodes, example(e)...)
		case types.Columns:
			nodes = append(nodes, columns(e)...)
		case types.EndPage:
			if i != len(elements)-1 {
				return nil, doerrors.NewRenderError(doerrors.ErrCodeRenderFailed,
					fmt.Sprintf("element %d follows the end of the page", i+1), nil)
			}
			return nodes, nil
		default:
			return nil, doerrors.NewRenderError(doerrors.ErrCodeRenderFailed,
				fmt.Sprintf("unknown element type %T", el), nil)
		}
	}
	return nil, doerrors.NewRenderError(doerrors.ErrCodeRenderFailed,
		"page stream is not terminated by an end of page", nil)
}

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// heading clamps the level to the h1..h6 range.
func heading(h types.Heading) *html.Node {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > len(headingAtoms) {
		level = len(headingAtoms)
	}
	n := element(headingAtoms[level-1], text(h.Text))
	if level != h.Level {
		n.Attr = append(n.Attr, html.Attribute{Key: "aria-level", Val: strconv.Itoa(h.Level)})
	}
	return n
}

func example(e types.Example) []*html.Node {
	nodes := []*html.Node{
		element(atom.P, element(atom.Strong, text(e.Title))),
	}
	for _, c := range e.Content {
		block := element(atom.Div,
			raw(c.Content),
			element(atom.Pre, element(atom.Code, text(c.Content))),
		)
		block.Attr = []html.Attribute{
			{Key: "class", Val: "example"},
			{Key: "data-project", Val: c.Project},
		}
		nodes = append(nodes, block)
	}
	for _, n := range e.Note {
		p := element(atom.P, raw(n.Note))
		p.Attr = []html.Attribute{
			{Key: "class", Val: "note"},
			{Key: "data-project", Val: n.Project},
		}
		nodes = append(nodes, p)
	}
	return nodes
}

func columns(c types.Columns) []*html.Node {
	if len(c.Cols) == 0 {
		return nil
	}
	style := fmt.Sprintf("width:%s%%; display:inline-block; vertical-align: top",
		strconv.FormatFloat(100/float64(len(c.Cols)), 'f', -1, 64))

	nodes := make([]*html.Node, 0, len(c.Cols))
	for _, col := range c.Cols {
		div := element(atom.Div)
		div.Attr = []html.Attribute{{Key: "style", Val: style}}
		for _, ex := range col {
			for _, n := range example(ex) {
				div.AppendChild(n)
			}
		}
		nodes = append(nodes, div)
	}
	return nodes
}

func element(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func raw(s string) *html.Node {
	return &html.Node{Type: html.RawNode, Data: s}
}
