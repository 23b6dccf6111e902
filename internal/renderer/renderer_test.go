package renderer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderBody(t *testing.T, elements ...types.Element) string {
	t.Helper()
	nodes, err := Body(elements)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Nodes(nodes).Render(context.Background(), &buf))
	return buf.String()
}

func TestBody_Elements(t *testing.T) {
	tests := []struct {
		name     string
		elements []types.Element
		expected string
	}{
		{
			name:     "heading",
			elements: []types.Element{types.Heading{Level: 2, Text: "Loops & more"}, types.EndPage{}},
			expected: `<h2>Loops &amp; more</h2>`,
		},
		{
			name:     "deep heading is clamped",
			elements: []types.Element{types.Heading{Level: 8, Text: "deep"}, types.EndPage{}},
			expected: `<h6 aria-level="8">deep</h6>`,
		},
		{
			name:     "blurb is raw",
			elements: []types.Element{types.Paragraph{Text: "use <code>for</code>"}, types.EndPage{}},
			expected: `<p>use <code>for</code></p>`,
		},
		{
			name: "example with content and note",
			elements: []types.Element{
				types.Example{
					Title:   "basic",
					Content: []types.ProjectContent{{Project: "go", Content: "<b>x</b>"}},
					Note:    []types.ProjectNote{{Project: "go", Note: "careful"}},
				},
				types.EndPage{},
			},
			expected: `<p><strong>basic</strong></p>` +
				`<div class="example" data-project="go"><b>x</b><pre><code>&lt;b&gt;x&lt;/b&gt;</code></pre></div>` +
				`<p class="note" data-project="go">careful</p>`,
		},
		{
			name: "two columns",
			elements: []types.Element{
				types.Columns{Cols: [][]types.Example{
					{{Title: "a", Content: []types.ProjectContent{{Project: "p", Content: "1"}}}},
					{{Title: "b", Content: []types.ProjectContent{{Project: "p", Content: "2"}}}},
				}},
				types.EndPage{},
			},
			expected: `<div style="width:50%; display:inline-block; vertical-align: top">` +
				`<p><strong>a</strong></p><div class="example" data-project="p">1<pre><code>1</code></pre></div></div>` +
				`<div style="width:50%; display:inline-block; vertical-align: top">` +
				`<p><strong>b</strong></p><div class="example" data-project="p">2<pre><code>2</code></pre></div></div>`,
		},
		{
			name:     "empty page",
			elements: []types.Element{types.EndPage{}},
			expected: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderBody(t, tt.elements...))
		})
	}
}

func TestBody_Errors(t *testing.T) {
	tests := []struct {
		name     string
		elements []types.Element
	}{
		{name: "missing end of page", elements: []types.Element{types.Heading{Level: 1, Text: "x"}}},
		{name: "element after end of page", elements: []types.Element{types.EndPage{}, types.Paragraph{Text: "x"}}},
		{name: "empty stream", elements: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Body(tt.elements)
			require.Error(t, err)

			var de *doerrors.DocError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, doerrors.ErrCodeRenderFailed, de.Code)
		})
	}
}

func TestRenderPage(t *testing.T) {
	page := &types.MergedPage{
		Name:  "loops",
		Title: "Loops",
		Elements: []types.Element{
			types.Heading{Level: 1, Text: "Loops"},
			types.Paragraph{Text: "all about loops"},
			types.EndPage{},
		},
	}

	out, err := New(WithSiteTitle("Docs <dev>")).RenderPage(context.Background(), page)
	require.NoError(t, err)

	html := string(out)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Docs &lt;dev&gt;</title>")
	assert.Contains(t, html, "<h1>Loops</h1><p>all about loops</p>")
	assert.True(t, strings.HasSuffix(html, "</body></html>\n"))
	assert.NotContains(t, html, "WebSocket")
}

func TestRenderPage_DefaultTitleAndReload(t *testing.T) {
	page := &types.MergedPage{Name: "p", Elements: []types.Element{types.EndPage{}}}

	r := New(WithSiteTitle(""), WithLiveReload("/ws"))
	assert.Equal(t, DefaultSiteTitle, r.SiteTitle())

	out, err := r.RenderPage(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>Demo Site</title>")
	assert.Contains(t, string(out), `new WebSocket(proto + location.host + "/ws")`)
}

func TestRenderPage_ErrorCarriesPage(t *testing.T) {
	page := &types.MergedPage{Name: "broken", Elements: []types.Element{types.Heading{Level: 1, Text: "x"}}}

	_, err := New().RenderPage(context.Background(), page)
	require.Error(t, err)
	assert.Equal(t, "broken", doerrors.PageOf(err))
}

func TestIndex(t *testing.T) {
	entries := EntriesFor([]*types.MergedPage{
		{Name: "loops", Title: "Loops", Sections: []string{"for loops", "while"}},
		{Name: "error-handling", Sections: nil},
	})

	out, err := New().RenderIndex(context.Background(), "<h1>Welcome</h1>", entries)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<div class="homepage"><h1>Welcome</h1></div>`)
	assert.Contains(t, html, `<li><a href="loops.html">Loops</a><ul><li>For Loops</li><li>While</li></ul></li>`)
	assert.Contains(t, html, `<li><a href="error-handling.html">Error Handling</a></li>`)
}

func TestIndexBody_Empty(t *testing.T) {
	assert.Empty(t, IndexBody("  ", nil))
	assert.Len(t, IndexBody("home", nil), 1)
}
