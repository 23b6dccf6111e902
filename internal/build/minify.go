package build

import (
	"bytes"
	"errors"
	"io"
	"regexp"

	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`[ \t\r\n\f]+`)

// preformatted elements keep their text untouched.
var preformatted = map[string]bool{
	"pre":      true,
	"code":     true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

// MinifyHTML collapses insignificant whitespace between and inside text
// runs. Tags are copied byte for byte and text inside preformatted elements
// is left alone.
func MinifyHTML(src []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))

	z := html.NewTokenizer(bytes.NewReader(src))
	depth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out.Bytes(), nil
			}
			return nil, z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if preformatted[string(name)] {
				depth++
			}
			out.Write(z.Raw())
		case html.EndTagToken:
			name, _ := z.TagName()
			if preformatted[string(name)] && depth > 0 {
				depth--
			}
			out.Write(z.Raw())
		case html.TextToken:
			raw := z.Raw()
			if depth > 0 {
				out.Write(raw)
				continue
			}
			collapsed := whitespaceRun.ReplaceAll(raw, []byte(" "))
			if len(bytes.TrimSpace(collapsed)) == 0 {
				continue
			}
			out.Write(collapsed)
		default:
			out.Write(z.Raw())
		}
	}
}
