package highlight

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const defaultStyle = "monokai"

// Chroma renders code as a standalone HTML page with inline styles.
type Chroma struct {
	Style string
}

func New() *Chroma { return &Chroma{Style: defaultStyle} }

// Highlight implements exploits.Highlighter. Unknown languages are rendered
// as plain text.
func (c *Chroma) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(c.Style)
	if style == nil {
		style = styles.Fallback
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}
	var buf bytes.Buffer
	formatter := html.New(html.Standalone(true), html.WithClasses(false))
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", fmt.Errorf("format html: %w", err)
	}
	return buf.String(), nil
}
