package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true, "pre": true,
	"blockquote": true, "hr": true, "dl": true, "dt": true, "dd": true,
}

var skipTags = map[string]bool{
	"head": true, "script": true, "style": true, "title": true, "#comment": true,
}

// PlainText flattens analysis HTML into text: block elements end up on their
// own lines, inline whitespace is collapsed, <pre> content is kept verbatim.
func PlainText(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse analysis html: %w", err)
	}
	var b textBuilder
	b.walk(doc.Selection, false)
	return b.result(), nil
}

type textBuilder struct {
	sb strings.Builder
}

func (b *textBuilder) walk(sel *goquery.Selection, pre bool) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		switch {
		case name == "#text":
			b.text(s.Text(), pre)
		case skipTags[name]:
		case name == "br":
			b.sb.WriteByte('\n')
		case name == "td" || name == "th":
			b.walk(s, pre)
			b.sb.WriteByte('\t')
		case blockTags[name]:
			b.endLine()
			b.walk(s, pre || name == "pre")
			b.endLine()
		default:
			b.walk(s, pre)
		}
	})
}

func (b *textBuilder) text(s string, pre bool) {
	if pre {
		b.sb.WriteString(s)
		return
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			if b.atLineStart() || b.last() == ' ' {
				continue
			}
			b.sb.WriteByte(' ')
			continue
		}
		b.sb.WriteRune(r)
	}
}

func (b *textBuilder) endLine() {
	if b.sb.Len() > 0 && b.last() != '\n' {
		b.sb.WriteByte('\n')
	}
}

func (b *textBuilder) last() byte {
	s := b.sb.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (b *textBuilder) atLineStart() bool {
	l := b.last()
	return l == 0 || l == '\n'
}

// result trims every line and squeezes runs of blank lines into one.
func (b *textBuilder) result() string {
	lines := strings.Split(b.sb.String(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRightFunc(l, unicode.IsSpace)
		if strings.TrimSpace(l) == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
