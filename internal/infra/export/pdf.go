package export

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/mitchellh/go-wordwrap"
)

const (
	pdfMargin   = 40.0
	pdfFontSize = 10.0
	pdfLeading  = 14.0
	pdfWrapAt   = 110
	pdfFontName = "AnalysisFont"
)

// PDFExporter lays the text out on Letter pages, one wrapped line at a time.
type PDFExporter struct {
	// FontPath is an optional UTF-8 TTF font. Without it (or when it fails
	// to load) Helvetica is used and characters outside cp1252 are lost.
	FontPath string
}

func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{FontPath: fontPath}
}

func (e *PDFExporter) Format() string      { return "pdf" }
func (e *PDFExporter) ContentType() string { return "application/pdf" }
func (e *PDFExporter) Extension() string   { return ".pdf" }

// Export implements Exporter.
func (e *PDFExporter) Export(ctx context.Context, text string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)

	family := "Helvetica"
	translate := func(s string) string { return s }
	utf8 := false
	if e.FontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", e.FontPath)
		if pdf.Err() {
			log.Printf("pdf export: font %s not usable, falling back to Helvetica: %v", e.FontPath, pdf.Error())
			pdf.ClearError()
		} else {
			family = pdfFontName
			utf8 = true
		}
	}
	if !utf8 {
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.SetFont(family, "", pdfFontSize)
	_, pageHeight := pdf.GetPageSize()
	pdf.AddPage()
	y := pdfMargin
	for _, line := range wrapLines(text, pdfWrapAt) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.Text(pdfMargin, y, translate(line))
		y += pdfLeading
		if y > pageHeight-pdfMargin {
			pdf.AddPage()
			y = pdfMargin
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// wrapLines wraps every paragraph at width without breaking long words.
// Empty paragraphs stay as empty lines.
func wrapLines(text string, width uint) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, strings.Split(wordwrap.WrapString(para, width), "\n")...)
	}
	return lines
}
