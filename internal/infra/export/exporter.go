package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/renameio/v2"
)

var (
	// ErrNothingToExport is returned when the analysis has no text.
	ErrNothingToExport = errors.New("no analysis to export")
	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Exporter turns plain analysis text into a document.
// Implementations must be safe for concurrent use.
type Exporter interface {
	// Export renders text, one paragraph per line.
	Export(ctx context.Context, text string) ([]byte, error)

	// Format returns the format identifier ("pdf", "docx")
	Format() string

	// ContentType returns the MIME content type for HTTP responses
	ContentType() string

	// Extension returns the file suffix including the dot
	Extension() string
}

// Options configures the exporters built by ForFormat.
type Options struct {
	// FontPath is a TTF font used for PDF output; empty means Helvetica.
	FontPath string
}

// ForFormat returns the exporter for format.
func ForFormat(format string, opts Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "pdf":
		return NewPDFExporter(opts.FontPath), nil
	case "docx":
		return NewDOCXExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Render converts analysis HTML to text and exports it. Empty text yields
// ErrNothingToExport.
func Render(ctx context.Context, e Exporter, analysisHTML string) ([]byte, error) {
	text, err := PlainText(analysisHTML)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNothingToExport
	}
	return e.Export(ctx, text)
}

// WriteFile stores data at path atomically: either the complete document is
// in place afterwards or the previous file (if any) is untouched.
func WriteFile(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
