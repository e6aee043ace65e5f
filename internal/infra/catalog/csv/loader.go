package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
)

// Kolom header yang dipakai dari files_exploits.csv
const (
	colCodes       = "codes"
	colDescription = "description"
	colType        = "type"
	colPlatform    = "platform"
	colID          = "id"
	colAuthor      = "author"
	colDate        = "date_published"
	colVerified    = "verified"
	colFile        = "file"
)

// Loader reads the catalog from a header-named CSV file.
type Loader struct {
	Path string
}

func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load implements exploits.Loader.
func (l *Loader) Load(ctx context.Context) ([]exploits.Record, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", exploits.ErrCatalogNotFound, l.Path)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	recs, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", l.Path, err)
	}
	return recs, nil
}

// Parse reads records from r. The first row is the header; columns that are
// absent, or cells missing from short rows, become empty strings.
func Parse(ctx context.Context, r io.Reader) ([]exploits.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	var out []exploits.Record
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, exploits.Record{
			ID:          get(colID),
			Signatures:  strings.ReplaceAll(get(colCodes), ";", ", "),
			Description: get(colDescription),
			Type:        get(colType),
			Platform:    get(colPlatform),
			Author:      get(colAuthor),
			Date:        get(colDate),
			Verified:    get(colVerified),
			FilePath:    get(colFile),
		})
	}
	return out, nil
}
