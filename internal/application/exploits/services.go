package exploits

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/exploitsearch/internal/application"
	"github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
	domain "github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/infra/export"
)

// Notices shown in place of source code
const (
	NoticeNoPath    = "Brak ścieżki do pliku."
	NoticeMissing   = "Plik nie istnieje: %s"
	NoticeReadError = "Błąd podczas czytania pliku:\n%v"
)

// Service implements use-cases untuk katalog exploit.
// Reports is optional; without it exports are only written locally.
type Service struct {
	Catalog     *domain.Catalog
	Highlighter domain.Highlighter
	Reports     analyst.ReportStore
	Export      export.Options
	Clock       application.Clock
	// SourceRoot resolves relative file paths; empty means the working directory.
	SourceRoot string
}

// LoadCatalog loads records through loader. On failure an empty catalog is
// returned together with the error so callers can log and keep running.
func LoadCatalog(ctx context.Context, loader domain.Loader) (*domain.Catalog, error) {
	records, err := loader.Load(ctx)
	if err != nil {
		return domain.NewCatalog(nil), err
	}
	return domain.NewCatalog(records), nil
}

// SearchResult is a ranked page of matches.
type SearchResult struct {
	Query string        `json:"query"`
	Total int           `json:"total"`
	Items []domain.View `json:"items"`
}

// Search ranks the catalog for query. limit <= 0 returns every match.
func (s *Service) Search(query string, limit int) SearchResult {
	hits := s.Catalog.Search(query)
	res := SearchResult{Query: query, Total: len(hits)}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	res.Items = make([]domain.View, len(hits))
	for i, r := range hits {
		res.Items[i] = domain.NewView(r)
	}
	return res
}

// Get returns the record with the given id.
func (s *Service) Get(id string) (domain.Record, error) {
	return s.Catalog.Get(strings.TrimSpace(id))
}

// Source is the code viewer content of one record. Exactly one of HTML and
// Notice is set.
type Source struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	HTML     string `json:"html,omitempty"`
	Notice   string `json:"notice,omitempty"`
}

// Source reads and highlights the file behind rec. Problems are reported as
// a notice, never as an error.
func (s *Service) Source(rec domain.Record) Source {
	out := Source{Path: rec.FilePath}
	if strings.TrimSpace(rec.FilePath) == "" {
		out.Notice = NoticeNoPath
		return out
	}

	path := rec.FilePath
	if s.SourceRoot != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.SourceRoot, path)
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		out.Notice = fmt.Sprintf(NoticeMissing, rec.FilePath)
		return out
	case err != nil:
		out.Notice = fmt.Sprintf(NoticeReadError, err)
		return out
	}

	out.Language = DetectLanguage(rec.FilePath)
	if s.Highlighter == nil {
		out.HTML = string(data)
		return out
	}
	html, err := s.Highlighter.Highlight(string(data), out.Language)
	if err != nil {
		log.Printf("highlight error: id=%s lang=%s err=%v", rec.ID, out.Language, err)
		out.Notice = fmt.Sprintf(NoticeReadError, err)
		return out
	}
	out.HTML = html
	return out
}

var languages = map[string]string{
	".py":   "python",
	".c":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".rb":   "ruby",
	".pl":   "perl",
	".php":  "php",
	".js":   "javascript",
	".html": "html",
	".sh":   "bash",
	".java": "java",
}

// DetectLanguage maps the file extension to a highlighter language, "text"
// when unknown.
func DetectLanguage(path string) string {
	if lang, ok := languages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "text"
}

// ExportCommand describes one analysis export.
type ExportCommand struct {
	Format    string
	ExploitID string
	HTML      string
	// Path is the local destination; empty skips the local write.
	Path string
	// Upload publishes the document to Reports when configured.
	Upload bool
}

type ExportResult struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
	Path        string `json:"path,omitempty"`
	URL         string `json:"url,omitempty"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}

// ExportAnalysis renders an analysis, writes it atomically and optionally
// uploads the document.
func (s *Service) ExportAnalysis(ctx context.Context, cmd ExportCommand) (ExportResult, error) {
	exp, err := export.ForFormat(cmd.Format, s.Export)
	if err != nil {
		return ExportResult{}, err
	}
	data, err := export.Render(ctx, exp, cmd.HTML)
	if err != nil {
		return ExportResult{}, err
	}

	res := ExportResult{
		Format:      exp.Format(),
		ContentType: exp.ContentType(),
		FileName:    s.fileName(cmd.ExploitID, exp.Extension()),
		Size:        len(data),
		Data:        data,
	}
	if cmd.Path != "" {
		if err := export.WriteFile(cmd.Path, data); err != nil {
			return ExportResult{}, err
		}
		res.Path = cmd.Path
	}
	if cmd.Upload && s.Reports != nil {
		url, err := s.Reports.Upload(ctx, "analyses/"+res.FileName, res.ContentType, data)
		if err != nil {
			return res, fmt.Errorf("upload report: %w", err)
		}
		res.URL = url
	}
	return res, nil
}

func (s *Service) fileName(exploitID, ext string) string {
	clock := s.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}
	id := strings.TrimSpace(exploitID)
	if id == "" {
		id = "analysis"
	}
	return fmt.Sprintf("exploit-%s-%s%s", id, clock.Now().UTC().Format("20060102T150405Z"), ext)
}
