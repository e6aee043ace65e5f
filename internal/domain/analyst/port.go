package analyst

import "context"

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Analysis, error)
	LatestByExploit(ctx context.Context, exploitID string) (*Analysis, error)
}

// ReportStore port for publishing exported analysis documents
type ReportStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
