package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
)

const schema = `
CREATE TABLE IF NOT EXISTS exploit_analyses (
  id          UUID        PRIMARY KEY,
  exploit_id  TEXT        NOT NULL,
  request_id  BIGINT      NOT NULL,
  result      TEXT        NOT NULL,
  no_data     BOOLEAN     NOT NULL DEFAULT FALSE,
  error       TEXT        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exploit_analyses_exploit ON exploit_analyses (exploit_id, created_at DESC);`

type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

// Migrate creates the analyses table when missing
func (r *AnalystRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts or updates an analysis record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO exploit_analyses
  (id, exploit_id, request_id, result, no_data, error, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  result=EXCLUDED.result,
  no_data=EXCLUDED.no_data,
  error=EXCLUDED.error;
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), stringOrDash(a.ExploitID), int64(a.RequestID), a.Result, a.NoData, a.Error, createdAt.UTC())
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalystRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, exploit_id, request_id, result, no_data, error, created_at
FROM exploit_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestByExploit returns the newest analysis stored for one exploit
func (r *AnalystRepository) LatestByExploit(ctx context.Context, exploitID string) (*domain.Analysis, error) {
	const q = `
SELECT id, exploit_id, request_id, result, no_data, error, created_at
FROM exploit_analyses
WHERE exploit_id=$1
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, stringOrDash(exploitID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func scanAnalysis(s interface{ Scan(dest ...any) error }) (*domain.Analysis, error) {
	var (
		a   domain.Analysis
		req int64
	)
	if err := s.Scan(&a.ID, &a.ExploitID, &req, &a.Result, &a.NoData, &a.Error, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.RequestID = uint64(req)
	if a.ExploitID == "-" {
		a.ExploitID = ""
	}
	return &a, nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
