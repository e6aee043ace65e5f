package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
)

const schema = `
CREATE TABLE IF NOT EXISTS exploit_analyses (
  id          TEXT    PRIMARY KEY,
  exploit_id  TEXT    NOT NULL,
  request_id  INTEGER NOT NULL,
  result      TEXT    NOT NULL,
  no_data     INTEGER NOT NULL DEFAULT 0,
  error       TEXT    NOT NULL DEFAULT '',
  created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exploit_analyses_exploit ON exploit_analyses (exploit_id, created_at);`

// AnalystRepository stores analyses in a local SQLite file. created_at is
// kept as unix nanoseconds.
type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

func (r *AnalystRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO exploit_analyses
  (id, exploit_id, request_id, result, no_data, error, created_at)
VALUES (?,?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET
  result=excluded.result,
  no_data=excluded.no_data,
  error=excluded.error;
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), a.ExploitID, int64(a.RequestID), a.Result, a.NoData, a.Error, createdAt.UnixNano())
	return err
}

func (r *AnalystRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	const q = `
SELECT id, exploit_id, request_id, result, no_data, error, created_at
FROM exploit_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, (page-1)*pageSize)
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

func (r *AnalystRepository) LatestByExploit(ctx context.Context, exploitID string) (*domain.Analysis, error) {
	const q = `
SELECT id, exploit_id, request_id, result, no_data, error, created_at
FROM exploit_analyses
WHERE exploit_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, exploitID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func scanAnalysis(s interface{ Scan(dest ...any) error }) (*domain.Analysis, error) {
	var (
		a       domain.Analysis
		req     int64
		created int64
	)
	if err := s.Scan(&a.ID, &a.ExploitID, &req, &a.Result, &a.NoData, &a.Error, &created); err != nil {
		return nil, err
	}
	a.RequestID = uint64(req)
	a.CreatedAt = time.Unix(0, created).UTC()
	return &a, nil
}
