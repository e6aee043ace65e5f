package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
)

const schema = `
CREATE TABLE IF NOT EXISTS exploit_analyses (
  id          VARCHAR(36)  NOT NULL PRIMARY KEY,
  exploit_id  VARCHAR(64)  NOT NULL,
  request_id  BIGINT UNSIGNED NOT NULL,
  result      MEDIUMTEXT   NOT NULL,
  no_data     BOOLEAN      NOT NULL DEFAULT FALSE,
  error       TEXT         NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  INDEX idx_exploit_created (exploit_id, created_at)
);`

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

// Save inserts an analysis record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO exploit_analyses
  (id, exploit_id, request_id, result, no_data, error, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  result=VALUES(result), no_data=VALUES(no_data), error=VALUES(error);
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.ExploitID), a.RequestID, a.Result, a.NoData, a.Error, createdOrNow(a.CreatedAt))
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalystRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	limit, offset := normalizePage(page, pageSize)
	const q = `
SELECT id, exploit_id, request_id, result, no_data, error, created_at
FROM exploit_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
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
WHERE exploit_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, stringOrDash(exploitID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := s.Scan(&a.ID, &a.ExploitID, &a.RequestID, &a.Result, &a.NoData, &a.Error, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ExploitID = dashToEmpty(a.ExploitID)
	return &a, nil
}
