package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
)

func newRepo(t *testing.T) *AnalystRepository {
	t.Helper()
	ctx := context.Background()
	db, err := Connect(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewAnalystRepository(db)
	require.NoError(t, repo.Migrate(ctx))
	// idempotent
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &domain.Analysis{ID: "a1", ExploitID: "42", RequestID: 1, Result: "<p>old</p>", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &domain.Analysis{ID: "a2", ExploitID: "42", RequestID: 3, Result: "<p>new</p>", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Save(ctx, &domain.Analysis{ID: "b1", ExploitID: "7", RequestID: 2, Error: "quota", CreatedAt: base.Add(30 * time.Second)}))

	got, err := repo.LatestByExploit(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisID("a2"), got.ID)
	assert.Equal(t, uint64(3), got.RequestID)
	assert.Equal(t, "<p>new</p>", got.Result)
	assert.Equal(t, base.Add(time.Minute), got.CreatedAt)

	failed, err := repo.LatestByExploit(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "quota", failed.Error)

	_, err = repo.LatestByExploit(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Save(ctx, &domain.Analysis{ID: "a1", ExploitID: "1", Result: "x"}))
	require.NoError(t, repo.Save(ctx, &domain.Analysis{ID: "a1", ExploitID: "1", Result: "y", NoData: true}))

	all, err := repo.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "y", all[0].Result)
	assert.True(t, all[0].NoData)
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, repo.Save(ctx, &domain.Analysis{ID: domain.AnalysisID(id), ExploitID: "1", CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	first, err := repo.Paginate(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, domain.AnalysisID("e"), first[0].ID)
	assert.Equal(t, domain.AnalysisID("d"), first[1].ID)

	last, err := repo.Paginate(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, domain.AnalysisID("a"), last[0].ID)

	defaults, err := repo.Paginate(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, defaults, 5)
}
