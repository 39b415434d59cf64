package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnbasta/ynab-split-budget/internal/apperrors"
	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/repositories/file"
)

func TestCursorRepository_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.yaml")
	repo := file.NewCursorRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, domain.Cursors{User1: 111, User2: 222}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Cursors{User1: 111, User2: 222}, loaded)
}

func TestCursorRepository_MissingFile(t *testing.T) {
	repo := file.NewCursorRepository(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := repo.Load(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrCursorMissing)
}

func TestCursorRepository_StoreReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.yaml")
	repo := file.NewCursorRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, domain.Cursors{User1: 1, User2: 2}))
	require.NoError(t, repo.Store(ctx, domain.Cursors{User1: 333, User2: 444}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Cursors{User1: 333, User2: 444}, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCursorRepository_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_1: 42\nuser_2: 43\n"), 0o644))

	loaded, err := file.NewCursorRepository(path).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.Cursors{User1: 42, User2: 43}, loaded)
}

func TestCursorRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_1: [not a number"), 0o644))

	_, err := file.NewCursorRepository(path).Load(context.Background())

	assert.Error(t, err)
}
