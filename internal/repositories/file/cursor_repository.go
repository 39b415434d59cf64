// Package file persists the per-user sync cursors as a small YAML file
// with whole-file replace semantics.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dnbasta/ynab-split-budget/internal/apperrors"
	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	portsrepo "github.com/dnbasta/ynab-split-budget/internal/core/ports/repositories"
)

// CursorRepository stores both users' server knowledge in one YAML file.
type CursorRepository struct {
	path string
}

// NewCursorRepository points the repository at the given file path.
func NewCursorRepository(path string) *CursorRepository {
	return &CursorRepository{path: path}
}

var _ portsrepo.CursorRepository = (*CursorRepository)(nil)

// Load reads the persisted cursors. A missing file yields ErrCursorMissing;
// the caller should run a knowledge sync first.
func (r *CursorRepository) Load(_ context.Context) (domain.Cursors, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Cursors{}, fmt.Errorf("no cursor file at %s: %w", r.path, apperrors.ErrCursorMissing)
		}
		return domain.Cursors{}, fmt.Errorf("reading cursor file: %w", err)
	}

	var cursors domain.Cursors
	if err := yaml.Unmarshal(raw, &cursors); err != nil {
		return domain.Cursors{}, fmt.Errorf("parsing cursor file %s: %w", r.path, err)
	}
	return cursors, nil
}

// Store atomically replaces the cursor file: the record is written to a
// temp file in the same directory and renamed over the target, so a crash
// mid-write never leaves a partial record behind.
func (r *CursorRepository) Store(_ context.Context, cursors domain.Cursors) error {
	raw, err := yaml.Marshal(cursors)
	if err != nil {
		return fmt.Errorf("encoding cursors: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cursor file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp cursor file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp cursor file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replacing cursor file: %w", err)
	}
	return nil
}
