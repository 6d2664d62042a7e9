// File: repositories/file_roster_repository.go
package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Dosada05/mergington-activities/models"
	"github.com/xeipuuv/gojsonschema"
)

type fileRosterRepository struct {
	path   string
	schema *gojsonschema.Schema
	mu     sync.Mutex // serialises writers
}

// NewFileRosterRepository keeps the roster in a single JSON document at path.
// The file is re-read on every Load, so edits made outside the process are seen.
func NewFileRosterRepository(path string) (RosterRepository, error) {
	if path == "" {
		return nil, errors.New("roster file path is required")
	}
	schema, err := compileRosterSchema()
	if err != nil {
		return nil, err
	}
	return &fileRosterRepository{path: path, schema: schema}, nil
}

func (r *fileRosterRepository) Load(ctx context.Context) (models.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Roster{}, nil
		}
		return nil, fmt.Errorf("failed to read roster file %s: %w", r.path, err)
	}

	roster, err := decodeRoster(data, r.schema)
	if err != nil {
		return nil, fmt.Errorf("roster file %s: %w", r.path, err)
	}
	return roster, nil
}

func (r *fileRosterRepository) Save(ctx context.Context, roster models.Roster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, roster)
}

func (r *fileRosterRepository) Update(ctx context.Context, fn UpdateFunc) (models.Roster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roster, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(roster); err != nil {
		return nil, err
	}
	if err := r.write(ctx, roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// write replaces the file atomically: temp file in the same directory, fsync, rename.
func (r *fileRosterRepository) write(ctx context.Context, roster models.Roster) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRoster(roster)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create roster directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp roster file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp roster file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp roster file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp roster file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set roster file mode: %w", err)
	}
	if err = os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace roster file %s: %w", r.path, err)
	}
	return nil
}
