// Package file provides the file-based persistence implementation. Each
// entity is stored as one JSON document under the root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anilrana004/Workline/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
	documentRepo *DocumentRepository
	userRepo     *UserRepository
	logRepo      *LogRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on the root is accepted and stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: &WorkflowRepository{root: cleanRoot},
		documentRepo: &DocumentRepository{root: cleanRoot},
		userRepo:     &UserRepository{root: cleanRoot},
		logRepo:      &LogRepository{root: cleanRoot},
	}
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) DocumentRepository() persistence.DocumentRepository {
	return fp.documentRepo
}

func (fp *Persistence) UserRepository() persistence.UserRepository {
	return fp.userRepo
}

func (fp *Persistence) LogRepository() persistence.LogRepository {
	return fp.logRepo
}

// HealthCheck verifies the root directory is reachable.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// writeJSON marshals the value into path, creating parent directories as
// needed.
func writeJSON(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// readJSON unmarshals path into value, reporting os.ErrNotExist untouched so
// callers can map it to their not-found sentinel.
func readJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return nil
}

// listJSON returns the entity ids (file names without extension) in dir.
func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}

	return ids, nil
}
