// Package disk persists the price cache as a JSON file, the default
// store for CLI runs. The file's modification time doubles as the
// stored-at timestamp.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davidbz/llmspend/internal/domain"
)

const cacheFileName = "price_cache.json"

// Store reads and writes the price cache file under a directory.
type Store struct {
	path string
}

// NewStore creates a disk store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, cacheFileName)}
}

// Load returns the cached payload and the file's modification time.
func (s *Store) Load(_ context.Context) ([]byte, time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, domain.ErrCacheMiss
		}
		return nil, time.Time{}, fmt.Errorf("failed to stat price cache: %w", err)
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read price cache: %w", err)
	}

	return payload, info.ModTime(), nil
}

// Save writes the payload, creating the directory on first use.
func (s *Store) Save(_ context.Context, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write price cache: %w", err)
	}
	return nil
}
