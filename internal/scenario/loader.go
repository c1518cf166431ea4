// Package scenario loads scenario definitions from JSON files.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/davidbz/llmspend/internal/domain"
)

// templateFileName is the starter file shipped in the scenarios
// directory; it is excluded from discovery.
const templateFileName = "template.json"

// Config contains scenario directory configuration.
type Config struct {
	Dir string `env:"SCENARIOS_DIR" envDefault:"scenarios"`
}

// Loader reads and validates scenario files.
type Loader struct {
	dir string
}

// NewLoader creates a scenario loader rooted at the configured directory.
func NewLoader(config Config) *Loader {
	return &Loader{dir: config.Dir}
}

// Dir returns the configured scenarios directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load reads one scenario file. A scenario without an explicit id takes
// the file name (minus extension) as its id.
func (l *Loader) Load(path string) (*domain.Scenario, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}

	var scenario domain.Scenario
	if err := json.Unmarshal(payload, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}

	if scenario.ID == "" {
		base := filepath.Base(path)
		scenario.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if scenario.Name == "" {
		scenario.Name = scenario.ID
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// Discover lists scenario files under the configured directory,
// skipping the template. Results are sorted for deterministic batch
// order.
func (l *Loader) Discover() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(l.dir), "**/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenarios directory %s: %w", l.dir, err)
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		if filepath.Base(match) == templateFileName {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, match))
	}
	sort.Strings(paths)

	return paths, nil
}
