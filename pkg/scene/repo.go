// Package scene loads authored scene documents from disk.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"awarego/pkg/model"
)

// ErrNotFound is returned when no scene document exists for a name.
var ErrNotFound = errors.New("scene not found")

// Repository reads immutable scene documents from a directory. Documents
// are keyed by name and stored as <dir>/<name>.json.
type Repository struct {
	dir string
}

// NewRepository creates a repository rooted at dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// LoadTextScene loads a text-message thread scene by name.
func (r *Repository) LoadTextScene(name string) (*model.TextScene, error) {
	var s model.TextScene
	if err := r.load(name, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadEncounter loads an in-person encounter scene by name.
func (r *Repository) LoadEncounter(name string) (*model.Encounter, error) {
	var e model.Encounter
	if err := r.load(name, &e); err != nil {
		return nil, err
	}
	if !e.Endings.Ordered() {
		// Resolution still checks good first; surprising results are on
		// the author, but worth a trace in the log.
		slog.Warn("Encounter ending thresholds are not ordered good>=neutral>=bad",
			"scene", name,
			"good", e.Endings.Good.Threshold,
			"neutral", e.Endings.Neutral.Threshold,
			"bad", e.Endings.Bad.Threshold)
	}
	return &e, nil
}

func (r *Repository) load(name string, v any) error {
	path := filepath.Join(r.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to read scene %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode scene %s: %w", name, err)
	}
	return nil
}
