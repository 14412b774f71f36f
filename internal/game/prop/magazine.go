// Package prop provides YAML definitions and loaders for pistol and magazine
// props.
package prop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/sidearm/internal/game/magazine"
	"github.com/cory-johannsen/sidearm/internal/game/rounds"
)

// MagazineDef defines a detachable magazine loaded from YAML.
type MagazineDef struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Prefab   string `yaml:"prefab"`
	Capacity int    `yaml:"capacity"`
	// Rounds is the count a freshly spawned magazine holds.
	Rounds int `yaml:"rounds"`
}

// Validate checks that the MagazineDef satisfies its invariants.
// Precondition: m is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (m *MagazineDef) Validate() error {
	var errs []error
	if m.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if m.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if m.Prefab == "" {
		errs = append(errs, errors.New("Prefab must not be empty"))
	}
	if err := (rounds.Snapshot{Capacity: m.Capacity, Held: m.Rounds}).Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("magazine validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// NewMagazine returns a fresh magazine built from the definition.
func (m *MagazineDef) NewMagazine(logger *zap.Logger) (*magazine.Magazine, error) {
	return magazine.New(m.Capacity, m.Rounds, logger)
}

// LoadMagazines reads all *.yaml files from dir, parses each as a
// MagazineDef, validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid MagazineDefs or the first encountered error.
func LoadMagazines(dir string) ([]*MagazineDef, error) {
	var defs []*MagazineDef
	err := eachYAML(dir, func(path string, data []byte) error {
		var m MagazineDef
		if err := yaml.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("cannot parse file %q: %w", path, err)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid magazine in %q: %w", path, err)
		}
		defs = append(defs, &m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadMagazines: %w", err)
	}
	return defs, nil
}

func eachYAML(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read file %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}
