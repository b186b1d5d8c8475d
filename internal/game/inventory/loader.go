package inventory

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadActor reads and validates a single actor YAML file.
func LoadActor(path string) (*Actor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadActor: cannot read file %q: %w", path, err)
	}
	var a Actor
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("LoadActor: cannot parse file %q: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("LoadActor: invalid actor in %q: %w", path, err)
	}
	return &a, nil
}

// LoadActors reads all *.yaml and *.yml files from dir, parses each as an
// Actor, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Actors or the first encountered error.
func LoadActors(dir string) ([]*Actor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadActors: cannot read directory %q: %w", dir, err)
	}

	var actors []*Actor
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		a, err := LoadActor(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, nil
}
