package mob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownSpecies is returned when a spawn names a key with no template.
var ErrUnknownSpecies = errors.New("unknown mob species")

// Template defines a mob species loaded from YAML.
type Template struct {
	Key              string `yaml:"key"`
	Name             string `yaml:"name"`
	Level            int    `yaml:"level"`
	HitPoints        int    `yaml:"hit_points"`
	AttackRange      int    `yaml:"attack_range"`
	Projectile       string `yaml:"projectile"`
	RoamDistance     int    `yaml:"roam_distance"`
	AggroRange       int    `yaml:"aggro_range"`
	AlwaysAggressive bool   `yaml:"always_aggressive"`
	Respawnable      bool   `yaml:"respawnable"`
	// RespawnDelay is a duration string such as "30s". Empty means the
	// species does not respawn even when Respawnable is set.
	RespawnDelay string `yaml:"respawn_delay"`
	// Plugin is the behavior key; empty selects the default behavior.
	Plugin string `yaml:"plugin"`
	// Boss marks species whose deaths are written to the kill ledger.
	Boss bool `yaml:"boss"`
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff Key and Name are non-empty, Level >= 1,
// HitPoints >= 1, AttackRange >= 0 and RespawnDelay parses; returns an error on
// the first violation otherwise.
func (t *Template) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("mob template: key must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("mob template %q: name must not be empty", t.Key)
	}
	if t.Level < 1 {
		return fmt.Errorf("mob template %q: level must be >= 1", t.Key)
	}
	if t.HitPoints < 1 {
		return fmt.Errorf("mob template %q: hit_points must be >= 1", t.Key)
	}
	if t.AttackRange < 0 {
		return fmt.Errorf("mob template %q: attack_range must be >= 0", t.Key)
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			return fmt.Errorf("mob template %q: respawn_delay %q is not a valid duration: %w", t.Key, t.RespawnDelay, err)
		}
	}
	return nil
}

// Delay returns the parsed respawn delay, or zero when the species does not respawn.
func (t *Template) Delay() time.Duration {
	if !t.Respawnable || t.RespawnDelay == "" {
		return 0
	}
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// LoadTemplatesFromBytes parses a YAML document holding a list of templates.
//
// Postcondition: Returns validated templates, or an error on the first failure.
func LoadTemplatesFromBytes(data []byte) ([]*Template, error) {
	var tmpls []*Template
	if err := yaml.Unmarshal(data, &tmpls); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	for _, t := range tmpls {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return tmpls, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// keyed by species.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first read, parse,
// validate or duplicate-key failure.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading mob dir %q: %w", dir, err)
	}

	out := make(map[string]*Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpls, err := LoadTemplatesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		for _, t := range tmpls {
			if _, dup := out[t.Key]; dup {
				return nil, fmt.Errorf("loading %q: duplicate mob key %q", path, t.Key)
			}
			out[t.Key] = t
		}
	}
	return out, nil
}
