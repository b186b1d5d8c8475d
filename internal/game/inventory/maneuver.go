package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManeuverInfo is the configured presentation data for a maneuver name.
type ManeuverInfo struct {
	DamageType  DamageType `yaml:"damage_type"`
	Description string     `yaml:"description"`
}

// ManeuverTable maps maneuver names to their configured info. It is an
// explicit value handed to the combat engine at construction.
type ManeuverTable map[string]ManeuverInfo

// Describe returns the configured description for name, or "".
func (t ManeuverTable) Describe(name string) string {
	return t[name].Description
}

// LoadManeuverTable reads a YAML mapping of maneuver name to info from path.
//
// Postcondition: every entry has a known damage type, or an error is returned.
func LoadManeuverTable(path string) (ManeuverTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadManeuverTable: cannot read file %q: %w", path, err)
	}
	var t ManeuverTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("LoadManeuverTable: cannot parse file %q: %w", path, err)
	}
	for name, info := range t {
		if !validDamageTypes[info.DamageType] {
			return nil, fmt.Errorf("LoadManeuverTable: maneuver %q has unknown damage type %q", name, info.DamageType)
		}
	}
	if t == nil {
		t = ManeuverTable{}
	}
	return t, nil
}
