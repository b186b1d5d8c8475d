package combat

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
)

// FumbleEntry is one ranged row of a fumble table.
type FumbleEntry struct {
	Low  int    `yaml:"low"`
	High int    `yaml:"high"`
	Text string `yaml:"text"`
}

// FumbleTable is a ranged result table drawn with a dice expression.
type FumbleTable struct {
	Name    string        `yaml:"name"`
	Roll    string        `yaml:"roll"`
	Entries []FumbleEntry `yaml:"entries"`

	expr dice.Expression
}

// LoadFumbleTable reads and validates a fumble table YAML file. An empty
// roll expression defaults to 1d100.
func LoadFumbleTable(path string) (*FumbleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFumbleTable: cannot read file %q: %w", path, err)
	}
	var t FumbleTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("LoadFumbleTable: cannot parse file %q: %w", path, err)
	}
	if err := t.init(); err != nil {
		return nil, fmt.Errorf("LoadFumbleTable: invalid table in %q: %w", path, err)
	}
	return &t, nil
}

// NewFumbleTable validates entries and returns a ready table.
func NewFumbleTable(name, roll string, entries []FumbleEntry) (*FumbleTable, error) {
	t := &FumbleTable{Name: name, Roll: roll, Entries: entries}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *FumbleTable) init() error {
	if t.Roll == "" {
		t.Roll = "1d100"
	}
	expr, err := dice.Parse(t.Roll)
	if err != nil {
		return err
	}
	t.expr = expr
	if t.Name == "" {
		return errors.New("name must not be empty")
	}
	if len(t.Entries) == 0 {
		return errors.New("entries must not be empty")
	}
	for i, e := range t.Entries {
		if e.Low > e.High {
			return fmt.Errorf("entry %d has low %d > high %d", i, e.Low, e.High)
		}
		if e.Text == "" {
			return fmt.Errorf("entry %d has no text", i)
		}
	}
	return nil
}

// Lookup returns the first entry whose range contains roll.
func (t *FumbleTable) Lookup(roll int) (FumbleEntry, bool) {
	for _, e := range t.Entries {
		if roll >= e.Low && roll <= e.High {
			return e, true
		}
	}
	return FumbleEntry{}, false
}
