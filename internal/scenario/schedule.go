package scenario

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/grand-campaign/pkg/warfare"
)

// Schedule is a scripted list of commands keyed by the tick they apply on.
// Tick 1 is the first day stepped after the start date.
type Schedule struct {
	Entries []ScheduleEntry `yaml:"commands"`
}

type ScheduleEntry struct {
	Tick     int          `yaml:"tick"`
	Country  string       `yaml:"country"`
	Commands []CommandDef `yaml:"do"`
}

// CommandDef is the YAML form of a warfare.Command.
type CommandDef struct {
	Type        string    `yaml:"type"`
	Target      string    `yaml:"target"`
	CasusBelli  string    `yaml:"casus_belli"`
	War         int       `yaml:"war"`
	Terms       *TermsDef `yaml:"terms"`
	Army        int       `yaml:"army"`
	Fleet       int       `yaml:"fleet"`
	Destination int       `yaml:"destination"`
}

type TermsDef struct {
	Kind      string `yaml:"kind"`
	Provinces []int  `yaml:"provinces"`
}

// ParseSchedule decodes a command schedule.
func ParseSchedule(data []byte) (*Schedule, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	var s Schedule
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	for i, e := range s.Entries {
		if e.Tick < 1 {
			return nil, fmt.Errorf("parse schedule: entry %d: tick must be >= 1", i)
		}
		if e.Country == "" {
			return nil, fmt.Errorf("parse schedule: entry %d: country is required", i)
		}
	}
	return &s, nil
}

// At returns the command batches scheduled for tick, in file order.
func (s *Schedule) At(tick int) []warfare.CountryCommands {
	if s == nil {
		return nil
	}
	var out []warfare.CountryCommands
	for _, e := range s.Entries {
		if e.Tick != tick {
			continue
		}
		cc := warfare.CountryCommands{Country: warfare.Tag(e.Country)}
		for _, c := range e.Commands {
			cc.Commands = append(cc.Commands, c.Command())
		}
		out = append(out, cc)
	}
	return out
}

// LastTick returns the highest scheduled tick.
func (s *Schedule) LastTick() int {
	last := 0
	if s == nil {
		return last
	}
	for _, e := range s.Entries {
		last = max(last, e.Tick)
	}
	return last
}

// Command converts the definition to an engine command.
func (c CommandDef) Command() warfare.Command {
	cmd := warfare.Command{
		Type:        warfare.CommandType(c.Type),
		Target:      warfare.Tag(c.Target),
		CasusBelli:  c.CasusBelli,
		WarID:       warfare.WarID(c.War),
		ArmyID:      warfare.ArmyID(c.Army),
		FleetID:     warfare.FleetID(c.Fleet),
		Destination: warfare.ProvinceID(c.Destination),
	}
	if c.Terms != nil {
		terms := &warfare.PeaceTerms{Kind: warfare.PeaceKind(c.Terms.Kind)}
		for _, p := range c.Terms.Provinces {
			terms.Provinces = append(terms.Provinces, warfare.ProvinceID(p))
		}
		cmd.Terms = terms
	}
	return cmd
}
