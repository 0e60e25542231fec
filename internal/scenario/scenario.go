// Package scenario loads starting worlds and scripted command schedules
// from YAML.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/grand-campaign/pkg/warfare"
)

//go:embed scenarios/*.yaml
var builtin embed.FS

// DefaultName is the scenario used when none is given.
const DefaultName = "baltic"

// DefaultRegimentStrength is the size in men of a freshly raised regiment.
var DefaultRegimentStrength = warfare.FromInt(1000)

// ErrUnknownScenario is returned by Builtin for names with no embedded file.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario describes a starting world.
type Scenario struct {
	Name      string        `yaml:"name"`
	Start     warfare.Date  `yaml:"start"`
	Seed      uint64        `yaml:"seed"`
	Countries []CountryDef  `yaml:"countries"`
	Provinces []ProvinceDef `yaml:"provinces"`
	Adjacency [][]int       `yaml:"adjacency"`
	Generals  []LeaderDef   `yaml:"generals"`
	Admirals  []LeaderDef   `yaml:"admirals"`
	Armies    []ArmyDef     `yaml:"armies"`
	Fleets    []FleetDef    `yaml:"fleets"`
	Access    []AccessDef   `yaml:"access"`
	Truces    []TruceDef    `yaml:"truces"`
	Wars      []WarDef      `yaml:"wars"`

	// Source is the document the scenario was parsed from.
	Source []byte `yaml:"-"`
}

type CountryDef struct {
	Tag  string `yaml:"tag"`
	Name string `yaml:"name"`
}

type ProvinceDef struct {
	ID         int           `yaml:"id"`
	Name       string        `yaml:"name"`
	Owner      string        `yaml:"owner"`
	Controller string        `yaml:"controller"`
	Sea        bool          `yaml:"sea"`
	Tax        warfare.Fixed `yaml:"tax"`
	Production warfare.Fixed `yaml:"production"`
	Manpower   warfare.Fixed `yaml:"manpower"`
	Fort       int           `yaml:"fort"`
	Mothballed bool          `yaml:"mothballed"`
}

type LeaderDef struct {
	ID       int    `yaml:"id"`
	Owner    string `yaml:"owner"`
	Name     string `yaml:"name"`
	Fire     int    `yaml:"fire"`
	Shock    int    `yaml:"shock"`
	Maneuver int    `yaml:"maneuver"`
	Siege    int    `yaml:"siege"`
}

type ArmyDef struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Owner     string `yaml:"owner"`
	Location  int    `yaml:"location"`
	Infantry  int    `yaml:"infantry"`
	Cavalry   int    `yaml:"cavalry"`
	Artillery int    `yaml:"artillery"`
	General   int    `yaml:"general"`
}

type FleetDef struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Owner     string `yaml:"owner"`
	Location  int    `yaml:"location"`
	Heavy     int    `yaml:"heavy"`
	Light     int    `yaml:"light"`
	Galley    int    `yaml:"galley"`
	Transport int    `yaml:"transport"`
	Admiral   int    `yaml:"admiral"`
}

type AccessDef struct {
	Grantor  string `yaml:"grantor"`
	Receiver string `yaml:"receiver"`
}

type TruceDef struct {
	A       string       `yaml:"a"`
	B       string       `yaml:"b"`
	Expires warfare.Date `yaml:"expires"`
}

type WarDef struct {
	Name       string        `yaml:"name"`
	Attackers  []string      `yaml:"attackers"`
	Defenders  []string      `yaml:"defenders"`
	CasusBelli string        `yaml:"casus_belli"`
	Start      *warfare.Date `yaml:"start"`
}

// Parse decodes a scenario document. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if s.Start == (warfare.Date{}) {
		return nil, errors.New("parse scenario: start date is required")
	}
	s.Source = data
	return &s, nil
}

// Builtin returns an embedded scenario by name.
func Builtin(name string) (*Scenario, error) {
	data, err := builtin.ReadFile(path.Join("scenarios", name+".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the default embedded scenario.
func Default() *Scenario {
	s, err := Builtin(DefaultName)
	if err != nil {
		panic(fmt.Sprintf("embedded scenario %s: %v", DefaultName, err))
	}
	return s
}

// Names lists the embedded scenarios.
func Names() []string {
	entries, _ := builtin.ReadDir("scenarios")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Graph builds the adjacency graph.
func (s *Scenario) Graph() (*warfare.AdjacencyGraph, error) {
	known := make(map[int]bool, len(s.Provinces))
	for _, p := range s.Provinces {
		known[p.ID] = true
	}
	edges := make([]warfare.Edge, 0, len(s.Adjacency))
	for i, e := range s.Adjacency {
		if len(e) != 2 {
			return nil, fmt.Errorf("adjacency %d: want 2 provinces, got %d", i, len(e))
		}
		if !known[e[0]] || !known[e[1]] {
			return nil, fmt.Errorf("adjacency %d: unknown province in %v", i, e)
		}
		if e[0] == e[1] {
			return nil, fmt.Errorf("adjacency %d: province %d adjacent to itself", i, e[0])
		}
		edges = append(edges, warfare.Edge{warfare.ProvinceID(e[0]), warfare.ProvinceID(e[1])})
	}
	return warfare.NewAdjacencyGraph(edges), nil
}

// Build creates the starting world and its adjacency graph.
func (s *Scenario) Build(d *warfare.Defines) (*warfare.WorldState, *warfare.AdjacencyGraph, error) {
	if d == nil {
		d = warfare.DefaultDefines()
	}
	g, err := s.Graph()
	if err != nil {
		return nil, nil, err
	}
	ws := warfare.NewWorldState(s.Start, s.Seed)

	for _, c := range s.Countries {
		tag := warfare.Tag(c.Tag)
		if tag == "" {
			return nil, nil, errors.New("country with empty tag")
		}
		if ws.CountryExists(tag) {
			return nil, nil, fmt.Errorf("duplicate country %s", tag)
		}
		ws.AddCountry(tag, c.Name)
	}
	knownTag := func(t string) bool { return t == "" || ws.CountryExists(warfare.Tag(t)) }

	for _, p := range s.Provinces {
		id := warfare.ProvinceID(p.ID)
		if _, dup := ws.Provinces[id]; dup {
			return nil, nil, fmt.Errorf("duplicate province %d", p.ID)
		}
		if !knownTag(p.Owner) || !knownTag(p.Controller) {
			return nil, nil, fmt.Errorf("province %d: unknown country", p.ID)
		}
		if p.Sea && (p.Owner != "" || p.Fort > 0) {
			return nil, nil, fmt.Errorf("province %d: sea zones cannot be owned or fortified", p.ID)
		}
		ws.Provinces[id] = &warfare.ProvinceState{
			Name:           p.Name,
			Owner:          warfare.Tag(p.Owner),
			Controller:     warfare.Tag(p.Controller),
			FortLevel:      p.Fort,
			IsMothballed:   p.Mothballed,
			IsSea:          p.Sea,
			BaseTax:        p.Tax,
			BaseProduction: p.Production,
			BaseManpower:   p.Manpower,
		}
	}

	for _, l := range s.Generals {
		if err := addLeader(ws, l, ws.Generals, warfare.GeneralID(l.ID)); err != nil {
			return nil, nil, fmt.Errorf("general %d: %w", l.ID, err)
		}
	}
	for _, l := range s.Admirals {
		if err := addLeader(ws, l, ws.Admirals, warfare.AdmiralID(l.ID)); err != nil {
			return nil, nil, fmt.Errorf("admiral %d: %w", l.ID, err)
		}
	}

	for _, a := range s.Armies {
		army, err := buildArmy(ws, a)
		if err != nil {
			return nil, nil, fmt.Errorf("army %d: %w", a.ID, err)
		}
		ws.Armies[army.ID] = army
	}
	for _, f := range s.Fleets {
		fleet, err := buildFleet(ws, f, d)
		if err != nil {
			return nil, nil, fmt.Errorf("fleet %d: %w", f.ID, err)
		}
		ws.Fleets[fleet.ID] = fleet
	}

	for _, a := range s.Access {
		if !ws.CountryExists(warfare.Tag(a.Grantor)) || !ws.CountryExists(warfare.Tag(a.Receiver)) {
			return nil, nil, fmt.Errorf("access %s>%s: unknown country", a.Grantor, a.Receiver)
		}
		ws.Diplomacy.GrantMilitaryAccess(warfare.Tag(a.Grantor), warfare.Tag(a.Receiver))
	}
	for _, t := range s.Truces {
		if !ws.CountryExists(warfare.Tag(t.A)) || !ws.CountryExists(warfare.Tag(t.B)) {
			return nil, nil, fmt.Errorf("truce %s|%s: unknown country", t.A, t.B)
		}
		ws.Diplomacy.CreateTruce(warfare.Tag(t.A), warfare.Tag(t.B), t.Expires)
	}
	for i, w := range s.Wars {
		war, err := buildWar(ws, w, s.Start)
		if err != nil {
			return nil, nil, fmt.Errorf("war %d: %w", i, err)
		}
		ws.Diplomacy.AddWar(war)
	}

	return ws, g, nil
}

func addLeader[K comparable](ws *warfare.WorldState, l LeaderDef, into map[K]*warfare.Leader, id K) error {
	if _, dup := into[id]; dup {
		return errors.New("duplicate id")
	}
	if !ws.CountryExists(warfare.Tag(l.Owner)) {
		return fmt.Errorf("unknown owner %s", l.Owner)
	}
	into[id] = &warfare.Leader{
		Owner: warfare.Tag(l.Owner), Name: l.Name,
		Fire: l.Fire, Shock: l.Shock, Maneuver: l.Maneuver, Siege: l.Siege,
	}
	return nil
}

func buildArmy(ws *warfare.WorldState, a ArmyDef) (*warfare.Army, error) {
	id := warfare.ArmyID(a.ID)
	if _, dup := ws.Armies[id]; dup {
		return nil, errors.New("duplicate id")
	}
	owner := warfare.Tag(a.Owner)
	if !ws.CountryExists(owner) {
		return nil, fmt.Errorf("unknown owner %s", a.Owner)
	}
	loc := ws.Provinces[warfare.ProvinceID(a.Location)]
	if loc == nil || loc.IsSea {
		return nil, fmt.Errorf("invalid location %d", a.Location)
	}
	army := &warfare.Army{ID: id, Name: a.Name, Owner: owner, Location: warfare.ProvinceID(a.Location)}
	for _, r := range []struct {
		t warfare.RegimentType
		n int
	}{{warfare.Infantry, a.Infantry}, {warfare.Cavalry, a.Cavalry}, {warfare.Artillery, a.Artillery}} {
		for range r.n {
			army.Regiments = append(army.Regiments, warfare.Regiment{Type: r.t, Strength: DefaultRegimentStrength})
		}
	}
	if a.General != 0 {
		gid := warfare.GeneralID(a.General)
		if l := ws.Generals[gid]; l == nil || l.Owner != owner {
			return nil, fmt.Errorf("general %d not available to %s", a.General, owner)
		}
		army.General = &gid
	}
	return army, nil
}

func buildFleet(ws *warfare.WorldState, f FleetDef, d *warfare.Defines) (*warfare.Fleet, error) {
	id := warfare.FleetID(f.ID)
	if _, dup := ws.Fleets[id]; dup {
		return nil, errors.New("duplicate id")
	}
	owner := warfare.Tag(f.Owner)
	if !ws.CountryExists(owner) {
		return nil, fmt.Errorf("unknown owner %s", f.Owner)
	}
	loc := ws.Provinces[warfare.ProvinceID(f.Location)]
	if loc == nil || !loc.IsSea {
		return nil, fmt.Errorf("invalid location %d", f.Location)
	}
	fleet := &warfare.Fleet{ID: id, Name: f.Name, Owner: owner, Location: warfare.ProvinceID(f.Location)}
	for _, s := range []struct {
		t warfare.ShipType
		n int
	}{{warfare.HeavyShip, f.Heavy}, {warfare.LightShip, f.Light}, {warfare.Galley, f.Galley}, {warfare.Transport, f.Transport}} {
		for range s.n {
			fleet.Ships = append(fleet.Ships, warfare.NewShip(s.t, d))
		}
	}
	if f.Admiral != 0 {
		aid := warfare.AdmiralID(f.Admiral)
		if l := ws.Admirals[aid]; l == nil || l.Owner != owner {
			return nil, fmt.Errorf("admiral %d not available to %s", f.Admiral, owner)
		}
		fleet.Admiral = &aid
	}
	return fleet, nil
}

func buildWar(ws *warfare.WorldState, w WarDef, start warfare.Date) (*warfare.War, error) {
	if len(w.Attackers) == 0 || len(w.Defenders) == 0 {
		return nil, errors.New("both sides need at least one member")
	}
	war := &warfare.War{Name: w.Name, CasusBelli: w.CasusBelli, StartDate: start}
	if w.Start != nil {
		war.StartDate = *w.Start
	}
	seen := make(map[string]bool)
	for _, side := range []struct {
		tags []string
		into *[]warfare.Tag
	}{{w.Attackers, &war.Attackers}, {w.Defenders, &war.Defenders}} {
		for _, t := range side.tags {
			if !ws.CountryExists(warfare.Tag(t)) {
				return nil, fmt.Errorf("unknown country %s", t)
			}
			if seen[t] {
				return nil, fmt.Errorf("%s listed twice", t)
			}
			seen[t] = true
			*side.into = append(*side.into, warfare.Tag(t))
		}
	}
	if war.Name == "" {
		war.Name = fmt.Sprintf("%s-%s War", war.Attackers[0], war.Defenders[0])
	}
	return war, nil
}
