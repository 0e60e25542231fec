package warfare

import (
	"cmp"
	"maps"
	"slices"
)

// Tag identifies a country. The empty tag means "no country".
type Tag string

// Identifier types. All cross references inside a WorldState use these.
type (
	ProvinceID    int
	ArmyID        int
	FleetID       int
	WarID         int
	NavalBattleID int
	GeneralID     int
	AdmiralID     int
)

// ShipType is the hull class of a ship.
type ShipType string

const (
	HeavyShip ShipType = "heavy_ship"
	LightShip ShipType = "light_ship"
	Galley    ShipType = "galley"
	Transport ShipType = "transport"
)

// RegimentType is the arm of a land regiment.
type RegimentType string

const (
	Infantry  RegimentType = "infantry"
	Cavalry   RegimentType = "cavalry"
	Artillery RegimentType = "artillery"
)

// ProvinceState is the mutable state of one province.
type ProvinceState struct {
	Name           string `json:"name"`
	Owner          Tag    `json:"owner,omitempty"`
	Controller     Tag    `json:"controller,omitempty"`
	FortLevel      int    `json:"fortLevel,omitempty"`
	IsMothballed   bool   `json:"isMothballed,omitempty"`
	IsSea          bool   `json:"isSea,omitempty"`
	BaseTax        Fixed  `json:"baseTax"`
	BaseProduction Fixed  `json:"baseProduction"`
	BaseManpower   Fixed  `json:"baseManpower"`
}

// Development is the sum of the three base development values.
func (p *ProvinceState) Development() Fixed {
	return p.BaseTax + p.BaseProduction + p.BaseManpower
}

// Holder returns the controller, falling back to the owner.
func (p *ProvinceState) Holder() Tag {
	if p.Controller != "" {
		return p.Controller
	}
	return p.Owner
}

// Country is per-country diplomatic bookkeeping.
type Country struct {
	Tag                  Tag            `json:"tag"`
	Name                 string         `json:"name"`
	LastDiplomaticAction *Date          `json:"lastDiplomaticAction,omitempty"`
	PeaceOfferCooldowns  map[WarID]Date `json:"peaceOfferCooldowns,omitempty"`
}

// Movement is an in-progress move of a unit to an adjacent province.
type Movement struct {
	Destination ProvinceID `json:"destination"`
	Progress    int        `json:"progress"`
	Required    int        `json:"required"`
}

// Regiment is one land regiment. Strength is in men.
type Regiment struct {
	Type     RegimentType `json:"type"`
	Strength Fixed        `json:"strength"`
}

// Army is a land force.
type Army struct {
	ID        ArmyID     `json:"id"`
	Name      string     `json:"name"`
	Owner     Tag        `json:"owner"`
	Location  ProvinceID `json:"location"`
	Regiments []Regiment `json:"regiments"`
	General   *GeneralID `json:"general,omitempty"`
	Movement  *Movement  `json:"movement,omitempty"`
}

// CountRegiments returns the number of regiments of type t.
func (a *Army) CountRegiments(t RegimentType) int {
	n := 0
	for _, r := range a.Regiments {
		if r.Type == t {
			n++
		}
	}
	return n
}

// Ship is one vessel of a fleet.
type Ship struct {
	Type       ShipType `json:"type"`
	Hull       Fixed    `json:"hull"`
	Durability Fixed    `json:"durability"`
}

// NewShip returns an undamaged ship of type t.
func NewShip(t ShipType, d *Defines) Ship {
	d = orDefault(d)
	hull := d.Profile(t).HullSize
	return Ship{Type: t, Hull: hull, Durability: hull.Mul(d.ShipDurabilityPerHull)}
}

// Fleet is a naval force. InBattle is set while the fleet fights.
type Fleet struct {
	ID       FleetID        `json:"id"`
	Name     string         `json:"name"`
	Owner    Tag            `json:"owner"`
	Location ProvinceID     `json:"location"`
	Ships    []Ship         `json:"ships"`
	Admiral  *AdmiralID     `json:"admiral,omitempty"`
	InBattle *NavalBattleID `json:"inBattle,omitempty"`
	Movement *Movement      `json:"movement,omitempty"`
}

// Leader holds the pips of a general or admiral.
type Leader struct {
	Owner    Tag    `json:"owner"`
	Name     string `json:"name"`
	Fire     int    `json:"fire"`
	Shock    int    `json:"shock"`
	Maneuver int    `json:"maneuver"`
	Siege    int    `json:"siege"`
}

// WorldState is a complete snapshot of the simulation. Step never mutates a
// snapshot it was given; it works on a Clone.
type WorldState struct {
	Date              Date                           `json:"date"`
	StartDate         Date                           `json:"startDate"`
	RNG               uint64                         `json:"rng"`
	Countries         map[Tag]*Country               `json:"countries"`
	Provinces         map[ProvinceID]*ProvinceState  `json:"provinces"`
	Armies            map[ArmyID]*Army               `json:"armies"`
	Fleets            map[FleetID]*Fleet             `json:"fleets"`
	Generals          map[GeneralID]*Leader          `json:"generals"`
	Admirals          map[AdmiralID]*Leader          `json:"admirals"`
	Diplomacy         DiplomacyState                 `json:"diplomacy"`
	Sieges            map[ProvinceID]*Siege          `json:"sieges"`
	NavalBattles      map[NavalBattleID]*NavalBattle `json:"navalBattles"`
	FinishedBattles   []NavalBattle                  `json:"finishedBattles,omitempty"`
	NextNavalBattleID NavalBattleID                  `json:"nextNavalBattleId"`
	NextSiegeID       int                            `json:"nextSiegeId"`
}

// NewWorldState returns an empty world starting on start with the given seed.
func NewWorldState(start Date, seed uint64) *WorldState {
	return &WorldState{
		Date:              start,
		StartDate:         start,
		RNG:               seed,
		Countries:         make(map[Tag]*Country),
		Provinces:         make(map[ProvinceID]*ProvinceState),
		Armies:            make(map[ArmyID]*Army),
		Fleets:            make(map[FleetID]*Fleet),
		Generals:          make(map[GeneralID]*Leader),
		Admirals:          make(map[AdmiralID]*Leader),
		Diplomacy:         NewDiplomacyState(),
		Sieges:            make(map[ProvinceID]*Siege),
		NavalBattles:      make(map[NavalBattleID]*NavalBattle),
		NextNavalBattleID: 1,
		NextSiegeID:       1,
	}
}

// Tick returns the number of days elapsed since the start date.
func (ws *WorldState) Tick() int { return ws.StartDate.DaysUntil(ws.Date) }

// AddCountry registers a country if it does not already exist.
func (ws *WorldState) AddCountry(tag Tag, name string) *Country {
	if c, ok := ws.Countries[tag]; ok {
		return c
	}
	c := &Country{Tag: tag, Name: name}
	ws.Countries[tag] = c
	return c
}

// CountryExists reports whether tag is a live country.
func (ws *WorldState) CountryExists(tag Tag) bool {
	_, ok := ws.Countries[tag]
	return ok
}

// TotalDevelopment sums the development of provinces owned by any of tags.
func (ws *WorldState) TotalDevelopment(tags []Tag) Fixed {
	var total Fixed
	for _, id := range sortedKeys(ws.Provinces) {
		p := ws.Provinces[id]
		if slices.Contains(tags, p.Owner) {
			total += p.Development()
		}
	}
	return total
}

// ProvincesOwnedBy returns the sorted provinces owned by tag.
func (ws *WorldState) ProvincesOwnedBy(tag Tag) []ProvinceID {
	var out []ProvinceID
	for _, id := range sortedKeys(ws.Provinces) {
		if ws.Provinces[id].Owner == tag {
			out = append(out, id)
		}
	}
	return out
}

// ArmiesIn returns the sorted armies located in p.
func (ws *WorldState) ArmiesIn(p ProvinceID) []ArmyID {
	var out []ArmyID
	for _, id := range sortedKeys(ws.Armies) {
		if ws.Armies[id].Location == p {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (ws *WorldState) Clone() *WorldState {
	c := *ws
	c.Countries = cloneMap(ws.Countries, func(v *Country) *Country {
		cc := *v
		cc.LastDiplomaticAction = clonePtr(v.LastDiplomaticAction)
		cc.PeaceOfferCooldowns = maps.Clone(v.PeaceOfferCooldowns)
		return &cc
	})
	c.Provinces = cloneMap(ws.Provinces, func(v *ProvinceState) *ProvinceState {
		cc := *v
		return &cc
	})
	c.Armies = cloneMap(ws.Armies, func(v *Army) *Army {
		cc := *v
		cc.Regiments = slices.Clone(v.Regiments)
		cc.General = clonePtr(v.General)
		cc.Movement = clonePtr(v.Movement)
		return &cc
	})
	c.Fleets = cloneMap(ws.Fleets, func(v *Fleet) *Fleet {
		cc := *v
		cc.Ships = slices.Clone(v.Ships)
		cc.Admiral = clonePtr(v.Admiral)
		cc.InBattle = clonePtr(v.InBattle)
		cc.Movement = clonePtr(v.Movement)
		return &cc
	})
	c.Generals = cloneMap(ws.Generals, func(v *Leader) *Leader { cc := *v; return &cc })
	c.Admirals = cloneMap(ws.Admirals, func(v *Leader) *Leader { cc := *v; return &cc })
	c.Diplomacy = ws.Diplomacy.Clone()
	c.Sieges = cloneMap(ws.Sieges, func(v *Siege) *Siege {
		cc := *v
		cc.BesiegingArmies = slices.Clone(v.BesiegingArmies)
		return &cc
	})
	c.NavalBattles = cloneMap(ws.NavalBattles, func(v *NavalBattle) *NavalBattle {
		cc := *v
		cc.Attackers = slices.Clone(v.Attackers)
		cc.Defenders = slices.Clone(v.Defenders)
		cc.Result = clonePtr(v.Result)
		return &cc
	})
	c.FinishedBattles = nil
	for _, b := range ws.FinishedBattles {
		cc := b
		cc.Attackers = slices.Clone(b.Attackers)
		cc.Defenders = slices.Clone(b.Defenders)
		cc.Result = clonePtr(b.Result)
		c.FinishedBattles = append(c.FinishedBattles, cc)
	}
	return &c
}

func cloneMap[K comparable, V any](m map[K]V, f func(V) V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = f(v)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptr[T any](v T) *T { return &v }

// sortedKeys returns the keys of m in ascending order. Every decision that
// iterates a map goes through this so replays stay deterministic.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
