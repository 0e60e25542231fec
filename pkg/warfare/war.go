package warfare

import (
	"maps"
	"slices"
)

// Side is one side of a war.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideAttacker {
		return SideDefender
	}
	return SideAttacker
}

// PeaceKind selects the terms of a peace deal.
type PeaceKind string

const (
	WhitePeace     PeaceKind = "white_peace"
	TakeProvinces  PeaceKind = "take_provinces"
	FullAnnexation PeaceKind = "full_annexation"
)

// PeaceTerms is a peace deal. Provinces is only used by TakeProvinces.
type PeaceTerms struct {
	Kind      PeaceKind    `json:"kind"`
	Provinces []ProvinceID `json:"provinces,omitempty"`
}

// PendingPeace is an offer waiting for the other side's answer.
type PendingPeace struct {
	FromAttacker bool       `json:"fromAttacker"`
	Offerer      Tag        `json:"offerer"`
	Terms        PeaceTerms `json:"terms"`
	OfferedOn    Date       `json:"offeredOn"`
}

// War is an active conflict between two sides.
type War struct {
	ID                  WarID         `json:"id"`
	Name                string        `json:"name"`
	Attackers           []Tag         `json:"attackers"`
	Defenders           []Tag         `json:"defenders"`
	StartDate           Date          `json:"startDate"`
	CasusBelli          string        `json:"casusBelli,omitempty"`
	AttackerScore       int           `json:"attackerScore"`
	AttackerBattleScore int           `json:"attackerBattleScore"`
	DefenderScore       int           `json:"defenderScore"`
	DefenderBattleScore int           `json:"defenderBattleScore"`
	PendingPeace        *PendingPeace `json:"pendingPeace,omitempty"`
}

// SideOf returns the side tag fights on.
func (w *War) SideOf(tag Tag) (Side, bool) {
	switch {
	case slices.Contains(w.Attackers, tag):
		return SideAttacker, true
	case slices.Contains(w.Defenders, tag):
		return SideDefender, true
	}
	return "", false
}

// Members returns the tags on side s.
func (w *War) Members(s Side) []Tag {
	if s == SideAttacker {
		return w.Attackers
	}
	return w.Defenders
}

// IsParticipant reports whether tag fights in the war.
func (w *War) IsParticipant(tag Tag) bool {
	_, ok := w.SideOf(tag)
	return ok
}

// Opposed reports whether a and b are on opposite sides of this war.
func (w *War) Opposed(a, b Tag) bool {
	sa, okA := w.SideOf(a)
	sb, okB := w.SideOf(b)
	return okA && okB && sa != sb
}

// Leader returns the first tag on side s.
func (w *War) Leader(s Side) Tag {
	m := w.Members(s)
	if len(m) == 0 {
		return ""
	}
	return m[0]
}

// Score returns the total score of side s.
func (w *War) Score(s Side) int {
	if s == SideAttacker {
		return w.AttackerScore
	}
	return w.DefenderScore
}

func (w *War) clone() *War {
	c := *w
	c.Attackers = slices.Clone(w.Attackers)
	c.Defenders = slices.Clone(w.Defenders)
	if w.PendingPeace != nil {
		p := *w.PendingPeace
		p.Terms.Provinces = slices.Clone(w.PendingPeace.Terms.Provinces)
		c.PendingPeace = &p
	}
	return &c
}

// Truce forbids war between A and B (sorted) until Expires.
type Truce struct {
	A       Tag  `json:"a"`
	B       Tag  `json:"b"`
	Expires Date `json:"expires"`
}

// DiplomacyState is the war ledger: active wars, truces and access grants.
type DiplomacyState struct {
	Wars           map[WarID]*War   `json:"wars"`
	Truces         map[string]Truce `json:"truces"`
	MilitaryAccess map[string]bool  `json:"militaryAccess,omitempty"`
	NextWarID      WarID            `json:"nextWarId"`
}

// NewDiplomacyState returns an empty ledger.
func NewDiplomacyState() DiplomacyState {
	return DiplomacyState{
		Wars:           make(map[WarID]*War),
		Truces:         make(map[string]Truce),
		MilitaryAccess: make(map[string]bool),
		NextWarID:      1,
	}
}

// Clone deep-copies the ledger.
func (d DiplomacyState) Clone() DiplomacyState {
	c := d
	c.Wars = cloneMap(d.Wars, (*War).clone)
	c.Truces = maps.Clone(d.Truces)
	c.MilitaryAccess = maps.Clone(d.MilitaryAccess)
	return c
}

func sortedPair(a, b Tag) (Tag, Tag) {
	if b < a {
		return b, a
	}
	return a, b
}

func truceKey(a, b Tag) string {
	x, y := sortedPair(a, b)
	return string(x) + "|" + string(y)
}

// AddWar allocates the next war id and stores w under it.
func (d *DiplomacyState) AddWar(w *War) WarID {
	if d.NextWarID < 1 {
		d.NextWarID = 1
	}
	w.ID = d.NextWarID
	d.NextWarID++
	d.Wars[w.ID] = w
	return w.ID
}

// War returns the war with id, or nil.
func (d *DiplomacyState) War(id WarID) *War { return d.Wars[id] }

// RemoveWar deletes a war from the ledger.
func (d *DiplomacyState) RemoveWar(id WarID) { delete(d.Wars, id) }

// WarIDs returns active war ids in ascending order.
func (d *DiplomacyState) WarIDs() []WarID { return sortedKeys(d.Wars) }

// WarsOf returns the wars tag participates in, ordered by id.
func (d *DiplomacyState) WarsOf(tag Tag) []*War {
	var out []*War
	for _, id := range d.WarIDs() {
		if w := d.Wars[id]; w.IsParticipant(tag) {
			out = append(out, w)
		}
	}
	return out
}

// AreAtWar reports whether a and b are on opposite sides of any war.
func (d *DiplomacyState) AreAtWar(a, b Tag) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	for _, w := range d.Wars {
		if w.Opposed(a, b) {
			return true
		}
	}
	return false
}

// WarBetween returns the lowest-id war where a and b are opposed.
func (d *DiplomacyState) WarBetween(a, b Tag) *War {
	for _, id := range d.WarIDs() {
		if w := d.Wars[id]; w.Opposed(a, b) {
			return w
		}
	}
	return nil
}

// IsAtWar reports whether tag participates in any war.
func (d *DiplomacyState) IsAtWar(tag Tag) bool {
	for _, w := range d.Wars {
		if w.IsParticipant(tag) {
			return true
		}
	}
	return false
}

// CreateTruce records a truce between a and b, replacing any existing one.
func (d *DiplomacyState) CreateTruce(a, b Tag, expires Date) {
	x, y := sortedPair(a, b)
	d.Truces[truceKey(a, b)] = Truce{A: x, B: y, Expires: expires}
}

// TruceExpiry returns the expiry of the truce between a and b, if any is
// active on date.
func (d *DiplomacyState) TruceExpiry(a, b Tag, date Date) (Date, bool) {
	t, ok := d.Truces[truceKey(a, b)]
	if !ok || !t.Expires.After(date) {
		return Date{}, false
	}
	return t.Expires, true
}

// HasActiveTruce reports whether a truce between a and b is in force on date.
func (d *DiplomacyState) HasActiveTruce(a, b Tag, date Date) bool {
	_, ok := d.TruceExpiry(a, b, date)
	return ok
}

func accessKey(grantor, receiver Tag) string { return string(grantor) + ">" + string(receiver) }

// GrantMilitaryAccess lets receiver's armies cross grantor's land.
func (d *DiplomacyState) GrantMilitaryAccess(grantor, receiver Tag) {
	if d.MilitaryAccess == nil {
		d.MilitaryAccess = make(map[string]bool)
	}
	d.MilitaryAccess[accessKey(grantor, receiver)] = true
}

// RevokeMilitaryAccess removes a grant.
func (d *DiplomacyState) RevokeMilitaryAccess(grantor, receiver Tag) {
	delete(d.MilitaryAccess, accessKey(grantor, receiver))
}

// HasMilitaryAccess reports whether receiver may cross grantor's land.
func (d *DiplomacyState) HasMilitaryAccess(grantor, receiver Tag) bool {
	return d.MilitaryAccess[accessKey(grantor, receiver)]
}

// removeCountry drops tag from every war. Wars left with an empty side are
// deleted and their ids returned.
func (d *DiplomacyState) removeCountry(tag Tag) []WarID {
	var ended []WarID
	for _, id := range d.WarIDs() {
		w := d.Wars[id]
		w.Attackers = slices.DeleteFunc(w.Attackers, func(t Tag) bool { return t == tag })
		w.Defenders = slices.DeleteFunc(w.Defenders, func(t Tag) bool { return t == tag })
		if w.PendingPeace != nil && w.PendingPeace.Offerer == tag {
			w.PendingPeace = nil
		}
		if len(w.Attackers) == 0 || len(w.Defenders) == 0 {
			delete(d.Wars, id)
			ended = append(ended, id)
		}
	}
	for k := range d.MilitaryAccess {
		if g, r, ok := splitAccessKey(k); ok && (g == tag || r == tag) {
			delete(d.MilitaryAccess, k)
		}
	}
	return ended
}

func splitAccessKey(k string) (Tag, Tag, bool) {
	for i := 0; i < len(k); i++ {
		if k[i] == '>' {
			return Tag(k[:i]), Tag(k[i+1:]), true
		}
	}
	return "", "", false
}
