package warfare

import (
	"slices"

	"github.com/rs/zerolog/log"
)

// Siege tracks an attempt to take control of a province.
type Siege struct {
	ID               int        `json:"id"`
	Province         ProvinceID `json:"province"`
	Attacker         Tag        `json:"attacker"`
	Defender         Tag        `json:"defender"`
	FortLevel        int        `json:"fortLevel"`
	Garrison         int        `json:"garrison"`
	BesiegingArmies  []ArmyID   `json:"besiegingArmies"`
	ProgressModifier int        `json:"progressModifier"`
	DaysInPhase      int        `json:"daysInPhase"`
	StartDate        Date       `json:"startDate"`
	Blockaded        bool       `json:"blockaded,omitempty"`
	Breached         bool       `json:"breached,omitempty"`
}

func (s *Siege) addArmy(id ArmyID) {
	i, found := slices.BinarySearch(s.BesiegingArmies, id)
	if !found {
		s.BesiegingArmies = slices.Insert(s.BesiegingArmies, i, id)
	}
}

// RunSiegeTick detects new occupations, drops abandoned sieges and advances
// every siege by one day.
func RunSiegeTick(ws *WorldState, g *AdjacencyGraph, d *Defines) {
	d = orDefault(d)
	updateOccupation(ws, d)
	cleanupAbandonedSieges(ws)
	for _, id := range sortedKeys(ws.Sieges) {
		s := ws.Sieges[id]
		s.DaysInPhase++
		if s.DaysInPhase < d.SiegePhaseDays {
			continue
		}
		s.DaysInPhase = 0
		resolveSiegePhase(ws, s, g, d)
	}
}

// updateOccupation starts or joins a siege for every army standing in a land
// province held by a country its owner is at war with.
func updateOccupation(ws *WorldState, d *Defines) {
	for _, id := range sortedKeys(ws.Armies) {
		a := ws.Armies[id]
		p := ws.Provinces[a.Location]
		if p == nil || p.IsSea {
			continue
		}
		holder := p.Holder()
		if holder == "" || !ws.Diplomacy.AreAtWar(a.Owner, holder) {
			continue
		}
		if s := ws.Sieges[a.Location]; s != nil {
			if s.Defender == holder && (s.Attacker == a.Owner || ws.Diplomacy.AreAtWar(a.Owner, s.Defender)) {
				s.addArmy(id)
			}
			continue
		}
		s := &Siege{
			ID:              ws.NextSiegeID,
			Province:        a.Location,
			Attacker:        a.Owner,
			Defender:        holder,
			FortLevel:       p.FortLevel,
			Garrison:        p.FortLevel * d.GarrisonPerFortLevel,
			BesiegingArmies: []ArmyID{id},
			StartDate:       ws.Date,
		}
		if p.FortLevel <= 0 {
			// Unfortified land falls at the end of the first phase.
			s.ProgressModifier = d.SiegeWinThreshold
		}
		ws.NextSiegeID++
		ws.Sieges[a.Location] = s
		log.Debug().Int("province", int(a.Location)).Str("attacker", string(a.Owner)).
			Str("defender", string(holder)).Msg("Siege started")
	}
}

// cleanupAbandonedSieges removes sieges with no besieger left on site or
// whose belligerents are no longer at war.
func cleanupAbandonedSieges(ws *WorldState) {
	for _, pid := range sortedKeys(ws.Sieges) {
		s := ws.Sieges[pid]
		p := ws.Provinces[pid]
		if p == nil {
			brokenInvariant("Siege on unknown province", map[string]any{"province": int(pid)})
			delete(ws.Sieges, pid)
			continue
		}
		s.BesiegingArmies = slices.DeleteFunc(s.BesiegingArmies, func(id ArmyID) bool {
			a := ws.Armies[id]
			return a == nil || a.Location != pid || !ws.Diplomacy.AreAtWar(a.Owner, s.Defender)
		})
		if len(s.BesiegingArmies) == 0 || p.Holder() != s.Defender {
			delete(ws.Sieges, pid)
			continue
		}
		if !ws.Diplomacy.AreAtWar(s.Attacker, s.Defender) {
			s.Attacker = ws.Armies[s.BesiegingArmies[0]].Owner
		}
	}
}

// IsBlockaded reports whether every sea zone next to p holds a fleet of a
// country at war with defender. Landlocked provinces are never blockaded.
func IsBlockaded(ws *WorldState, p ProvinceID, defender Tag, g *AdjacencyGraph) bool {
	coastal := false
	for _, n := range g.Neighbors(p) {
		sea := ws.Provinces[n]
		if sea == nil || !sea.IsSea {
			continue
		}
		coastal = true
		found := false
		for _, fid := range sortedKeys(ws.Fleets) {
			f := ws.Fleets[fid]
			if f.Location == n && len(f.Ships) > 0 && ws.Diplomacy.AreAtWar(f.Owner, defender) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return coastal
}

func resolveSiegePhase(ws *WorldState, s *Siege, g *AdjacencyGraph, d *Defines) {
	s.Blockaded = IsBlockaded(ws, s.Province, s.Defender, g)
	if s.Blockaded && s.FortLevel > 0 {
		s.Garrison -= s.Garrison * d.StarvationPercent / 100
		if s.Garrison < d.GarrisonSurrenderThreshold {
			completeSiege(ws, s, "starvation")
			return
		}
	}

	roll := ws.rollDie(d.SiegeDie) + 1
	artillery, bestPip := 0, 0
	for _, id := range s.BesiegingArmies {
		a := ws.Armies[id]
		artillery += a.CountRegiments(Artillery) * d.ArtilleryBonusPerRegiment
		if a.General != nil {
			if gen := ws.Generals[*a.General]; gen != nil {
				bestPip = max(bestPip, gen.Siege)
			}
		}
	}
	total := roll + s.ProgressModifier + min(artillery, d.MaxArtilleryBonus) +
		bestPip*d.GeneralSiegeBonusPerPip - s.FortLevel
	if s.Blockaded {
		total += d.BlockadeBonus
	}

	switch roll {
	case 1:
		applyDisease(ws, s, d)
	case d.SiegeDie:
		s.Breached = true
	}

	if total >= d.SiegeWinThreshold {
		completeSiege(ws, s, "assault")
		return
	}
	if s.ProgressModifier < d.MaxSiegeProgress {
		s.ProgressModifier++
	}
}

func applyDisease(ws *WorldState, s *Siege, d *Defines) {
	for _, id := range s.BesiegingArmies {
		a := ws.Armies[id]
		for i := range a.Regiments {
			loss := a.Regiments[i].Strength.MulInt(int64(d.DiseaseCasualtyPercent)).DivInt(100)
			a.Regiments[i].Strength -= loss
		}
	}
}

// completeSiege hands control of the province to the attacker. Ownership is
// only ever changed by a peace deal.
func completeSiege(ws *WorldState, s *Siege, how string) {
	ws.Provinces[s.Province].Controller = s.Attacker
	delete(ws.Sieges, s.Province)
	log.Debug().Int("province", int(s.Province)).Str("controller", string(s.Attacker)).
		Str("how", how).Str("date", ws.Date.String()).Msg("Siege complete")
}
