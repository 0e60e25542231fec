package warfare

import (
	"slices"

	"github.com/rs/zerolog/log"
)

// CombatPhase alternates every few days of a battle.
type CombatPhase string

const (
	PhaseFire  CombatPhase = "fire"
	PhaseShock CombatPhase = "shock"
)

// BattleResult is the terminal outcome of a battle.
type BattleResult string

const (
	AttackerVictory BattleResult = "attacker_victory"
	DefenderVictory BattleResult = "defender_victory"
)

// NavalBattle is an engagement between hostile fleets in one sea zone.
type NavalBattle struct {
	ID             NavalBattleID `json:"id"`
	SeaZone        ProvinceID    `json:"seaZone"`
	StartDate      Date          `json:"startDate"`
	Phase          CombatPhase   `json:"phase"`
	PhaseDay       int           `json:"phaseDay"`
	AttackerDice   int           `json:"attackerDice"`
	DefenderDice   int           `json:"defenderDice"`
	AttackerTag    Tag           `json:"attackerTag"`
	DefenderTag    Tag           `json:"defenderTag"`
	Attackers      []FleetID     `json:"attackers"`
	Defenders      []FleetID     `json:"defenders"`
	AttackerLosses int           `json:"attackerLosses"`
	DefenderLosses int           `json:"defenderLosses"`
	Result         *BattleResult `json:"result,omitempty"`
}

func (b *NavalBattle) fleets(attacker bool) []FleetID {
	if attacker {
		return b.Attackers
	}
	return b.Defenders
}

// RunNavalTick advances naval combat by one day: reinforcements join, new
// battles start, live battles resolve a day, finished battles are cleared.
func RunNavalTick(ws *WorldState, d *Defines) {
	d = orDefault(d)
	processReinforcements(ws)
	startNewBattles(ws, d)
	for _, id := range sortedKeys(ws.NavalBattles) {
		if b := ws.NavalBattles[id]; b.Result == nil {
			tickNavalBattle(ws, b, d)
		}
	}
	cleanupNavalBattles(ws, d)
}

func sideOwners(ws *WorldState, ids []FleetID) []Tag {
	var out []Tag
	for _, id := range ids {
		if f := ws.Fleets[id]; f != nil && !slices.Contains(out, f.Owner) {
			out = append(out, f.Owner)
		}
	}
	return out
}

// processReinforcements lets idle fleets join a live battle in their zone on
// the side their owner already fights on.
func processReinforcements(ws *WorldState) {
	for _, fid := range sortedKeys(ws.Fleets) {
		f := ws.Fleets[fid]
		if f.InBattle != nil && ws.NavalBattles[*f.InBattle] == nil {
			brokenInvariant("Fleet in unknown naval battle", map[string]any{"fleet": int(fid), "battle": int(*f.InBattle)})
			f.InBattle = nil
		}
	}
	for _, bid := range sortedKeys(ws.NavalBattles) {
		b := ws.NavalBattles[bid]
		if b.Result != nil {
			continue
		}
		attOwners, defOwners := sideOwners(ws, b.Attackers), sideOwners(ws, b.Defenders)
		for _, fid := range sortedKeys(ws.Fleets) {
			f := ws.Fleets[fid]
			if f.InBattle != nil || f.Location != b.SeaZone || len(f.Ships) == 0 {
				continue
			}
			switch {
			case slices.Contains(attOwners, f.Owner):
				b.Attackers = append(b.Attackers, fid)
			case slices.Contains(defOwners, f.Owner):
				b.Defenders = append(b.Defenders, fid)
			default:
				continue
			}
			f.InBattle = ptr(bid)
			f.Movement = nil
		}
	}
}

// startNewBattles pairs idle fleets of hostile owners sharing a sea zone.
func startNewBattles(ws *WorldState, d *Defines) {
	byZone := make(map[ProvinceID]map[Tag][]FleetID)
	for _, fid := range sortedKeys(ws.Fleets) {
		f := ws.Fleets[fid]
		if f.InBattle != nil || len(f.Ships) == 0 {
			continue
		}
		if byZone[f.Location] == nil {
			byZone[f.Location] = make(map[Tag][]FleetID)
		}
		byZone[f.Location][f.Owner] = append(byZone[f.Location][f.Owner], fid)
	}

	for _, zone := range sortedKeys(byZone) {
		owners := sortedKeys(byZone[zone])
		engaged := make(map[Tag]bool)
		for i, a := range owners {
			for _, b := range owners[i+1:] {
				if engaged[a] || engaged[b] || !ws.Diplomacy.AreAtWar(a, b) {
					continue
				}
				att, def := a, b
				if w := ws.Diplomacy.WarBetween(a, b); w != nil {
					if s, _ := w.SideOf(a); s == SideDefender {
						att, def = b, a
					}
				}
				startNavalBattle(ws, zone, att, def, byZone[zone][att], byZone[zone][def], d)
				engaged[a], engaged[b] = true, true
			}
		}
	}
}

func startNavalBattle(ws *WorldState, zone ProvinceID, att, def Tag, attackers, defenders []FleetID, d *Defines) {
	id := ws.NextNavalBattleID
	if id < 1 {
		id = 1
	}
	ws.NextNavalBattleID = id + 1
	b := &NavalBattle{
		ID:           id,
		SeaZone:      zone,
		StartDate:    ws.Date,
		Phase:        PhaseFire,
		AttackerDice: ws.rollDie(d.DiceMax + 1),
		DefenderDice: ws.rollDie(d.DiceMax + 1),
		AttackerTag:  att,
		DefenderTag:  def,
		Attackers:    slices.Clone(attackers),
		Defenders:    slices.Clone(defenders),
	}
	for _, fid := range slices.Concat(attackers, defenders) {
		f := ws.Fleets[fid]
		f.InBattle = ptr(id)
		f.Movement = nil
	}
	ws.NavalBattles[id] = b
	log.Debug().Int("battleId", int(id)).Int("seaZone", int(zone)).Str("attacker", string(att)).
		Str("defender", string(def)).Msg("Naval battle started")
}

func tickNavalBattle(ws *WorldState, b *NavalBattle, d *Defines) {
	attHull, attDur := fleetDamage(ws, b, true, d)
	defHull, defDur := fleetDamage(ws, b, false, d)
	b.DefenderLosses += applyFleetDamage(ws, b.Defenders, attHull, attDur)
	b.AttackerLosses += applyFleetDamage(ws, b.Attackers, defHull, defDur)

	if checkNavalBattleEnd(ws, b) {
		return
	}
	if b.PhaseDay+1 >= d.NavalDaysPerPhase {
		if b.Phase == PhaseFire {
			b.Phase = PhaseShock
		} else {
			b.Phase = PhaseFire
		}
		b.PhaseDay = 0
		b.AttackerDice = ws.rollDie(d.DiceMax + 1)
		b.DefenderDice = ws.rollDie(d.DiceMax + 1)
		return
	}
	b.PhaseDay++
}

// admiralBonus returns the best admiral pip for the current phase.
func admiralBonus(ws *WorldState, ids []FleetID, phase CombatPhase) int {
	best := 0
	for _, id := range ids {
		f := ws.Fleets[id]
		if f == nil || f.Admiral == nil {
			continue
		}
		adm := ws.Admirals[*f.Admiral]
		if adm == nil {
			continue
		}
		pip := adm.Fire
		if phase == PhaseShock {
			pip = adm.Shock
		}
		best = max(best, pip)
	}
	return best
}

// fleetDamage returns the hull and durability damage one side deals today.
// Each ship contributes base * (dice + 5) / 10 * (hull / hull size).
func fleetDamage(ws *WorldState, b *NavalBattle, attacker bool, d *Defines) (Fixed, Fixed) {
	ids := b.fleets(attacker)
	dice := b.DefenderDice
	if attacker {
		dice = b.AttackerDice
	}
	dice = min(max(dice+admiralBonus(ws, ids, b.Phase), 0), d.DiceMax)
	diceFactor := FromRatio(int64(dice+5), 10)

	var total Fixed
	for _, id := range ids {
		f := ws.Fleets[id]
		if f == nil {
			continue
		}
		for _, s := range f.Ships {
			prof := d.Profile(s.Type)
			base := prof.Fire
			if b.Phase == PhaseShock {
				base = prof.Shock
			}
			total += base.Mul(diceFactor).Mul(s.Hull.Div(prof.HullSize))
		}
	}
	hull := total.Mul(d.NavalHullDamageScale)
	return hull, hull.Mul(d.DurabilityDamageMultiplier)
}

// applyFleetDamage spreads damage evenly over every ship on a side and
// returns the number of ships sunk.
func applyFleetDamage(ws *WorldState, ids []FleetID, hull, durability Fixed) int {
	ships := 0
	for _, id := range ids {
		if f := ws.Fleets[id]; f != nil {
			ships += len(f.Ships)
		}
	}
	if ships == 0 {
		return 0
	}
	hullEach := hull.DivInt(int64(ships))
	durEach := durability.DivInt(int64(ships))
	sunk := 0
	for _, id := range ids {
		f := ws.Fleets[id]
		if f == nil {
			continue
		}
		kept := f.Ships[:0]
		for _, s := range f.Ships {
			s.Hull = (s.Hull - hullEach).Max(Zero)
			s.Durability = (s.Durability - durEach).Max(Zero)
			if s.Durability <= Zero {
				sunk++
				continue
			}
			kept = append(kept, s)
		}
		f.Ships = kept
	}
	return sunk
}

func sideShips(ws *WorldState, ids []FleetID) int {
	n := 0
	for _, id := range ids {
		if f := ws.Fleets[id]; f != nil {
			n += len(f.Ships)
		}
	}
	return n
}

// checkNavalBattleEnd sets the result once a side has no ships left. If both
// sides sink on the same day the defender holds the zone.
func checkNavalBattleEnd(ws *WorldState, b *NavalBattle) bool {
	att, def := sideShips(ws, b.Attackers), sideShips(ws, b.Defenders)
	if att > 0 && def > 0 {
		return false
	}
	r := DefenderVictory
	if att > 0 {
		r = AttackerVictory
	}
	b.Result = &r
	return true
}

// cleanupNavalBattles removes finished battles, frees their fleets and
// awards battle score to the winner.
func cleanupNavalBattles(ws *WorldState, d *Defines) {
	for _, id := range sortedKeys(ws.NavalBattles) {
		b := ws.NavalBattles[id]
		if b.Result == nil {
			continue
		}
		for _, fid := range slices.Concat(b.Attackers, b.Defenders) {
			if f := ws.Fleets[fid]; f != nil {
				f.InBattle = nil
			}
		}
		winner, loser := b.AttackerTag, b.DefenderTag
		if *b.Result == DefenderVictory {
			winner, loser = loser, winner
		}
		if w := ws.Diplomacy.WarBetween(winner, loser); w != nil {
			side, _ := w.SideOf(winner)
			AwardBattleScore(ws, w, side, d)
		}
		ws.FinishedBattles = append(ws.FinishedBattles, *b)
		delete(ws.NavalBattles, id)
		log.Debug().Int("battleId", int(id)).Str("result", string(*b.Result)).
			Int("attackerLosses", b.AttackerLosses).Int("defenderLosses", b.DefenderLosses).
			Msg("Naval battle ended")
	}
}
