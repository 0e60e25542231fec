package warfare

import "slices"

// AwardBattleScore credits side with a won battle, capped per side, and
// refreshes the side's total.
func AwardBattleScore(ws *WorldState, w *War, side Side, d *Defines) {
	d = orDefault(d)
	if side == SideAttacker {
		w.AttackerBattleScore = min(w.AttackerBattleScore+d.ScorePerBattle, d.MaxBattleScore)
	} else {
		w.DefenderBattleScore = min(w.DefenderBattleScore+d.ScorePerBattle, d.MaxBattleScore)
	}
	refreshWarScore(ws, w, d)
}

// OccupationScore returns side's occupation score in w: the share of the
// enemy side's development it controls, scaled to MaxOccupationScore and
// rounded half up.
func OccupationScore(ws *WorldState, w *War, side Side, d *Defines) int {
	d = orDefault(d)
	own, enemies := w.Members(side), w.Members(side.Opposite())
	var occupied, total int64
	for _, id := range sortedKeys(ws.Provinces) {
		p := ws.Provinces[id]
		if !slices.Contains(enemies, p.Owner) {
			continue
		}
		dev := p.Development().Raw()
		total += dev
		if p.Controller != p.Owner && slices.Contains(own, p.Controller) {
			occupied += dev
		}
	}
	if total <= 0 || occupied <= 0 {
		return 0
	}
	maxScore := int64(d.MaxOccupationScore)
	score := (2*occupied*maxScore + total) / (2 * total)
	return int(min(score, maxScore))
}

// RecalculateWarScores refreshes both sides' totals for every war.
func RecalculateWarScores(ws *WorldState, d *Defines) {
	d = orDefault(d)
	for _, id := range ws.Diplomacy.WarIDs() {
		refreshWarScore(ws, ws.Diplomacy.Wars[id], d)
	}
}

func refreshWarScore(ws *WorldState, w *War, d *Defines) {
	w.AttackerScore = min(d.MaxWarScore, w.AttackerBattleScore+OccupationScore(ws, w, SideAttacker, d))
	w.DefenderScore = min(d.MaxWarScore, w.DefenderBattleScore+OccupationScore(ws, w, SideDefender, d))
}
