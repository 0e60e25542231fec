package warfare

// IsBlockedByZoC reports whether an army of mover moving from -> to is stopped
// by an enemy fort's zone of control. A hostile fort neighboring from (other
// than to itself) blocks the move when it also neighbors to. Mothballed forts
// project no zone of control, and a mover at peace is never blocked.
func IsBlockedByZoC(ws *WorldState, from, to ProvinceID, mover Tag, g *AdjacencyGraph) bool {
	if !ws.Diplomacy.IsAtWar(mover) {
		return false
	}
	for _, f := range g.Neighbors(from) {
		if f == to {
			continue
		}
		p := ws.Provinces[f]
		if p == nil || p.FortLevel <= 0 || p.IsMothballed {
			continue
		}
		if !ws.Diplomacy.AreAtWar(mover, p.Holder()) {
			continue
		}
		if g.Adjacent(f, to) {
			return true
		}
	}
	return false
}
