package warfare

// RunMovementTick advances every marching army and sailing fleet by a day.
// Units arrive when their progress reaches the required days. Fleets locked
// in battle do not move.
func RunMovementTick(ws *WorldState) {
	for _, id := range sortedKeys(ws.Armies) {
		a := ws.Armies[id]
		if a.Movement == nil {
			continue
		}
		a.Movement.Progress++
		if a.Movement.Progress >= a.Movement.Required {
			a.Location = a.Movement.Destination
			a.Movement = nil
		}
	}
	for _, id := range sortedKeys(ws.Fleets) {
		f := ws.Fleets[id]
		if f.Movement == nil || f.InBattle != nil {
			continue
		}
		f.Movement.Progress++
		if f.Movement.Progress >= f.Movement.Required {
			f.Location = f.Movement.Destination
			f.Movement = nil
		}
	}
}
