// Package warfare resolves wars, sieges, naval battles and peace deals one
// simulated day at a time.
package warfare

import "github.com/rs/zerolog/log"

// Step advances prev by one day and returns the new snapshot together with
// the outcome of every submitted command. prev is not modified.
//
// Order: date advance, commands (in input order), movement, naval combat,
// sieges, monthly stale-war check, war score recalculation.
func Step(prev *WorldState, inputs []CountryCommands, g *AdjacencyGraph, d *Defines) (*WorldState, []CommandResult) {
	d = orDefault(d)
	ws := prev.Clone()
	ws.Date = prev.Date.AddDays(1)
	ws.FinishedBattles = nil

	var results []CommandResult
	for _, in := range inputs {
		for _, cmd := range in.Commands {
			err := ExecuteCommand(ws, in.Country, cmd, g, d)
			if err != nil {
				log.Debug().Err(err).Str("country", string(in.Country)).Str("command", cmd.Describe()).
					Msg("Command rejected")
			}
			results = append(results, CommandResult{Country: in.Country, Command: cmd, Err: err})
		}
	}

	RunMovementTick(ws)
	RunNavalTick(ws, d)
	RunSiegeTick(ws, g, d)
	if ws.Date.IsMonthStart() {
		endStaleWars(ws, d)
	}
	RecalculateWarScores(ws, d)
	return ws, results
}

// Run advances ws by n days with no commands.
func Run(ws *WorldState, n int, g *AdjacencyGraph, d *Defines) *WorldState {
	for range n {
		ws, _ = Step(ws, nil, g, d)
	}
	return ws
}
