package warfare

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

// ExecuteCommand validates cmd for country and applies it to ws. On error ws
// is left unchanged.
func ExecuteCommand(ws *WorldState, country Tag, cmd Command, g *AdjacencyGraph, d *Defines) error {
	d = orDefault(d)
	switch cmd.Type {
	case CmdDeclareWar:
		_, err := DeclareWar(ws, country, cmd.Target, cmd.CasusBelli, d)
		return err
	case CmdOfferPeace:
		terms := PeaceTerms{Kind: WhitePeace}
		if cmd.Terms != nil {
			terms = *cmd.Terms
		}
		return OfferPeace(ws, country, cmd.WarID, terms, d)
	case CmdAcceptPeace:
		return AcceptPeace(ws, country, cmd.WarID, d)
	case CmdRejectPeace:
		return RejectPeace(ws, country, cmd.WarID, d)
	case CmdMove:
		return MoveArmy(ws, country, cmd.ArmyID, cmd.Destination, g, d)
	case CmdMoveFleet:
		return MoveFleet(ws, country, cmd.FleetID, cmd.Destination, g, d)
	}
	return &ActionError{Kind: KindUnknownCommand, Country: country, Detail: string(cmd.Type)}
}

// ValidateCommand reports whether cmd would succeed against ws without
// modifying it.
func ValidateCommand(ws *WorldState, country Tag, cmd Command, g *AdjacencyGraph, d *Defines) error {
	return ExecuteCommand(ws.Clone(), country, cmd, g, d)
}

func checkDiplomaticCooldown(ws *WorldState, country Tag) error {
	c := ws.Countries[country]
	if c != nil && c.LastDiplomaticAction != nil && *c.LastDiplomaticAction == ws.Date {
		return &ActionError{Kind: KindDiplomaticActionCooldown, Country: country}
	}
	return nil
}

func markDiplomaticAction(ws *WorldState, country Tag) {
	if c := ws.Countries[country]; c != nil {
		c.LastDiplomaticAction = ptr(ws.Date)
	}
}

func validateDeclareWar(ws *WorldState, declarer, target Tag, d *Defines) error {
	if tick := ws.Tick(); tick < d.ImmunityDays {
		return &ActionError{Kind: KindFirstMonthImmunity, Country: declarer, Target: target,
			Detail: fmt.Sprintf("tick %d", tick)}
	}
	if err := checkDiplomaticCooldown(ws, declarer); err != nil {
		return err
	}
	if !ws.CountryExists(declarer) {
		return &ActionError{Kind: KindUnknownCountry, Country: declarer, Target: declarer}
	}
	if !ws.CountryExists(target) {
		return &ActionError{Kind: KindUnknownCountry, Country: declarer, Target: target}
	}
	if declarer == target {
		return &ActionError{Kind: KindSelfTargeting, Country: declarer, Target: target}
	}
	if ws.Diplomacy.AreAtWar(declarer, target) {
		return &ActionError{Kind: KindAlreadyAtWar, Country: declarer, Target: target}
	}
	if expires, ok := ws.Diplomacy.TruceExpiry(declarer, target, ws.Date); ok {
		return &ActionError{Kind: KindTruceActive, Country: declarer, Target: target, Expires: expires}
	}
	return nil
}

// DeclareWar opens a new war with declarer as attacker and target as defender.
func DeclareWar(ws *WorldState, declarer, target Tag, casusBelli string, d *Defines) (WarID, error) {
	d = orDefault(d)
	if err := validateDeclareWar(ws, declarer, target, d); err != nil {
		return 0, err
	}
	w := &War{
		Name:       fmt.Sprintf("%s vs %s", declarer, target),
		Attackers:  []Tag{declarer},
		Defenders:  []Tag{target},
		StartDate:  ws.Date,
		CasusBelli: casusBelli,
	}
	id := ws.Diplomacy.AddWar(w)
	markDiplomaticAction(ws, declarer)
	log.Debug().Int("warId", int(id)).Str("attacker", string(declarer)).Str("defender", string(target)).
		Str("date", ws.Date.String()).Msg("War declared")
	return id, nil
}

func validateMoveTarget(ws *WorldState, mover Tag, from, to ProvinceID, g *AdjacencyGraph) error {
	dest := ws.Provinces[to]
	if dest == nil {
		return &ActionError{Kind: KindProvinceNotFound, Country: mover, Province: to}
	}
	if !g.Adjacent(from, to) {
		return &ActionError{Kind: KindNotAdjacent, Country: mover, Province: to,
			Detail: fmt.Sprintf("%d is not adjacent to %d", to, from)}
	}
	return nil
}

func validateMoveArmy(ws *WorldState, country Tag, armyID ArmyID, to ProvinceID, g *AdjacencyGraph) error {
	a := ws.Armies[armyID]
	if a == nil {
		return &ActionError{Kind: KindArmyNotFound, Country: country, ArmyID: armyID}
	}
	if a.Owner != country {
		return &ActionError{Kind: KindNotOwned, Country: country, ArmyID: armyID,
			Detail: fmt.Sprintf("army %d belongs to %s", armyID, a.Owner)}
	}
	if err := validateMoveTarget(ws, country, a.Location, to, g); err != nil {
		return err
	}
	dest := ws.Provinces[to]
	if dest.IsSea {
		return &ActionError{Kind: KindInvalidDestination, Country: country, Province: to,
			Detail: "army cannot enter sea zone"}
	}
	if owner := dest.Owner; owner != "" && owner != country &&
		!ws.Diplomacy.AreAtWar(country, owner) && !ws.Diplomacy.HasMilitaryAccess(owner, country) {
		return &ActionError{Kind: KindNoMilitaryAccess, Country: country, Target: owner, Province: to}
	}
	if IsBlockedByZoC(ws, a.Location, to, country, g) {
		return &ActionError{Kind: KindZoneOfControl, Country: country, ArmyID: armyID, Province: to}
	}
	return nil
}

// MoveArmy orders an army to march to an adjacent province.
func MoveArmy(ws *WorldState, country Tag, armyID ArmyID, to ProvinceID, g *AdjacencyGraph, d *Defines) error {
	d = orDefault(d)
	if err := validateMoveArmy(ws, country, armyID, to, g); err != nil {
		return err
	}
	ws.Armies[armyID].Movement = &Movement{Destination: to, Required: max(d.ArmyMoveDays, 1)}
	return nil
}

func validateMoveFleet(ws *WorldState, country Tag, fleetID FleetID, to ProvinceID, g *AdjacencyGraph) error {
	f := ws.Fleets[fleetID]
	if f == nil {
		return &ActionError{Kind: KindFleetNotFound, Country: country, FleetID: fleetID}
	}
	if f.Owner != country {
		return &ActionError{Kind: KindNotOwned, Country: country, FleetID: fleetID,
			Detail: fmt.Sprintf("fleet %d belongs to %s", fleetID, f.Owner)}
	}
	if f.InBattle != nil {
		return &ActionError{Kind: KindFleetInBattle, Country: country, FleetID: fleetID}
	}
	if err := validateMoveTarget(ws, country, f.Location, to, g); err != nil {
		return err
	}
	if !ws.Provinces[to].IsSea {
		return &ActionError{Kind: KindInvalidDestination, Country: country, Province: to,
			Detail: "fleet cannot enter land province"}
	}
	return nil
}

// MoveFleet orders a fleet to sail to an adjacent sea zone.
func MoveFleet(ws *WorldState, country Tag, fleetID FleetID, to ProvinceID, g *AdjacencyGraph, d *Defines) error {
	d = orDefault(d)
	if err := validateMoveFleet(ws, country, fleetID, to, g); err != nil {
		return err
	}
	ws.Fleets[fleetID].Movement = &Movement{Destination: to, Required: max(d.FleetMoveDays, 1)}
	return nil
}

// AvailableCommands enumerates the legal commands for tag in ws, in a stable
// order: army moves, fleet moves, war declarations, then peace actions.
func AvailableCommands(ws *WorldState, tag Tag, g *AdjacencyGraph, d *Defines) []Command {
	d = orDefault(d)
	var out []Command
	for _, id := range sortedKeys(ws.Armies) {
		a := ws.Armies[id]
		if a.Owner != tag {
			continue
		}
		for _, n := range g.Neighbors(a.Location) {
			if validateMoveArmy(ws, tag, id, n, g) == nil {
				out = append(out, Command{Type: CmdMove, ArmyID: id, Destination: n})
			}
		}
	}
	for _, id := range sortedKeys(ws.Fleets) {
		f := ws.Fleets[id]
		if f.Owner != tag {
			continue
		}
		for _, n := range g.Neighbors(f.Location) {
			if validateMoveFleet(ws, tag, id, n, g) == nil {
				out = append(out, Command{Type: CmdMoveFleet, FleetID: id, Destination: n})
			}
		}
	}
	for _, target := range sortedKeys(ws.Countries) {
		if validateDeclareWar(ws, tag, target, d) == nil {
			out = append(out, Command{Type: CmdDeclareWar, Target: target})
		}
	}
	for _, w := range ws.Diplomacy.WarsOf(tag) {
		if p := w.PendingPeace; p != nil {
			if p.Offerer != tag && validateAcceptPeace(ws, tag, w.ID) == nil {
				out = append(out,
					Command{Type: CmdAcceptPeace, WarID: w.ID},
					Command{Type: CmdRejectPeace, WarID: w.ID})
			}
			continue
		}
		white := PeaceTerms{Kind: WhitePeace}
		if validateOfferPeace(ws, tag, w.ID, white, d) == nil {
			out = append(out, Command{Type: CmdOfferPeace, WarID: w.ID, Terms: &white})
		}
	}
	return slices.Clip(out)
}
