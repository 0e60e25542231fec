package warfare

import "fmt"

// CommandType selects which fields of a Command are meaningful.
type CommandType string

const (
	CmdDeclareWar  CommandType = "declare_war"
	CmdOfferPeace  CommandType = "offer_peace"
	CmdAcceptPeace CommandType = "accept_peace"
	CmdRejectPeace CommandType = "reject_peace"
	CmdMove        CommandType = "move"
	CmdMoveFleet   CommandType = "move_fleet"
)

// Command is one instruction issued by a country for the next tick.
type Command struct {
	Type CommandType `json:"type"`

	// DeclareWar
	Target     Tag    `json:"target,omitempty"`
	CasusBelli string `json:"casusBelli,omitempty"`

	// OfferPeace, AcceptPeace, RejectPeace
	WarID WarID       `json:"warId,omitempty"`
	Terms *PeaceTerms `json:"terms,omitempty"`

	// Move, MoveFleet
	ArmyID      ArmyID     `json:"armyId,omitempty"`
	FleetID     FleetID    `json:"fleetId,omitempty"`
	Destination ProvinceID `json:"destination,omitempty"`
}

// Describe returns a short human-readable form of the command.
func (c Command) Describe() string {
	switch c.Type {
	case CmdDeclareWar:
		if c.CasusBelli != "" {
			return fmt.Sprintf("declare war on %s (%s)", c.Target, c.CasusBelli)
		}
		return fmt.Sprintf("declare war on %s", c.Target)
	case CmdOfferPeace:
		kind := WhitePeace
		if c.Terms != nil {
			kind = c.Terms.Kind
		}
		return fmt.Sprintf("offer %s in war %d", kind, c.WarID)
	case CmdAcceptPeace:
		return fmt.Sprintf("accept peace in war %d", c.WarID)
	case CmdRejectPeace:
		return fmt.Sprintf("reject peace in war %d", c.WarID)
	case CmdMove:
		return fmt.Sprintf("army %d -> %d", c.ArmyID, c.Destination)
	case CmdMoveFleet:
		return fmt.Sprintf("fleet %d -> %d", c.FleetID, c.Destination)
	}
	return "unknown command " + string(c.Type)
}

// CountryCommands is the batch of commands one country submits for a tick.
type CountryCommands struct {
	Country  Tag       `json:"country"`
	Commands []Command `json:"commands"`
}

// CommandResult reports the outcome of one submitted command.
type CommandResult struct {
	Country Tag     `json:"country"`
	Command Command `json:"command"`
	Err     error   `json:"-"`
}

// OK reports whether the command was applied.
func (r CommandResult) OK() bool { return r.Err == nil }
