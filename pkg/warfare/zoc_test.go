package warfare

import (
	"errors"
	"testing"
)

// zocWorld builds a 1-2-3 line plus province 4 bordering both 1 and 2.
// Province 2 holds a Danish fort.
func zocWorld(t *testing.T) *testWorld {
	tw := newTestWorld(t).pastImmunity()
	tw.land(1, "SWE", 3, 0)
	tw.land(2, "DEN", 3, 2)
	tw.land(3, "DEN", 3, 0)
	tw.land(4, "DEN", 3, 0)
	tw.edge(1, 2).edge(2, 3).edge(1, 4).edge(2, 4)
	tw.army(1, "SWE", 1)
	return tw
}

func TestZoC_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(tw *testWorld)
		to      ProvinceID
		blocked bool
	}{
		{"direct attack on fort", nil, 2, false},
		{"bypass next to fort", nil, 4, true},
		{"at peace", func(tw *testWorld) { tw.ws.Diplomacy.RemoveWar(1) }, 4, false},
		{"mothballed fort", func(tw *testWorld) { tw.ws.Provinces[2].IsMothballed = true }, 4, false},
		{"fort captured by mover", func(tw *testWorld) { tw.ws.Provinces[2].Controller = "SWE" }, 4, false},
		{"fort level zero", func(tw *testWorld) { tw.ws.Provinces[2].FortLevel = 0 }, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := zocWorld(t)
			tw.war([]Tag{"SWE"}, []Tag{"DEN"})
			if tt.setup != nil {
				tt.setup(tw)
			}
			if got := IsBlockedByZoC(tw.ws, 1, tt.to, "SWE", tw.g); got != tt.blocked {
				t.Errorf("IsBlockedByZoC(1 -> %d) = %v, want %v", tt.to, got, tt.blocked)
			}
		})
	}
}

func TestZoC_NeutralFortDoesNotBlock(t *testing.T) {
	tw := zocWorld(t).country("NOR")
	tw.ws.Provinces[2].Owner, tw.ws.Provinces[2].Controller = "NOR", "NOR"
	tw.war([]Tag{"SWE"}, []Tag{"DEN"})
	if IsBlockedByZoC(tw.ws, 1, 4, "SWE", tw.g) {
		t.Error("fort of a country not at war with mover must not block")
	}
}

func TestMoveArmy_ZoneOfControl(t *testing.T) {
	tw := zocWorld(t)
	tw.war([]Tag{"SWE"}, []Tag{"DEN"})

	err := MoveArmy(tw.ws, "SWE", 1, 4, tw.g, tw.d)
	if !errors.Is(err, ErrZoneOfControl) {
		t.Fatalf("err = %v, want zone of control", err)
	}
	if tw.ws.Armies[1].Movement != nil {
		t.Error("blocked move must not start movement")
	}
	if err := MoveArmy(tw.ws, "SWE", 1, 2, tw.g, tw.d); err != nil {
		t.Fatalf("direct attack rejected: %v", err)
	}
}

func TestAvailableCommands_FiltersZoC(t *testing.T) {
	tw := zocWorld(t)
	tw.war([]Tag{"SWE"}, []Tag{"DEN"})

	var moves []ProvinceID
	for _, c := range AvailableCommands(tw.ws, "SWE", tw.g, tw.d) {
		if c.Type == CmdMove && c.ArmyID == 1 {
			moves = append(moves, c.Destination)
		}
	}
	if len(moves) != 1 || moves[0] != 2 {
		t.Errorf("moves = %v, want [2]", moves)
	}
}

func TestMoveArmy_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		country Tag
		army    ArmyID
		to      ProvinceID
		target  error
	}{
		{"missing army", "SWE", 9, 2, ErrArmyNotFound},
		{"foreign army", "DEN", 1, 2, ErrNotOwned},
		{"not adjacent", "SWE", 1, 3, ErrNotAdjacent},
		{"unknown province", "SWE", 1, 99, ErrProvinceNotFound},
		{"no access at peace", "SWE", 1, 2, ErrNoMilitaryAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := zocWorld(t)
			err := MoveArmy(tw.ws, tt.country, tt.army, tt.to, tw.g, tw.d)
			if !errors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestMoveArmy_MilitaryAccess(t *testing.T) {
	tw := zocWorld(t)
	tw.ws.Diplomacy.GrantMilitaryAccess("DEN", "SWE")
	if err := MoveArmy(tw.ws, "SWE", 1, 2, tw.g, tw.d); err != nil {
		t.Fatalf("move with access failed: %v", err)
	}
}

func TestMoveFleet_Validation(t *testing.T) {
	tw := newTestWorld(t)
	tw.sea(10)
	tw.sea(11)
	tw.land(1, "SWE", 3, 0)
	tw.edge(10, 11).edge(10, 1)
	tw.fleet(1, "SWE", 10, HeavyShip)

	if err := MoveFleet(tw.ws, "SWE", 1, 1, tw.g, tw.d); !errors.Is(err, ErrInvalidDestination) {
		t.Errorf("err = %v, want invalid destination", err)
	}
	tw.ws.Fleets[1].InBattle = ptr(NavalBattleID(1))
	if err := MoveFleet(tw.ws, "SWE", 1, 11, tw.g, tw.d); !errors.Is(err, ErrFleetInBattle) {
		t.Errorf("err = %v, want fleet in battle", err)
	}
	tw.ws.Fleets[1].InBattle = nil
	if err := MoveFleet(tw.ws, "SWE", 1, 11, tw.g, tw.d); err != nil {
		t.Fatalf("MoveFleet: %v", err)
	}
	for range tw.d.FleetMoveDays {
		tw.step()
	}
	if tw.ws.Fleets[1].Location != 11 {
		t.Errorf("fleet at %d, want 11", tw.ws.Fleets[1].Location)
	}
}
