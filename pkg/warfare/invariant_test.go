//go:build !warfaredebug

package warfare

import "testing"

func TestBrokenInvariants_SkippedInRelease(t *testing.T) {
	tw := newTestWorld(t).pastImmunity()
	tw.land(1, "SWE", 3, 0)
	tw.sea(10)
	tw.war([]Tag{"SWE"}, []Tag{"DEN"})
	tw.ws.Sieges[99] = &Siege{ID: 1, Province: 99, Attacker: "SWE", Defender: "DEN", BesiegingArmies: []ArmyID{1}}
	f := tw.fleet(1, "SWE", 10, HeavyShip)
	f.InBattle = ptr(NavalBattleID(7))

	tw.step()

	if _, ok := tw.ws.Sieges[99]; ok {
		t.Error("siege on unknown province should be dropped")
	}
	if tw.ws.Fleets[1].InBattle != nil {
		t.Error("fleet pointing at a missing battle should be released")
	}
	if len(tw.ws.Provinces) != 2 || len(tw.ws.Fleets) != 1 {
		t.Error("unrelated entities should be untouched")
	}
}
