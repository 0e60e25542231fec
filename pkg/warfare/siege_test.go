package warfare

import "testing"

func siegeWorld(t *testing.T, fort int) *testWorld {
	tw := newTestWorld(t)
	tw.land(1, "SWE", 3, 0)
	tw.land(2, "DEN", 3, fort)
	tw.edge(1, 2)
	tw.army(1, "SWE", 2)
	tw.war([]Tag{"SWE"}, []Tag{"DEN"})
	return tw
}

func TestSiege_UnfortifiedFallsAfterOnePhase(t *testing.T) {
	tw := siegeWorld(t, 0)
	for day := 1; day < tw.d.SiegePhaseDays; day++ {
		tw.step()
		if c := tw.ws.Provinces[2].Controller; c != "DEN" {
			t.Fatalf("day %d: controller %s before the phase ended", day, c)
		}
	}
	if s := tw.ws.Sieges[2]; s == nil || s.ProgressModifier != tw.d.SiegeWinThreshold {
		t.Fatalf("siege = %+v", s)
	}
	tw.step()
	p := tw.ws.Provinces[2]
	if p.Controller != "SWE" {
		t.Fatalf("controller = %s, want SWE", p.Controller)
	}
	if p.Owner != "DEN" {
		t.Errorf("owner = %s, sieges must not change ownership", p.Owner)
	}
	if len(tw.ws.Sieges) != 0 {
		t.Error("completed siege should be removed")
	}
	if w := tw.ws.Diplomacy.War(1); w.AttackerScore != 60 {
		t.Errorf("attacker score = %d, want 60", w.AttackerScore)
	}
}

func TestSiege_FortifiedEventuallyFalls(t *testing.T) {
	tw := siegeWorld(t, 3)
	tw.ws.Armies[1].Regiments = append(tw.ws.Armies[1].Regiments, Regiment{Type: Artillery, Strength: FromInt(1000)})
	for day := 1; day < tw.d.SiegePhaseDays; day++ {
		tw.step()
	}
	if tw.ws.Provinces[2].Controller != "DEN" {
		t.Fatal("fort fell before the first phase ended")
	}
	for range 60 * tw.d.SiegePhaseDays {
		tw.step()
		if tw.ws.Provinces[2].Controller == "SWE" {
			return
		}
		if s := tw.ws.Sieges[2]; s != nil && s.ProgressModifier > tw.d.MaxSiegeProgress {
			t.Fatalf("progress %d above cap", s.ProgressModifier)
		}
	}
	t.Fatal("fort never fell")
}

func TestSiege_MothballedFortStillSieged(t *testing.T) {
	tw := siegeWorld(t, 2)
	tw.ws.Provinces[2].IsMothballed = true
	RunSiegeTick(tw.ws, tw.g, tw.d)
	s := tw.ws.Sieges[2]
	if s == nil {
		t.Fatal("siege not started")
	}
	if s.FortLevel != 2 || s.ProgressModifier != 0 || s.Garrison != 2*tw.d.GarrisonPerFortLevel {
		t.Errorf("siege = %+v", s)
	}
}

func TestSiege_JoinAndAbandon(t *testing.T) {
	tw := siegeWorld(t, 2).country("NOR")
	tw.ws.Diplomacy.War(1).Attackers = append(tw.ws.Diplomacy.War(1).Attackers, "NOR")
	tw.army(2, "NOR", 2)
	RunSiegeTick(tw.ws, tw.g, tw.d)
	s := tw.ws.Sieges[2]
	if s == nil || len(s.BesiegingArmies) != 2 || s.Attacker != "SWE" {
		t.Fatalf("siege = %+v", s)
	}

	tw.ws.Armies[1].Location = 1
	RunSiegeTick(tw.ws, tw.g, tw.d)
	s = tw.ws.Sieges[2]
	if s == nil || len(s.BesiegingArmies) != 1 {
		t.Fatalf("siege after SWE left = %+v", s)
	}

	tw.ws.Armies[2].Location = 1
	RunSiegeTick(tw.ws, tw.g, tw.d)
	if len(tw.ws.Sieges) != 0 {
		t.Error("abandoned siege should be removed")
	}
}

func TestSiege_NoSiegeAtPeace(t *testing.T) {
	tw := siegeWorld(t, 0)
	tw.ws.Diplomacy.RemoveWar(1)
	RunSiegeTick(tw.ws, tw.g, tw.d)
	if len(tw.ws.Sieges) != 0 {
		t.Error("army at peace must not besiege")
	}
}

func TestSiege_RetakeOwnProvince(t *testing.T) {
	tw := siegeWorld(t, 0)
	tw.ws.Provinces[1].Controller = "DEN"
	tw.army(2, "SWE", 1)
	for range tw.d.SiegePhaseDays {
		tw.step()
	}
	if c := tw.ws.Provinces[1].Controller; c != "SWE" {
		t.Errorf("controller = %s, want SWE", c)
	}
}

func TestIsBlockaded(t *testing.T) {
	tw := siegeWorld(t, 2)
	tw.sea(10)
	tw.sea(11)
	tw.edge(2, 10).edge(2, 11)
	tw.fleet(1, "SWE", 10, HeavyShip)

	if IsBlockaded(tw.ws, 2, "DEN", tw.g) {
		t.Error("one open sea zone should break the blockade")
	}
	tw.fleet(2, "SWE", 11, LightShip)
	if !IsBlockaded(tw.ws, 2, "DEN", tw.g) {
		t.Error("all sea zones covered should blockade")
	}
	if IsBlockaded(tw.ws, 1, "SWE", tw.g) {
		t.Error("landlocked province cannot be blockaded")
	}
}

func TestSiege_BlockadeStarvesGarrison(t *testing.T) {
	tw := siegeWorld(t, 1)
	tw.sea(10)
	tw.edge(2, 10)
	tw.fleet(1, "SWE", 10, Transport)
	tw.d.SiegeWinThreshold = 1000
	tw.d.StarvationPercent = 95

	for range 2 * tw.d.SiegePhaseDays {
		tw.step()
		if tw.ws.Provinces[2].Controller == "SWE" {
			return
		}
	}
	t.Fatal("starved garrison should surrender")
}
