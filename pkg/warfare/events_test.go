package warfare

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func eventTypes(events []Event) []EventType {
	var out []EventType
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func hasEvent(events []Event, typ EventType) *Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

func TestDiffEvents_WarDeclared(t *testing.T) {
	tw := newTestWorld(t).pastImmunity()
	prev := tw.ws
	tw.step(CountryCommands{Country: "SWE", Commands: []Command{{Type: CmdDeclareWar, Target: "DEN"}}})

	events := DiffEvents(prev, tw.ws)
	e := hasEvent(events, EventWarDeclared)
	if e == nil {
		t.Fatalf("events = %v, want war_declared", eventTypes(events))
	}
	if e.WarID != 1 || e.WarName != "SWE vs DEN" || e.Tick != tw.ws.Tick() || e.Date != tw.ws.Date {
		t.Errorf("event = %+v", e)
	}
}

func TestDiffEvents_PeaceKinds(t *testing.T) {
	tests := []struct {
		name  string
		terms PeaceTerms
		want  EventType
		also  []EventType
	}{
		{"white", PeaceTerms{Kind: WhitePeace}, EventPeaceWhite, nil},
		{"provinces", PeaceTerms{Kind: TakeProvinces, Provinces: []ProvinceID{2}}, EventPeaceProvinces,
			[]EventType{EventProvinceOwnerChanged}},
		{"annexation", PeaceTerms{Kind: FullAnnexation}, EventPeaceAnnexation,
			[]EventType{EventCountryEliminated, EventProvinceOwnerChanged}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t).pastImmunity()
			tw.land(1, "SWE", 3, 0)
			tw.land(2, "DEN", 3, 0).Controller = "SWE"
			w := tw.war([]Tag{"SWE"}, []Tag{"DEN"})
			w.AttackerBattleScore = 40
			RecalculateWarScores(tw.ws, tw.d)
			if err := OfferPeace(tw.ws, "SWE", w.ID, tt.terms, tw.d); err != nil {
				t.Fatal(err)
			}
			prev := tw.ws
			res := tw.step(CountryCommands{Country: "DEN", Commands: []Command{{Type: CmdAcceptPeace, WarID: w.ID}}})
			if !res[0].OK() {
				t.Fatalf("accept failed: %v", res[0].Err)
			}
			events := DiffEvents(prev, tw.ws)
			e := hasEvent(events, tt.want)
			if e == nil {
				t.Fatalf("events = %v, want %s", eventTypes(events), tt.want)
			}
			if e.WarID != w.ID || e.AttackerScore != 100 {
				t.Errorf("event = %+v", e)
			}
			for _, typ := range tt.also {
				if hasEvent(events, typ) == nil {
					t.Errorf("events = %v, missing %s", eventTypes(events), typ)
				}
			}
			if tt.want == EventPeaceAnnexation && (e.AnnexedTag != "DEN" || e.AnnexerTag != "SWE") {
				t.Errorf("annexation = %s by %s", e.AnnexedTag, e.AnnexerTag)
			}
			if tt.want == EventPeaceProvinces && (len(e.Provinces) != 1 || e.Provinces[0] != 2) {
				t.Errorf("provinces = %v", e.Provinces)
			}
		})
	}
}

func TestDiffEvents_AnnexationDissolvesOtherWar(t *testing.T) {
	tw := newTestWorld(t).pastImmunity().country("LUB")
	tw.land(1, "SWE", 3, 0)
	tw.land(2, "DEN", 3, 0).Controller = "SWE"
	tw.land(3, "LUB", 3, 0)
	w := tw.war([]Tag{"SWE"}, []Tag{"DEN"})
	w.AttackerBattleScore = 40
	other := tw.war([]Tag{"DEN"}, []Tag{"LUB"})
	RecalculateWarScores(tw.ws, tw.d)
	if err := OfferPeace(tw.ws, "SWE", w.ID, PeaceTerms{Kind: FullAnnexation}, tw.d); err != nil {
		t.Fatal(err)
	}
	prev := tw.ws
	res := tw.step(CountryCommands{Country: "DEN", Commands: []Command{{Type: CmdAcceptPeace, WarID: w.ID}}})
	if !res[0].OK() {
		t.Fatalf("accept failed: %v", res[0].Err)
	}

	events := DiffEvents(prev, tw.ws)
	byWar := map[WarID]Event{}
	for _, e := range events {
		if e.WarID != 0 {
			byWar[e.WarID] = e
		}
	}
	if e := byWar[w.ID]; e.Type != EventPeaceAnnexation || e.AnnexedTag != "DEN" || e.AnnexerTag != "SWE" {
		t.Errorf("annexed war event = %+v", e)
	}
	if e := byWar[other.ID]; e.Type != EventWarDissolved || e.FromTag != "DEN" || e.AnnexerTag != "" {
		t.Errorf("dissolved war event = %+v", e)
	}
	if tw.ws.Diplomacy.HasActiveTruce("DEN", "LUB", tw.ws.Date) {
		t.Error("dissolved war must not sign a truce")
	}
}

func TestDiffEvents_SiegeAndBattle(t *testing.T) {
	tw := siegeWorld(t, 0)
	tw.sea(10)
	tw.edge(2, 10)
	tw.fleet(1, "SWE", 10, HeavyShip)
	tw.fleet(2, "DEN", 10, Transport)

	var all []Event
	for range tw.d.SiegePhaseDays {
		prev := tw.ws
		tw.step()
		all = append(all, DiffEvents(prev, tw.ws)...)
	}
	for _, typ := range []EventType{EventNavalBattleStarted, EventNavalBattleEnded, EventSiegeCompleted} {
		if hasEvent(all, typ) == nil {
			t.Errorf("events = %v, missing %s", eventTypes(all), typ)
		}
	}
	if e := hasEvent(all, EventNavalBattleEnded); e != nil && e.Result != AttackerVictory {
		t.Errorf("battle result = %s", e.Result)
	}
}

func TestWriteNDJSON(t *testing.T) {
	events := []Event{
		{Type: EventWarDeclared, Tick: 40, Date: NewDate(1444, 12, 21), WarID: 1, WarName: "SWE vs DEN"},
		{Type: EventCountryEliminated, Tick: 41, Date: NewDate(1444, 12, 22), FromTag: "DEN"},
	}
	var buf bytes.Buffer
	if err := WriteNDJSON(&buf, events); err != nil {
		t.Fatal(err)
	}
	sc := bufio.NewScanner(&buf)
	lines := 0
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, `{"type":`) {
			t.Errorf("line %d does not lead with type: %s", lines, line)
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Errorf("line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("lines = %d, want 2", lines)
	}
}
