package warfare

import "testing"

// testWorld builds small scenarios. Countries SWE and DEN always exist.
type testWorld struct {
	t  *testing.T
	ws *WorldState
	g  *AdjacencyGraph
	d  *Defines
}

var testStart = NewDate(1444, 11, 11)

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	ws := NewWorldState(testStart, 42)
	ws.AddCountry("SWE", "Sweden")
	ws.AddCountry("DEN", "Denmark")
	return &testWorld{t: t, ws: ws, g: NewAdjacencyGraph(nil), d: DefaultDefines()}
}

// pastImmunity moves the calendar beyond the opening truce period.
func (tw *testWorld) pastImmunity() *testWorld {
	tw.ws.Date = tw.ws.StartDate.AddDays(tw.d.ImmunityDays + 30)
	return tw
}

func (tw *testWorld) country(tag Tag) *testWorld {
	tw.ws.AddCountry(tag, string(tag))
	return tw
}

func (tw *testWorld) land(id ProvinceID, owner Tag, dev int64, fort int) *ProvinceState {
	p := &ProvinceState{
		Name:           "p",
		Owner:          owner,
		Controller:     owner,
		FortLevel:      fort,
		BaseTax:        FromInt(dev),
		BaseProduction: Zero,
		BaseManpower:   Zero,
	}
	tw.ws.Provinces[id] = p
	return p
}

func (tw *testWorld) sea(id ProvinceID) *ProvinceState {
	p := &ProvinceState{Name: "sea", IsSea: true}
	tw.ws.Provinces[id] = p
	return p
}

func (tw *testWorld) edge(a, b ProvinceID) *testWorld {
	tw.g.AddEdge(a, b)
	return tw
}

func (tw *testWorld) army(id ArmyID, owner Tag, loc ProvinceID, regiments ...RegimentType) *Army {
	if len(regiments) == 0 {
		regiments = []RegimentType{Infantry}
	}
	a := &Army{ID: id, Owner: owner, Location: loc}
	for _, r := range regiments {
		a.Regiments = append(a.Regiments, Regiment{Type: r, Strength: FromInt(1000)})
	}
	tw.ws.Armies[id] = a
	return a
}

func (tw *testWorld) fleet(id FleetID, owner Tag, loc ProvinceID, ships ...ShipType) *Fleet {
	f := &Fleet{ID: id, Owner: owner, Location: loc}
	for _, s := range ships {
		f.Ships = append(f.Ships, NewShip(s, tw.d))
	}
	tw.ws.Fleets[id] = f
	return f
}

// war declares a war through the ledger directly, bypassing validation.
func (tw *testWorld) war(attackers, defenders []Tag) *War {
	w := &War{
		Name:      string(attackers[0]) + " vs " + string(defenders[0]),
		Attackers: attackers,
		Defenders: defenders,
		StartDate: tw.ws.Date,
	}
	tw.ws.Diplomacy.AddWar(w)
	return w
}

// declare declares war through the command path and fails the test on error.
func (tw *testWorld) declare(att, def Tag) WarID {
	tw.t.Helper()
	id, err := DeclareWar(tw.ws, att, def, "", tw.d)
	if err != nil {
		tw.t.Fatalf("DeclareWar(%s, %s): %v", att, def, err)
	}
	return id
}

// nextDay advances the calendar without running any system.
func (tw *testWorld) nextDay() {
	tw.ws.Date = tw.ws.Date.AddDays(1)
}

func (tw *testWorld) step(inputs ...CountryCommands) []CommandResult {
	var res []CommandResult
	tw.ws, res = Step(tw.ws, inputs, tw.g, tw.d)
	return res
}
