package warfare

import "testing"

func TestSnapshot_CompressedRoundTrip(t *testing.T) {
	tw := campaignWorld(t, 9)
	tw.ws = Run(tw.ws, 45, tw.g, tw.d)

	want, err := Checksum(tw.ws)
	if err != nil {
		t.Fatal(err)
	}
	blob, err := CompressSnapshot(tw.ws)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecompressSnapshot(blob)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := Checksum(back)
	if got != want {
		t.Fatalf("checksum after round trip = %s, want %s", got, want)
	}

	// A restored snapshot must continue exactly like the original.
	a, _ := Step(tw.ws, nil, tw.g, tw.d)
	b, _ := Step(back, nil, tw.g, tw.d)
	ca, _ := Checksum(a)
	cb, _ := Checksum(b)
	if ca != cb {
		t.Error("restored snapshot diverged on the next tick")
	}
}

func TestUnmarshalSnapshot_EmptyMaps(t *testing.T) {
	ws, err := UnmarshalSnapshot([]byte(`{"date":"1444.11.11","startDate":"1444.11.11","rng":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if ws.Armies == nil || ws.Diplomacy.Wars == nil || ws.Sieges == nil {
		t.Fatal("maps should be initialized")
	}
	if ws.Date != NewDate(1444, 11, 11) {
		t.Errorf("date = %s", ws.Date)
	}
}

func TestChecksum_ChangesWithState(t *testing.T) {
	tw := campaignWorld(t, 9)
	a, _ := Checksum(tw.ws)
	tw.ws.Provinces[4].Controller = "SWE"
	b, _ := Checksum(tw.ws)
	if a == b {
		t.Error("checksum ignored a controller change")
	}
}
