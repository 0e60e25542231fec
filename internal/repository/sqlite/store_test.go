package sqlite

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/freeeve/grand-campaign/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCampaignLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.Create(ctx, "Northern War", "baltic", 7, "1444.11.11")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(c.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", c.ID)
	}

	got, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.Name != "Northern War" || got.Seed != 7 || got.Status != model.StatusActive {
		t.Fatalf("unexpected campaign: %+v", got)
	}

	if err := s.UpdateProgress(ctx, c.ID, 3, "1444.11.14", "beef"); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	got, _ = s.FindByID(ctx, c.ID)
	if got.CurrentTick != 3 || got.CurrentDate != "1444.11.14" || got.Checksum != "beef" {
		t.Fatalf("progress not stored: %+v", got)
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active campaign, got %d", len(active))
	}

	if err := s.SetStatus(ctx, c.ID, model.StatusFinished); err != nil {
		t.Fatalf("set status: %v", err)
	}
	active, _ = s.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("expected no active campaigns, got %d", len(active))
	}
}

func TestFindMissingCampaign(t *testing.T) {
	s := openTestStore(t)

	got, err := s.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestTickHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.Create(ctx, "History", "baltic", 1, "1444.11.11")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if latest, err := s.LatestTick(ctx, c.ID); err != nil || latest != nil {
		t.Fatalf("expected no ticks yet, got %+v (%v)", latest, err)
	}

	for i := range 3 {
		tick := &model.Tick{CampaignID: c.ID, Tick: i, Date: "1444.11.11", Checksum: "sum", Snapshot: []byte{9, byte(i)}}
		cmds := []model.CommandRecord{{
			CampaignID: c.ID, Tick: i, Seq: 0, Country: "SWE", CommandType: "move",
			Payload: json.RawMessage(`{"type":"move","armyId":1,"destination":2}`),
		}}
		events := []model.EventRecord{{
			CampaignID: c.ID, Tick: i, Seq: 0, EventType: "war_declared",
			Payload: json.RawMessage(`{"type":"war_declared"}`),
		}}
		if err := s.SaveTick(ctx, tick, cmds, events); err != nil {
			t.Fatalf("save tick %d: %v", i, err)
		}
	}

	latest, err := s.LatestTick(ctx, c.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Tick != 2 || len(latest.Snapshot) != 2 || latest.Snapshot[1] != 2 {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	ticks, err := s.ListTicks(ctx, c.ID)
	if err != nil {
		t.Fatalf("list ticks: %v", err)
	}
	if len(ticks) != 3 || ticks[0].Snapshot != nil {
		t.Fatalf("expected 3 ticks without blobs, got %+v", ticks)
	}

	events, err := s.ListEvents(ctx, c.ID, 1)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].Tick != 1 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if string(events[0].Payload) != `{"type":"war_declared"}` {
		t.Fatalf("payload mangled: %s", events[0].Payload)
	}

	cmds, err := s.ListCommands(ctx, c.ID, 0)
	if err != nil {
		t.Fatalf("list commands: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Country != "SWE" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestSaveTickRollsBackOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, _ := s.Create(ctx, "Dup", "baltic", 1, "1444.11.11")
	tick := &model.Tick{CampaignID: c.ID, Tick: 1, Date: "1444.11.12", Checksum: "x", Snapshot: []byte{1}}
	if err := s.SaveTick(ctx, tick, nil, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	events := []model.EventRecord{{CampaignID: c.ID, Tick: 1, Seq: 0, EventType: "war_declared", Payload: json.RawMessage(`{}`)}}
	if err := s.SaveTick(ctx, tick, nil, events); err == nil {
		t.Fatal("expected duplicate tick to fail")
	}
	got, _ := s.ListEvents(ctx, c.ID, 0)
	if len(got) != 0 {
		t.Fatalf("expected rollback, got %d events", len(got))
	}
}
