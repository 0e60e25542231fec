package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freeeve/grand-campaign/internal/repository/sqlite"
	"github.com/freeeve/grand-campaign/internal/scenario"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

func loadScaniaSchedule(t *testing.T) *scenario.Schedule {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "scenario", "testdata", "scania_war.yaml"))
	if err != nil {
		t.Fatalf("read schedule: %v", err)
	}
	s, err := scenario.ParseSchedule(data)
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}
	return s
}

func TestLoadScenario(t *testing.T) {
	if _, err := loadScenario(scenario.DefaultName); err != nil {
		t.Fatalf("builtin: %v", err)
	}

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, scenario.Default().Source, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sc, err := loadScenario(path)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if sc.Name != scenario.DefaultName {
		t.Errorf("expected %s, got %s", scenario.DefaultName, sc.Name)
	}

	if _, err := loadScenario("atlantis"); err == nil {
		t.Error("expected error for unknown scenario")
	}
	if _, err := loadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSimulateStreamsNDJSON(t *testing.T) {
	var buf bytes.Buffer
	opts := options{
		scenario: scenario.Default(),
		schedule: loadScaniaSchedule(t),
		ticks:    40,
		jsonOut:  true,
		events:   &buf,
	}
	res, err := simulate(context.Background(), opts, opts.scenario)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.Ticks != 40 || res.Wars != 1 || res.Rejected != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != res.Events {
		t.Fatalf("expected %d lines, got %d", res.Events, len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first["type"] != "war_declared" || first["tick"] != float64(31) {
		t.Errorf("expected war_declared on tick 31, got %v", first)
	}
}

func TestSimulateRecordsHistory(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	opts := options{scenario: scenario.Default(), store: store, ticks: 10}
	res, err := simulate(context.Background(), opts, opts.scenario)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.CampaignID == "" {
		t.Fatal("expected a recorded campaign")
	}

	ctx := context.Background()
	ticks, err := store.ListTicks(ctx, res.CampaignID)
	if err != nil {
		t.Fatalf("list ticks: %v", err)
	}
	if len(ticks) != 11 {
		t.Fatalf("expected 11 ticks including tick 0, got %d", len(ticks))
	}
	c, err := store.FindByID(ctx, res.CampaignID)
	if err != nil || c == nil {
		t.Fatalf("find campaign: %v", err)
	}
	if c.CurrentTick != 10 || c.Checksum != res.Checksum {
		t.Errorf("progress mismatch: %+v vs %+v", c, res)
	}
}

func TestRunAllIsDeterministic(t *testing.T) {
	opts := options{scenario: scenario.Default(), schedule: loadScaniaSchedule(t), ticks: 60, runs: 3, workers: 2}
	first, errs := runAll(context.Background(), opts)
	if errs != 0 {
		t.Fatalf("expected no failed runs, got %d", errs)
	}
	second, _ := runAll(context.Background(), opts)

	base := scenario.Default().Seed
	for i := range first {
		if first[i] == nil || second[i] == nil {
			t.Fatalf("run %d missing", i)
		}
		if first[i].Seed != base+uint64(i) || first[i].Run != i+1 {
			t.Errorf("run %d: unexpected seed %d", i, first[i].Seed)
		}
		if first[i].Checksum != second[i].Checksum {
			t.Errorf("run %d: checksum differs between batches", i)
		}
	}
}

func TestSimulateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := options{scenario: scenario.Default(), ticks: 10}
	if _, err := simulate(ctx, opts, opts.scenario); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		e    warfare.Event
		want string
	}{
		{warfare.Event{Type: warfare.EventWarDeclared, WarName: "SWE vs DEN", Attackers: []warfare.Tag{"SWE"}, Defenders: []warfare.Tag{"DEN"}},
			"SWE vs DEN: [SWE] declare war on [DEN]"},
		{warfare.Event{Type: warfare.EventSiegeCompleted, Province: 5, ToTag: "SWE"}, "province 5 falls to SWE"},
		{warfare.Event{Type: warfare.EventCountryEliminated, FromTag: "LUB"}, "LUB eliminated"},
		{warfare.Event{Type: warfare.EventWarDissolved, WarName: "LUB vs DEN", FromTag: "LUB"}, "LUB vs DEN dissolves after LUB is eliminated"},
		{warfare.Event{Type: "mystery"}, "mystery"},
	}
	for _, tt := range tests {
		if got := describeEvent(tt.e); got != tt.want {
			t.Errorf("describeEvent(%s) = %q, want %q", tt.e.Type, got, tt.want)
		}
	}
}

func TestDescribeDiffedElimination(t *testing.T) {
	prev := warfare.NewWorldState(warfare.NewDate(1444, 11, 11), 1)
	prev.AddCountry("SWE", "Sweden")
	prev.AddCountry("LUB", "Lubeck")
	next := prev.Clone()
	delete(next.Countries, "LUB")

	var lines []string
	for _, e := range warfare.DiffEvents(prev, next) {
		if e.Type == warfare.EventCountryEliminated {
			lines = append(lines, describeEvent(e))
		}
	}
	if len(lines) != 1 || lines[0] != "LUB eliminated" {
		t.Errorf("expected one LUB elimination line, got %q", lines)
	}
}
