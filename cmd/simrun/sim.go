package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/repository/sqlite"
	"github.com/freeeve/grand-campaign/internal/scenario"
	"github.com/freeeve/grand-campaign/internal/service"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

type options struct {
	scenario *scenario.Scenario
	schedule *scenario.Schedule
	store    *sqlite.Store
	ticks    int
	runs     int
	workers  int
	jsonOut  bool
	events   io.Writer
}

// runResult summarizes one simulated run.
type runResult struct {
	Run        int    `json:"run"`
	Seed       uint64 `json:"seed"`
	CampaignID string `json:"campaign_id,omitempty"`
	FinalDate  string `json:"final_date"`
	Ticks      int    `json:"ticks"`
	Checksum   string `json:"checksum"`
	Events     int    `json:"events"`
	Wars       int    `json:"wars"`
	Rejected   int    `json:"rejected"`
}

// loadScenario accepts either an embedded scenario name or a YAML file path.
func loadScenario(name string) (*scenario.Scenario, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		return scenario.Parse(data)
	}
	return scenario.Builtin(name)
}

// runAll runs opts.runs simulations on opts.workers goroutines. Run i uses
// the scenario seed plus i.
func runAll(ctx context.Context, opts options) ([]*runResult, int) {
	workers := max(opts.workers, 1)
	results := make([]*runResult, opts.runs)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0

	for i := range opts.runs {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			sc := *opts.scenario
			sc.Seed += uint64(idx)
			result, err := simulate(ctx, opts, &sc)
			if err != nil {
				log.Error().Err(err).Int("run", idx+1).Msg("Run failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}
			result.Run = idx + 1

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("run", idx+1).Uint64("seed", sc.Seed).Str("date", result.FinalDate).
				Int("events", result.Events).Msg("Run completed")
		}(i)
	}

	wg.Wait()
	return results, errCount
}

// simulate steps sc for opts.ticks days, feeding scheduled commands,
// streaming events to opts.events and recording history in opts.store.
func simulate(ctx context.Context, opts options, sc *scenario.Scenario) (*runResult, error) {
	ws, g, err := sc.Build(nil)
	if err != nil {
		return nil, fmt.Errorf("build scenario: %w", err)
	}

	res := &runResult{Seed: sc.Seed}
	var campaignID string
	if opts.store != nil {
		c, err := opts.store.Create(ctx, sc.Name, string(sc.Source), int64(sc.Seed), ws.Date.String())
		if err != nil {
			return nil, err
		}
		campaignID = c.ID
		res.CampaignID = c.ID
		rec, err := service.Record(campaignID, nil, ws, nil)
		if err != nil {
			return nil, err
		}
		if err := opts.store.SaveTick(ctx, &rec.Tick, nil, nil); err != nil {
			return nil, err
		}
	}

	seenWars := make(map[warfare.WarID]bool)
	for tick := 1; tick <= opts.ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, results := warfare.Step(ws, opts.schedule.At(tick), g, nil)
		rec, err := service.Record(campaignID, ws, next, results)
		if err != nil {
			return nil, err
		}
		for _, c := range rec.Commands {
			if c.Error != "" {
				res.Rejected++
				log.Warn().Int("tick", tick).Str("country", c.Country).Str("command", c.CommandType).
					Str("kind", c.ErrorKind).Msg("Scheduled command rejected")
			}
		}
		for _, id := range next.Diplomacy.WarIDs() {
			seenWars[id] = true
		}
		res.Events += len(rec.Log)
		if opts.events != nil {
			if err := writeEvents(opts.events, rec.Log, opts.jsonOut); err != nil {
				return nil, err
			}
		}
		if opts.store != nil {
			if err := opts.store.SaveTick(ctx, &rec.Tick, rec.Commands, rec.Events); err != nil {
				return nil, err
			}
			if err := opts.store.UpdateProgress(ctx, campaignID, rec.Tick.Tick, rec.Tick.Date, rec.Tick.Checksum); err != nil {
				return nil, err
			}
		}
		ws = next
		res.Checksum = rec.Tick.Checksum
	}

	res.FinalDate = ws.Date.String()
	res.Ticks = ws.Tick()
	res.Wars = len(seenWars)
	if res.Checksum == "" {
		if res.Checksum, err = warfare.Checksum(ws); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func writeEvents(w io.Writer, events []warfare.Event, ndjson bool) error {
	if ndjson {
		return warfare.WriteNDJSON(w, events)
	}
	for _, e := range events {
		if _, err := fmt.Fprintf(w, "%-11s %s\n", e.Date, describeEvent(e)); err != nil {
			return err
		}
	}
	return nil
}

// describeEvent renders an event as a single human-readable line.
func describeEvent(e warfare.Event) string {
	switch e.Type {
	case warfare.EventWarDeclared:
		return fmt.Sprintf("%s: %v declare war on %v", e.WarName, e.Attackers, e.Defenders)
	case warfare.EventPeaceWhite:
		return fmt.Sprintf("%s ends in white peace (%d/%d)", e.WarName, e.AttackerScore, e.DefenderScore)
	case warfare.EventPeaceProvinces:
		return fmt.Sprintf("%s ends: %s cedes %v to %s", e.WarName, e.FromTag, e.Provinces, e.ToTag)
	case warfare.EventPeaceAnnexation:
		return fmt.Sprintf("%s ends: %s annexed by %s", e.WarName, e.AnnexedTag, e.AnnexerTag)
	case warfare.EventWarDissolved:
		return fmt.Sprintf("%s dissolves after %s is eliminated", e.WarName, e.FromTag)
	case warfare.EventCountryEliminated:
		return fmt.Sprintf("%s eliminated", e.FromTag)
	case warfare.EventProvinceOwnerChanged:
		return fmt.Sprintf("province %d passes from %s to %s", e.Province, e.FromTag, e.ToTag)
	case warfare.EventSiegeCompleted:
		return fmt.Sprintf("province %d falls to %s", e.Province, e.ToTag)
	case warfare.EventNavalBattleStarted:
		return fmt.Sprintf("naval battle %d at %d: %s attacks %s", e.BattleID, e.Province, e.FromTag, e.ToTag)
	case warfare.EventNavalBattleEnded:
		return fmt.Sprintf("naval battle %d at %d: %s (losses %d/%d)", e.BattleID, e.Province, e.Result,
			e.AttackerLosses, e.DefenderLosses)
	default:
		return string(e.Type)
	}
}
