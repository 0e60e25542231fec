// Command simrun steps a scenario offline and prints the resulting event log.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/config"
	"github.com/freeeve/grand-campaign/internal/logger"
	"github.com/freeeve/grand-campaign/internal/repository/sqlite"
	"github.com/freeeve/grand-campaign/internal/scenario"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.InitStderr("info")
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.InitStderr(cfg.LogLevel)

	var (
		opts         options
		scenarioName string
		commandsPath string
		sqlitePath   string
		seed         uint64
	)

	flag.StringVar(&scenarioName, "scenario", scenario.DefaultName, "Embedded scenario name or path to a scenario YAML file")
	flag.IntVar(&opts.ticks, "ticks", 0, "Days to simulate (0 = up to the last scheduled command, at least one year)")
	flag.Uint64Var(&seed, "seed", 0, "Seed override (0 = scenario seed)")
	flag.StringVar(&commandsPath, "commands", "", "Command schedule YAML")
	flag.StringVar(&sqlitePath, "sqlite", cfg.SQLitePath, "SQLite file to record tick history in")
	flag.IntVar(&opts.runs, "runs", 1, "Number of runs with consecutive seeds")
	flag.IntVar(&opts.workers, "workers", 1, "Concurrency (parallel runs)")
	flag.BoolVar(&opts.jsonOut, "json", false, "Print events as NDJSON and the summary as JSON")

	flag.Parse()

	sc, err := loadScenario(scenarioName)
	if err != nil {
		log.Fatal().Err(err).Str("scenario", scenarioName).Msg("Failed to load scenario")
	}
	if seed != 0 {
		sc.Seed = seed
	}
	opts.scenario = sc

	if commandsPath != "" {
		data, err := os.ReadFile(commandsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read command schedule")
		}
		if opts.schedule, err = scenario.ParseSchedule(data); err != nil {
			log.Fatal().Err(err).Msg("Invalid command schedule")
		}
	}
	if opts.ticks <= 0 {
		opts.ticks = max(opts.schedule.LastTick(), 360)
	}

	if sqlitePath != "" {
		store, err := sqlite.Open(sqlitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", sqlitePath).Msg("Failed to open SQLite store")
		}
		defer store.Close()
		opts.store = store
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	// Only a single run streams its events; batches print summaries.
	if opts.runs == 1 {
		opts.events = os.Stdout
	}
	results, errCount := runAll(ctx, opts)

	// The summary goes to stderr whenever stdout carries the event stream.
	var out io.Writer = os.Stdout
	if opts.events != nil {
		out = os.Stderr
	}
	if opts.jsonOut {
		printJSON(out, results, opts.runs, errCount)
	} else {
		printSummary(out, results, errCount)
	}
	if errCount > 0 {
		os.Exit(1)
	}
}

func printSummary(w io.Writer, results []*runResult, errCount int) {
	fmt.Fprintf(w, "\nResults (%d runs):\n", len(results))
	if errCount > 0 {
		fmt.Fprintf(w, "  (%d runs failed)\n", errCount)
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		fmt.Fprintf(w, "  seed %-6d %s  ticks %d  events %d  wars %d  rejected %d  checksum %.16s\n",
			r.Seed, r.FinalDate, r.Ticks, r.Events, r.Wars, r.Rejected, r.Checksum)
		if r.CampaignID != "" {
			fmt.Fprintf(w, "             recorded as campaign %s\n", r.CampaignID)
		}
	}
}

func printJSON(w io.Writer, results []*runResult, total, errCount int) {
	out := struct {
		Total   int          `json:"total"`
		Errors  int          `json:"errors"`
		Results []*runResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
