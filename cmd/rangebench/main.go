// Command rangebench replays a recorded (or synthetic) trace of
// mark/unmark operations across one or more RangeTrackers and prints
// a summary, the benchmark harness spec.md §6 and §8 scenario 6 call
// for.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gaby/rangetracker/internal/config"
	"github.com/gaby/rangetracker/internal/corpus"
	"github.com/gaby/rangetracker/internal/debugapi"
	"github.com/gaby/rangetracker/internal/logging"
	"github.com/gaby/rangetracker/internal/replay"
	"github.com/gaby/rangetracker/internal/report"
	"github.com/gaby/rangetracker/internal/tracefmt"
)

func main() {
	var cfgPath, tracePath, scenario, saveAs string
	flag.StringVar(&cfgPath, "config", "/config/rangebench.json", "path to config file (json)")
	flag.StringVar(&tracePath, "trace", "", "path to a trace file (.jsonl or .bin); empty uses the config's paths.default_trace, or -scenario if that is empty too")
	flag.StringVar(&scenario, "scenario", "scenario6", "built-in synthetic workload to run when -trace is empty (only scenario6 is defined)")
	flag.StringVar(&saveAs, "save-as", "", "if set, save the replayed trace into the corpus DB under this name")
	flag.Parse()

	if err := config.EnsureConfigFile(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "config bootstrap: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validate: %v\n", err)
		os.Exit(1)
	}
	// Persist the defaulted/resolved config back to -config, so a config
	// file written before new fields existed picks up their defaults on
	// disk instead of only in memory.
	if err := config.Save(cfgPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config save: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	sugar := logger.Sugar()

	if tracePath == "" {
		tracePath = cfg.Paths.DefaultTrace
	}
	ops, err := loadOps(tracePath, scenario)
	if err != nil {
		sugar.Fatalf("load trace: %v", err)
	}

	ctx := context.Background()
	results, err := replay.Run(ctx, ops, cfg.Replay.Concurrency, logger)
	if err != nil {
		sugar.Fatalf("replay: %v", err)
	}

	if saveAs != "" {
		store, err := corpus.Open(cfg.Paths.CorpusDB)
		if err != nil {
			sugar.Fatalf("corpus open: %v", err)
		}
		defer store.Close()
		if err := store.SaveTrace(saveAs, ops); err != nil {
			sugar.Fatalf("corpus save: %v", err)
		}
		sugar.Infof("saved trace %q (%d ops) to %s", saveAs, len(ops), cfg.Paths.CorpusDB)
	}

	lines := report.Build(results)
	if err := report.Write(os.Stdout, lines); err != nil {
		sugar.Fatalf("write report: %v", err)
	}

	if cfg.DebugAPI.Enabled {
		srv := debugapi.New()
		for _, r := range results {
			srv.Set(r.TrackerID, r.Tracker)
		}
		sugar.Infof("debug API listening on %s", cfg.DebugAPI.Addr)
		if err := srv.ListenAndServe(cfg.DebugAPI.Addr); err != nil {
			sugar.Fatalf("debug API: %v", err)
		}
	}
}

func loadOps(tracePath, scenario string) ([]tracefmt.Op, error) {
	if tracePath == "" {
		switch scenario {
		case "scenario6", "":
			return tracefmt.Scenario6("scenario6"), nil
		default:
			return nil, fmt.Errorf("unknown built-in scenario %q", scenario)
		}
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(tracePath, ".bin") {
		return tracefmt.ReadBinary(f)
	}
	return tracefmt.ReadJSONL(f)
}
