package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog/log"

	"tickbot/internal/config"
	"tickbot/internal/harness"
	"tickbot/internal/scenario"
	"tickbot/internal/signal"
	"tickbot/internal/store"
	"tickbot/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	dbPath := flag.String("db", "", "SQLite journal path, overrides the config")
	workers := flag.Uint("workers", 0, "Scenarios replayed in parallel, overrides the config")
	resume := flag.String("resume", "", "Journaled run ID whose last trader data seeds the replay")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] scenario.yaml [scenario.yaml ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Error: at least one scenario file is required.")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *workers > 0 {
		cfg.Runner.Workers = int(*workers)
	}

	log.Logger = utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := ossignal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	if err := run(ctx, cfg, *resume, flag.Args()); err != nil {
		log.Error().Err(err).Msg("replay failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, resumeRunID string, paths []string) error {
	params := cfg.Strategy.Params()
	if err := params.Validate(); err != nil {
		return err
	}

	scenarios := make([]*scenario.Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	var journal *store.Store
	if cfg.Store.Path != "" {
		var err error
		journal, err = store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() {
			if err := journal.Close(); err != nil {
				log.Error().Err(err).Msg("unable to close journal")
			}
		}()
	}

	var resume harness.Option
	if resumeRunID != "" {
		if journal == nil {
			return errors.New("-resume needs a journal, set -db or store.path")
		}
		var err error
		resume, err = harness.ResumeFrom(ctx, journal, resumeRunID)
		if err != nil {
			return err
		}
		log.Info().Str("run", resumeRunID).Msg("resuming trader data")
	}

	newRunner := func() (*harness.Runner, error) {
		trader, err := signal.NewTrader(params,
			signal.WithLogger(log.Logger.With().Str("component", "trader").Logger()))
		if err != nil {
			return nil, err
		}
		opts := []harness.Option{
			harness.WithLogger(log.Logger.With().Str("component", "runner").Logger()),
		}
		if journal != nil {
			opts = append(opts, harness.WithJournal(journal))
		}
		if resume != nil {
			opts = append(opts, resume)
		}
		return harness.NewRunner(trader, opts...), nil
	}

	log.Info().
		Int("scenarios", len(scenarios)).
		Int("workers", cfg.Runner.Workers).
		Int("short_window", params.ShortWindow).
		Int("long_window", params.LongWindow).
		Msg("replaying")

	reports, err := harness.RunAll(ctx, scenarios, uint(cfg.Runner.Workers), newRunner)
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("replay interrupted")
		return nil
	}
	if err != nil {
		return err
	}

	for _, report := range reports {
		printReport(report)
	}
	return nil
}

func printReport(r *harness.Report) {
	fmt.Printf("\n== %s\n", r.Scenario)
	if r.RunID != "" {
		fmt.Printf("Run:      %s\n", r.RunID)
	}
	fmt.Printf("Ticks:    %d\n", r.Ticks)
	fmt.Printf("Orders:   %d sent, %d rejected\n", r.OrdersSent, r.OrdersRejected)
	fmt.Printf("Fills:    %d\n", len(r.Fills))
	for _, fill := range r.Fills {
		side := "BUY "
		if fill.Seller == harness.TraderOwner {
			side = "SELL"
		}
		fmt.Printf("  %s %-12s %6d @ %.2f\n", side, fill.Symbol, fill.Quantity, fill.Price)
	}

	symbols := make([]string, 0, len(r.Positions))
	for symbol := range r.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		fmt.Printf("Position: %-12s %6d\n", symbol, r.Positions[symbol])
	}
	fmt.Printf("Cash:     %.2f\n", r.Cash)
}
