// Command decktuner estimates a deck's opening-hand and early-turn
// reliability: it parses a decklist, classifies every card into functional
// roles, then runs many randomized mulligan-and-draw trials and reports the
// probability that each configured condition is online by each turn.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ramonehamilton/DeckTuner/internal/condition"
	"github.com/ramonehamilton/DeckTuner/internal/config"
	"github.com/ramonehamilton/DeckTuner/internal/deck"
	"github.com/ramonehamilton/DeckTuner/internal/facts"
	"github.com/ramonehamilton/DeckTuner/internal/roles"
	"github.com/ramonehamilton/DeckTuner/internal/sim"
	"github.com/ramonehamilton/DeckTuner/internal/storage"
	"github.com/ramonehamilton/DeckTuner/internal/version"
	"github.com/ramonehamilton/DeckTuner/internal/watch"
)

var (
	deckPath   = flag.String("deck", "-", "Decklist path, or '-' to read from stdin")
	configPath = flag.String("config", "", "TOML config file (defaults apply if omitted)")
	cardsPath  = flag.String("cards", "", "JSON card-data file used to resolve card facts")

	iterations   = flag.Int("iterations", 0, "Number of trials (overrides config)")
	seed         = flag.Int64("seed", 0, "Random seed for reproducible runs (overrides config)")
	handSize     = flag.Int("hand-size", 0, "Opening hand size (overrides config)")
	maxMulligans = flag.Int("max-mulligans", -1, "Maximum mulligans before a forced keep (overrides config)")
	maxTurn      = flag.Int("max-turn", 0, "Last turn to simulate (overrides config)")
	onThePlay    = flag.Bool("on-the-play", false, "Skip the turn-1 draw")
	deckSize     = flag.Int("deck-size", -1, "Expected deck size for the invariant check, 0 disables (overrides config)")
	strictMode   = flag.Bool("strict", false, "Treat unresolved cards as fatal instead of degrading them")

	watchMode = flag.Bool("watch", false, "Re-run the simulation when the decklist or config changes")

	historyDB   = flag.String("history-db", "", "SQLite run-history database (default ~/.decktuner/history.db)")
	saveHistory = flag.Bool("save-history", false, "Persist the finalized result to the run history")
	listRuns    = flag.Bool("list-runs", false, "List stored runs for this deck and exit")

	debugMode   = flag.Bool("debug", false, "Enable verbose debug logging")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func historyPath() string {
	if *historyDB != "" {
		return *historyDB
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Error getting home directory: %v", err)
	}
	return filepath.Join(home, ".decktuner", "history.db")
}

// loadConfig merges the config file with explicitly set flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iterations":
			cfg.Simulation.Iterations = *iterations
		case "seed":
			cfg.Simulation.Seed = *seed
		case "hand-size":
			cfg.Simulation.HandSize = *handSize
		case "max-mulligans":
			cfg.Simulation.MaxMulligans = *maxMulligans
		case "max-turn":
			cfg.Simulation.MaxTurn = *maxTurn
		case "on-the-play":
			cfg.Simulation.OnThePlay = *onThePlay
		case "deck-size":
			cfg.Simulation.DeckSize = *deckSize
		case "strict":
			cfg.Simulation.Strict = *strictMode
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readDeckText(path string) (string, error) {
	if path == "-" || strings.TrimSpace(path) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read decklist from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read decklist: %w", err)
	}
	return string(data), nil
}

func deckName(path string) string {
	if path == "-" || path == "" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// runOnce executes a full pass: parse, resolve, categorize, compile,
// simulate, report. All I/O happens here, before the trial loop starts.
func runOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	text, err := readDeckText(*deckPath)
	if err != nil {
		return err
	}
	parsed, err := deck.Parse(text, deckName(*deckPath))
	if err != nil {
		return fmt.Errorf("parse decklist: %w", err)
	}

	var warnings []string
	if warn := parsed.CheckSize(cfg.Simulation.DeckSize); warn != "" {
		warnings = append(warnings, warn)
		logger.Warn(warn)
	}

	if *cardsPath == "" {
		return fmt.Errorf("no card data file given (use -cards)")
	}
	store, err := facts.OpenFileStore(*cardsPath)
	if err != nil {
		return err
	}

	overrides, err := cfg.RoleOverrides()
	if err != nil {
		return err
	}
	cat := roles.NewCategorizer(cfg.RoleHeuristics(), overrides, cfg.WinConditions)

	enrichWarnings, err := deck.Enrich(ctx, parsed, store, cat, cfg.Simulation.Strict)
	if err != nil {
		return err
	}
	warnings = append(warnings, enrichWarnings...)

	engine, err := condition.Compile(cfg.ConditionSpecs())
	if err != nil {
		return fmt.Errorf("compile conditions: %w", err)
	}

	compiled, err := sim.CompileDeck(parsed)
	if err != nil {
		return err
	}

	runner := &sim.Runner{
		Deck:   compiled,
		Engine: engine,
		Params: cfg.Params(),
		Logger: logger,
		Progress: func(done, total int) {
			logger.Debug("progress", "done", done, "total", total)
		},
	}
	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	result.Warnings = append(result.Warnings, warnings...)

	printSummary(os.Stdout, result)

	if *saveHistory {
		db, err := storage.Open(storage.DefaultConfig(historyPath()))
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()
		id, err := db.SaveRun(ctx, storage.DeckHash(parsed), result)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		logger.Info("run saved", "id", id)
	}
	return nil
}

func listStoredRuns(ctx context.Context) error {
	text, err := readDeckText(*deckPath)
	if err != nil {
		return err
	}
	parsed, err := deck.Parse(text, deckName(*deckPath))
	if err != nil {
		return fmt.Errorf("parse decklist: %w", err)
	}

	db, err := storage.Open(storage.DefaultConfig(historyPath()))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	runs, err := db.ListRuns(ctx, storage.DeckHash(parsed), 20)
	if err != nil {
		return err
	}
	printRunList(os.Stdout, runs)
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("decktuner %s\n", version.GetVersion())
		return
	}

	level := slog.LevelInfo
	if *debugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listRuns {
		if err := listStoredRuns(ctx); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if !*watchMode {
		if err := runOnce(ctx, cfg, logger); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	if *deckPath == "-" || *deckPath == "" {
		log.Fatal("watch mode needs a decklist file, not stdin")
	}

	paths := []string{*deckPath}
	if *configPath != "" {
		paths = append(paths, *configPath)
	}

	// First run up front, then once per change burst.
	if err := runOnce(ctx, cfg, logger); err != nil {
		logger.Error("initial run failed", "error", err)
	}
	watcher := watch.New(paths, 500*time.Millisecond, logger)
	err = watcher.Run(ctx, func(ctx context.Context) error {
		// Reload the config so edits to it take effect too. A broken
		// intermediate save is reported and retried on the next change.
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runOnce(ctx, cfg, logger)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("Error: %v", err)
	}
}
