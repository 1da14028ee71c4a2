// sigserver ingests structured failure events and produces operational
// verdicts: a recalculated severity, a category classification, a
// remediation recommendation, and a human-readable summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ekovan/sigserver/internal/config"
	"github.com/ekovan/sigserver/internal/event"
	"github.com/ekovan/sigserver/internal/pipeline"
	"github.com/ekovan/sigserver/internal/server"
	"github.com/ekovan/sigserver/internal/simulate"
	"github.com/ekovan/sigserver/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "analyze":
			runAnalyze(os.Args[2:])
			return
		case "query":
			runQuery(os.Args[2:])
			return
		case "stats":
			runStats(os.Args[2:])
			return
		case "simulate":
			runSimulate(os.Args[2:])
			return
		case "version":
			fmt.Println("sigserver", version)
			return
		}
	}

	// Default: run the ingest server.
	runServe(os.Args[1:])
}

func runServe(args []string) {
	fs := flag.NewFlagSet("sigserver", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Parse(args)

	if *showVersion {
		fmt.Println("sigserver", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)

	slog.Info("sigserver starting", "version", version, "listen", cfg.Server.Listen)

	if err := serve(cfg); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening event database: %w", err)
	}
	defer db.Close()

	slog.Info("event database opened", "path", cfg.DBPath())

	// Run retention purge on startup.
	if cfg.DB.Retention.Duration > 0 {
		purged, err := db.Purge(cfg.DB.Retention.Duration)
		if err != nil {
			slog.Warn("failed to purge old events", "error", err)
		} else if purged > 0 {
			slog.Info("purged old events", "count", purged, "retention", cfg.DB.Retention.Duration)
		}
	}

	pipe := pipeline.New(pipeline.Rules{
		Severity: cfg.SeverityRules(),
		Category: cfg.CategoryRules(),
	})

	srv := server.New(pipe, db)
	if err := srv.ListenAndServe(ctx, cfg.Server.Listen); err != nil {
		return fmt.Errorf("running http api: %w", err)
	}

	slog.Info("sigserver stopped")
	return nil
}

// --- analyze subcommand ---

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	file := fs.String("file", "-", "event JSON file (- for stdin)")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error") // quiet for CLI output

	var payload []byte
	if *file == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(*file)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading event: %v\n", err)
		os.Exit(1)
	}

	pipe := pipeline.New(pipeline.Rules{
		Severity: cfg.SeverityRules(),
		Category: cfg.CategoryRules(),
	})

	res, err := pipe.Process(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error processing event: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	} else if res.Status == event.StatusRejected {
		fmt.Printf("rejected: %s\n", res.Reason)
	} else {
		fmt.Println(res.HumanReadable)
	}

	if res.Status == event.StatusRejected {
		os.Exit(1)
	}
}

// --- query subcommand ---

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	last := fs.String("last", "24h", "time window (e.g. 24h, 7d, 30d)")
	service := fs.String("service", "", "filter by service name")
	severity := fs.String("severity", "", "filter by calculated severity")
	category := fs.String("category", "", "filter by classification")
	limit := fs.Int("limit", 50, "max events to show")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error")

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	window, err := parseDuration(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --last value %q: %v\n", *last, err)
		os.Exit(1)
	}

	events, err := db.Query(store.QueryFilter{
		Since:    time.Now().Add(-window),
		Service:  *service,
		Severity: strings.ToLower(*severity),
		Category: strings.ToLower(*category),
		Limit:    *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "query error: %v\n", err)
		os.Exit(1)
	}

	if len(events) == 0 {
		fmt.Println("No events found.")
		return
	}

	printEvents(events)
}

func printEvents(events []*store.StoredEvent) {
	for _, ev := range events {
		ts := ev.CreatedAt.Local().Format("2006-01-02 15:04:05")
		fmt.Printf("%s  [%s] %-16s %s: %s\n",
			ts, ev.CalculatedSeverity, ev.Classification.Label(), ev.Service, ev.Message)
		if ev.Severity != string(ev.CalculatedSeverity) {
			fmt.Printf("             reported as: %s\n", ev.Severity)
		}
	}
	fmt.Printf("Total: %d event(s)\n", len(events))
}

// --- stats subcommand ---

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	last := fs.String("last", "24h", "time window (e.g. 24h, 7d, 30d)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error")

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	window, err := parseDuration(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --last value %q: %v\n", *last, err)
		os.Exit(1)
	}

	stats, err := db.Summarize(time.Now().Add(-window))
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Events (%s):      %d\n", *last, stats.TotalEvents)
	for _, sev := range event.Levels {
		if n := stats.BySeverity[string(sev)]; n > 0 {
			fmt.Printf("  %-14s %d\n", sev.Label()+":", n)
		}
	}
	fmt.Printf("Affected services: %d\n", stats.AffectedServices)
	for _, sc := range stats.TopServices {
		fmt.Printf("  %-14s %d\n", sc.Service+":", sc.Count)
	}
}

// --- simulate subcommand ---

func runSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	count := fs.Int("count", 10, "number of events to generate")
	interval := fs.Duration("interval", 0, "delay between events")
	url := fs.String("url", "", "server base URL (empty runs the pipeline in-process)")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error")

	gen := simulate.NewGenerator(*seed)

	var process func(ctx context.Context, ev *event.FailureEvent) (*event.AnalysisResult, error)
	if *url != "" {
		sender := simulate.NewSender(*url)
		process = sender.Send
	} else {
		pipe := pipeline.New(pipeline.Rules{
			Severity: cfg.SeverityRules(),
			Category: cfg.CategoryRules(),
		})
		process = func(_ context.Context, ev *event.FailureEvent) (*event.AnalysisResult, error) {
			return pipe.ProcessEvent(ev)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for i := 0; i < *count; i++ {
		if ctx.Err() != nil {
			break
		}

		ev := gen.Generate()
		res, err := process(ctx, ev)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error processing %s: %v\n", ev.EventID, err)
			continue
		}

		fmt.Printf("%s  %s -> %s / %s (reported %s)\n",
			res.EventID, ev.Service, res.CalculatedSeverity, res.Classification, res.OriginalSeverity)

		if *interval > 0 && i < *count-1 {
			select {
			case <-time.After(*interval):
			case <-ctx.Done():
			}
		}
	}
}

// --- utilities ---

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// parseDuration extends time.ParseDuration with support for "d"
// (days) suffix.
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid days format: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
