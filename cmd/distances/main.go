package main

import (
	"context"
	"distance-batch-service/internal/adapters/export"
	"distance-batch-service/internal/app"
	"distance-batch-service/internal/config"
	"distance-batch-service/internal/domain"
	"distance-batch-service/internal/platform/obs"
	"distance-batch-service/internal/ports"
	"distance-batch-service/internal/services"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Pairs resolved when no input is given.
var defaultInput = strings.Join([]string{
	"SW1A 1AA,EC1A 1BB",
	"M1 1AE,L1 8JQ",
	"BS1 4ST,BT1 5GS",
}, "\n")

const (
	exitOK      = 0
	exitAborted = 1
	exitUsage   = 2
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("distances", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger, err := obs.NewConsoleLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	if cfg.APIKey == "" {
		fmt.Fprintln(stderr, "Error: an API key is required (--api-key or GOOGLE_API_KEY)")
		return exitUsage
	}

	text, err := readInput(cfg.Input, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	opts, err := app.NewRunOptions(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	opts.Progress = func(p services.Progress) {
		fmt.Fprintf(stderr, "Processed %d/%d (%.0f%%)\n", p.Done, p.Total, 100*p.Fraction())
	}
	opts.AttemptFailed = func(pair domain.Pair, attempt int, err error) {
		logger.Warn("attempt failed",
			zap.String("origin", pair.Origin),
			zap.String("destination", pair.Destination),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.Policy.MaxAttempts),
			zap.Error(err),
		)
	}

	provider, err := app.NewProviderFactory(cfg, logger)(cfg.APIKey)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	result, runErr := services.Resolve(ctx, text, provider, opts)

	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		archiveRun(ctx, cfg, logger, result)
	}

	if err := export.WriteTable(stdout, result.Results); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitAborted
	}
	fmt.Fprintf(stdout, "Completed %d requests.\n", result.Stats.RequestsMade)
	fmt.Fprintf(stdout, "Estimated API cost: $%.2f USD\n", result.Stats.EstimatedCost())

	if runErr != nil {
		if errors.Is(runErr, ports.ErrInvalidAPIKey) {
			fmt.Fprintln(stderr, "Error: invalid API key, please check your API key.")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", runErr)
		}
		return exitAborted
	}

	if err := writeCSVFile(cfg.Output, result.Results); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitAborted
	}
	fmt.Fprintf(stdout, "Results saved to %s\n", cfg.Output)

	return exitOK
}

// readInput returns the default pairs for "", stdin for "-" and the file contents otherwise.
func readInput(path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return defaultInput, nil
	case "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(b), nil
	}
}

func writeCSVFile(path string, results []domain.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write csv file: close: %w", cerr)
		}
	}()

	return export.WriteCSV(f, results)
}

func archiveRun(ctx context.Context, cfg *config.Config, logger *zap.Logger, run domain.Run) {
	ctx = context.WithoutCancel(ctx)

	archive, closeArchive, err := app.OpenArchive(ctx, cfg, logger)
	if err != nil {
		logger.Warn("run not archived", zap.Error(err))
		return
	}
	defer func() { _ = closeArchive() }()

	if err := archive.SaveRun(ctx, run); err != nil {
		logger.Warn("run not archived", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	logger.Info("run archived", zap.String("run_id", run.ID))
}
