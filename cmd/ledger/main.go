package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tirasundara/ledger-engine/internal/config"
	"github.com/tirasundara/ledger-engine/internal/ledger"
	"github.com/tirasundara/ledger-engine/internal/logging"
	"github.com/tirasundara/ledger-engine/internal/report"
	"github.com/tirasundara/ledger-engine/internal/repository"
	"github.com/tirasundara/ledger-engine/internal/service"
)

// options are the command-line settings
type options struct {
	inputFile    string
	configFile   string
	envFile      string
	outputFile   string
	outputFormat string
	lockedPolicy string
	logLevel     string
	prettyPrint  bool
	strict       bool

	// names of the flags given on the command line
	set map[string]bool
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitWithError(err.Error())
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		exitWithError(err.Error())
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		exitWithError(fmt.Sprintf("Failed to create logger: %v", err))
	}
	logger = logger.With(zap.String("run_id", uuid.New().String()))
	defer func() { _ = logger.Sync() }()

	formatter, err := report.NewFormatter(cfg.OutputFormat, cfg.PrettyPrint)
	if err != nil {
		exitWithError(err.Error())
	}

	output, err := run(context.Background(), opts.inputFile, cfg, formatter, logger)
	if err != nil {
		logger.Error("Replay failed", zap.Error(err))
		exitWithError(fmt.Sprintf("Replay failed: %v", err))
	}

	// Output the result
	if opts.outputFile != "" {
		// If no extension is provided, add the formatter's default extension
		outputFile := opts.outputFile
		if !strings.Contains(outputFile, ".") {
			outputFile = fmt.Sprintf("%s.%s", outputFile, formatter.FileExtension())
		}

		if err := os.WriteFile(outputFile, output, 0644); err != nil {
			exitWithError(fmt.Sprintf("Failed to write output file: %v", err))
		}
		return
	}

	if err := writeOutput(os.Stdout, output); err != nil {
		exitWithError(fmt.Sprintf("Failed to write output: %v", err))
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var opts options

	fs.StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	fs.StringVar(&opts.envFile, "env-file", "", "Path to a .env file (default: .env in the working directory, if present)")
	fs.StringVar(&opts.outputFormat, "format", "csv", "Output format: csv or json")
	fs.StringVar(&opts.outputFile, "output", "", "Path to output file (if empty, writes to stdout)")
	fs.BoolVar(&opts.prettyPrint, "pretty", true, "Pretty print JSON output")
	fs.BoolVar(&opts.strict, "strict", false, "Abort on the first malformed row instead of skipping it")
	fs.StringVar(&opts.lockedPolicy, "locked-policy", "freeze", "Handling of records for locked accounts: freeze or allow")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <transactions.csv>\n\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		return options{}, fmt.Errorf("exactly one transactions file is required, got %d", fs.NArg())
	}
	opts.inputFile = fs.Arg(0)

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	return opts, nil
}

// loadConfig layers the flags given on the command line over the config
// file and environment
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configFile, opts.envFile)
	if err != nil {
		return config.Config{}, err
	}

	if opts.set["format"] {
		cfg.OutputFormat = opts.outputFormat
	}
	if opts.set["pretty"] {
		cfg.PrettyPrint = opts.prettyPrint
	}
	if opts.set["strict"] {
		cfg.Mode = string(repository.ModeLenient)
		if opts.strict {
			cfg.Mode = string(repository.ModeStrict)
		}
	}
	if opts.set["locked-policy"] {
		cfg.LockedPolicy = opts.lockedPolicy
	}
	if opts.set["log-level"] {
		cfg.LogLevel = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// run replays inputFile and returns the formatted account table
func run(ctx context.Context, inputFile string, cfg config.Config, formatter report.OutputFormatter, logger *zap.Logger) ([]byte, error) {
	mode, err := repository.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	policy, err := ledger.ParseLockedPolicy(cfg.LockedPolicy)
	if err != nil {
		return nil, err
	}

	repo := repository.NewCSVTransactionRepository(inputFile,
		repository.WithMode(mode),
		repository.WithLogger(logger),
	)

	engine := ledger.NewEngine(
		ledger.WithLogger(logger),
		ledger.WithLockedPolicy(policy),
	)

	result, err := service.NewLedgerService(repo, engine, logger).Process(ctx)
	if err != nil {
		return nil, err
	}

	output, err := formatter.Format(result.Accounts)
	if err != nil {
		return nil, fmt.Errorf("formatting output: %w", err)
	}

	return output, nil
}

func writeOutput(w io.Writer, output []byte) error {
	if _, err := w.Write(output); err != nil {
		return err
	}
	if len(output) > 0 && output[len(output)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

func exitWithError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Run with -h flag for usage information.\n")
	os.Exit(1)
}
