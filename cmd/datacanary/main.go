package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/datacanary/datacanary/internal/advice/gemini"
	"github.com/datacanary/datacanary/internal/app"
	"github.com/datacanary/datacanary/internal/util"
	"github.com/datacanary/datacanary/internal/version"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/export"
)

func main() {
	ctx := context.Background()

	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		fmt.Println(version.Current)
		return
	case "run":
		os.Exit(runPipeline(ctx, os.Args[2:]))
	case "validate":
		os.Exit(validateContract(os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

// metaFlags collects repeatable --meta key=value pairs for the identity block.
type metaFlags map[string]string

func (m metaFlags) String() string { return fmt.Sprintf("%v", map[string]string(m)) }

func (m metaFlags) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	m[strings.TrimSpace(k)] = val
	return nil
}

func runPipeline(ctx context.Context, args []string) int {
	envCfg, err := loadRunConfigFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	meta := metaFlags{}

	inputPath := fs.String("input", "", "Input CSV file path")
	outputPrefix := fs.String("output-prefix", "", "Output path prefix for <prefix>.parquet and <prefix>_metadata.json")
	tableName := fs.String("table-name", "", "Logical table name (default: input file basename)")
	contractVersion := fs.String("contract-version", "1.0.0", "Contract version stamped into the identity block")
	createdBy := fs.String("created-by", "datacanary "+version.Current, "Contract author recorded in the identity block")
	overridesPath := fs.String("overrides", "", "YAML file of user column overrides and roles")
	noLLM := fs.Bool("no-llm", envCfg.NoLLM, "Disable advisory LLM checks (env: DATACANARY_NO_LLM)")
	maxRetries := fs.Int("max-retries", envCfg.MaxRetries, "Max retries per advisory call for transient failures (env: MAX_RETRIES)")
	requestTimeout := fs.Duration("request-timeout", envCfg.RequestTimeout, "Per-call advisory timeout (env: REQUEST_TIMEOUT)")
	rateLimitRPS := fs.Float64("rate-limit-rps", envCfg.RateLimitRPS, "Global advisory request rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	geminiModel := fs.String("gemini-model", envCfg.GeminiModel, "Gemini model name (env: GEMINI_MODEL)")
	geminiBaseURL := fs.String("gemini-base-url", envCfg.GeminiBaseURL, "Gemini API base URL override (env: GEMINI_BASE_URL)")
	fs.Var(meta, "meta", "Extra identity key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inputPath == "" || *outputPrefix == "" {
		_, _ = fmt.Fprintln(os.Stderr, "run requires --input and --output-prefix")
		return 2
	}

	logger := newLogger()

	opts := app.Options{
		InputPath:      *inputPath,
		OutputPrefix:   *outputPrefix,
		TableName:      *tableName,
		Version:        *contractVersion,
		CreatedBy:      *createdBy,
		OverridesPath:  *overridesPath,
		ExtraIdentity:  meta,
		MaxRetries:     *maxRetries,
		RequestTimeout: *requestTimeout,
		RateLimitRPS:   *rateLimitRPS,
		Logger:         logger,
	}

	if !*noLLM {
		advisor, err := gemini.New(ctx, gemini.Config{
			APIKey:  envCfg.GeminiAPIKey,
			Model:   *geminiModel,
			BaseURL: *geminiBaseURL,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", util.RedactSecrets(err.Error()))
			return 2
		}
		opts.Advisor = advisor
	}

	res, err := opts.Run(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	fmt.Println(res.Summary)
	return 0
}

func validateContract(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	contractPath := fs.String("contract", "", "Path to a <prefix>_metadata.json contract document")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *contractPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "validate requires --contract")
		return 2
	}

	c, err := export.LoadContract(*contractPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load contract: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}

	ok, issues := contract.Validate(*c)
	if !ok {
		for _, issue := range issues {
			fmt.Println(issue)
		}
		return 1
	}
	fmt.Printf("%s is valid\n", *contractPath)
	return 0
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

type runConfig struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	NoLLM         bool

	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64
}

func loadRunConfigFromEnv() (runConfig, error) {
	noLLM, err := envBool("DATACANARY_NO_LLM")
	if err != nil {
		return runConfig{}, err
	}
	maxRetries, err := envInt("MAX_RETRIES", 3)
	if err != nil {
		return runConfig{}, err
	}
	requestTimeout, err := envDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return runConfig{}, err
	}
	rateLimitRPS, err := envFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return runConfig{}, err
	}

	return runConfig{
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:    envDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:  strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		NoLLM:          noLLM,
		MaxRetries:     maxRetries,
		RequestTimeout: requestTimeout,
		RateLimitRPS:   rateLimitRPS,
	}, nil
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `datacanary: schema reconciliation and metadata-contract pipeline

Usage:
  datacanary <command> [flags]

Commands:
  run       Profile a CSV, reconcile its schema, and export Parquet + contract
  validate  Check an existing contract document for structural issues
  version   Print the tool version

Examples:
  datacanary run --input sales.csv --output-prefix out/sales
  datacanary run --input sales.csv --output-prefix out/sales --overrides overrides.yaml --meta department=finance
  datacanary validate --contract out/sales_metadata.json

Environment:
  GEMINI_API_KEY     Gemini API key (required unless --no-llm)
  GEMINI_MODEL       Gemini model name (default: gemini-2.5-flash)
  GEMINI_BASE_URL    Optional base URL override (proxies/testing)
  DATACANARY_NO_LLM  If true/1, skip advisory LLM checks
  MAX_RETRIES        Max retries per advisory call (default: 3)
  REQUEST_TIMEOUT    Per-call advisory timeout (default: 30s)
  RATE_LIMIT_RPS     Global advisory rate limit, 0 disables
  LOG_LEVEL          zerolog level (debug, info, warn, error)

A .env file in the working directory is loaded if present.
`)
}

func envDefault(varName, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		return v
	}
	return fallback
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
