// Package app orchestrates a full pipeline run: ingest, profile, advise,
// reconcile, transform, assemble, validate, export.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/datacanary/datacanary/pkg/advice"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/export"
	"github.com/datacanary/datacanary/pkg/pipeline/worker"
	"github.com/datacanary/datacanary/pkg/profile"
	"github.com/datacanary/datacanary/pkg/reconcile"
	"github.com/datacanary/datacanary/pkg/tabular"
	"github.com/datacanary/datacanary/pkg/transform"
)

// Options configures one pipeline run.
type Options struct {
	InputPath    string
	OutputPrefix string

	TableName string
	Version   string
	CreatedBy string

	// OverridesPath points at an optional YAML file of user column
	// overrides and roles. Empty means no overrides.
	OverridesPath string

	// ExtraIdentity is merged into the contract identity block.
	ExtraIdentity map[string]string

	// Advisor is optional. When nil the run is heuristics-only and the
	// contract carries no llm_usage block.
	Advisor advice.Advisor

	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	Logger zerolog.Logger
}

// Result is what a completed run produced.
type Result struct {
	Contract     *contract.MetadataContract
	Outputs      export.Outputs
	TransformLog []transform.LogEntry
	Summary      string
}

type usageReporter interface {
	Usage() contract.LLMUsage
}

// Run executes the pipeline end to end. An invalid contract aborts the run
// before anything touches disk, with every validation issue in the error.
func (o Options) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := o.Logger.With().Str("run_id", runID).Str("input", o.InputPath).Logger()
	runStart := time.Now()

	if o.TableName == "" {
		o.TableName = tableNameFromPath(o.InputPath)
	}
	if o.Version == "" {
		o.Version = "1.0.0"
	}
	if o.CreatedBy == "" {
		o.CreatedBy = "datacanary"
	}

	ds, err := readInput(o.InputPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("rows", ds.RowCount()).Int("columns", ds.ColumnCount()).Msg("dataset loaded")

	report := profile.Dataset(ds)
	for _, issue := range report.Issues {
		log.Warn().Str("type", issue.Type).Str("column", issue.Column).Msg(issue.Message)
	}

	naming, types := o.runAdvisory(ctx, log, report)

	ov, err := LoadOverrides(o.OverridesPath)
	if err != nil {
		return nil, err
	}

	schema, err := reconcile.Columns(report.Columns, naming, types, ov.Columns)
	if err != nil {
		return nil, fmt.Errorf("reconcile schema: %w", err)
	}

	transformed, tlog, err := transform.Apply(ds, schema)
	if err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	for _, entry := range tlog {
		log.Debug().Str("column", entry.Column).Strs("actions", entry.Actions).Msg("column transformed")
	}

	params := contract.AssembleParams{
		TableName:          o.TableName,
		Version:            o.Version,
		SourcePath:         o.InputPath,
		TargetPath:         o.OutputPrefix + ".parquet",
		CreatedBy:          o.CreatedBy,
		PhysicalSchema:     schema,
		StatisticalProfile: contract.BaselineFrom(report),
		ExtraIdentity:      o.ExtraIdentity,
		ColumnRoles:        ov.Roles,
	}
	if ur, ok := o.Advisor.(usageReporter); ok && o.Advisor != nil {
		usage := ur.Usage()
		if usage.Calls > 0 {
			params.LLMUsage = &usage
		}
	}
	c := contract.Assemble(params)

	if ok, issues := contract.Validate(c); !ok {
		return nil, fmt.Errorf("contract validation failed: %s", strings.Join(issues, "; "))
	}

	outputs, err := export.GenerateOutputs(transformed, &c, o.OutputPrefix)
	if err != nil {
		return nil, err
	}
	summary := export.Summary(outputs)
	log.Info().
		Str("parquet", outputs.ParquetPath).
		Str("contract", outputs.ContractPath).
		Dur("elapsed", time.Since(runStart)).
		Msg("run complete")

	return &Result{
		Contract:     &c,
		Outputs:      outputs,
		TransformLog: tlog,
		Summary:      summary,
	}, nil
}

// runAdvisory drives the naming and type checks through the worker pool.
// Advisory failures degrade the run instead of aborting it: a nil report
// simply means no suggestions at that precedence level.
func (o Options) runAdvisory(ctx context.Context, log zerolog.Logger, report profile.Report) (*advice.NamingReport, *advice.TypeReport) {
	if o.Advisor == nil {
		log.Info().Msg("no advisor configured, running heuristics-only")
		return nil, nil
	}

	type advisoryResult struct {
		naming *advice.NamingReport
		types  *advice.TypeReport
	}

	jobs := []string{"naming_check", "type_check"}
	results, err := worker.ProcessAll(ctx, jobs, func(ctx context.Context, job string) (advisoryResult, error) {
		switch job {
		case "naming_check":
			r, err := o.Advisor.CheckNaming(ctx, report.ColumnNames())
			return advisoryResult{naming: r}, err
		default:
			r, err := o.Advisor.CheckTypes(ctx, report.Schema, report.Columns)
			return advisoryResult{types: r}, err
		}
	}, worker.Options{
		Workers:        2,
		MaxRetries:     o.MaxRetries,
		RequestTimeout: o.RequestTimeout,
		RateLimitRPS:   o.RateLimitRPS,
		FailurePolicy:  worker.FailurePolicyPartialOutput,
	})
	if err != nil {
		log.Warn().Err(err).Msg("advisory run aborted, continuing without suggestions")
		return nil, nil
	}

	var naming *advice.NamingReport
	var types *advice.TypeReport
	for _, res := range results {
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("job", res.Input).Msg("advisory check failed, continuing without it")
			continue
		}
		if res.Output.naming != nil {
			naming = res.Output.naming
			log.Info().Int("violations", len(naming.Violations)).Msg(naming.Summary)
		}
		if res.Output.types != nil {
			types = res.Output.types
			log.Info().Int("suggestions", len(types.Suggestions)).Msg(types.Summary)
		}
	}
	return naming, types
}

func readInput(path string) (*tabular.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	ds, err := tabular.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read input csv: %w", err)
	}
	return ds, nil
}

func tableNameFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return "dataset"
	}
	return base
}
