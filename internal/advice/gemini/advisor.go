// Package gemini implements the advisory interface against the Gemini API
// using structured JSON output.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/datacanary/datacanary/pkg/advice"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/pipeline/core"
	"github.com/datacanary/datacanary/pkg/profile"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Advisor calls Gemini for naming and type critiques. It is safe for
// concurrent use and accumulates token usage across calls.
type Advisor struct {
	client *genai.Client
	model  string

	mu    sync.Mutex
	usage contract.LLMUsage
}

func New(ctx context.Context, cfg Config) (*Advisor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Advisor{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
		usage:  contract.LLMUsage{Model: strings.TrimSpace(cfg.Model)},
	}, nil
}

var namingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"violations": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"column_name":    {Type: genai.TypeString},
					"suggested_name": {Type: genai.TypeString},
					"reason":         {Type: genai.TypeString},
				},
				Required: []string{"column_name", "suggested_name", "reason"},
			},
		},
	},
	Required: []string{"summary", "violations"},
}

var typeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"suggestions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"column_name":            {Type: genai.TypeString},
					"current_dtype":          {Type: genai.TypeString},
					"suggested_logical_type": {Type: genai.TypeString},
					"suggested_type":         {Type: genai.TypeString},
					"reasoning":              {Type: genai.TypeString},
				},
				Required: []string{"column_name", "suggested_type", "reasoning"},
			},
		},
	},
	Required: []string{"summary", "suggestions"},
}

// CheckNaming asks the model to flag column names that violate snake_case
// conventions and to propose replacements.
func (a *Advisor) CheckNaming(ctx context.Context, columns []string) (*advice.NamingReport, error) {
	if len(columns) == 0 {
		return nil, errors.New("no columns to check")
	}

	resp, err := a.generate(ctx, namingCheckPrompt(columns), namingSchema)
	if err != nil {
		return nil, err
	}

	var report advice.NamingReport
	if err := json.Unmarshal([]byte(resp.Text()), &report); err != nil {
		return nil, fmt.Errorf("gemini: parse naming report: %w", err)
	}
	return &report, nil
}

// CheckTypes asks the model to suggest more precise target types for the
// observed schema, using column statistics as supporting context.
func (a *Advisor) CheckTypes(ctx context.Context, schema map[string]string, columns []profile.ColumnProfile) (*advice.TypeReport, error) {
	if len(schema) == 0 {
		return nil, errors.New("no schema to check")
	}

	prompt, err := typeCheckPrompt(schema, columns)
	if err != nil {
		return nil, err
	}
	resp, err := a.generate(ctx, prompt, typeSchema)
	if err != nil {
		return nil, err
	}

	var report advice.TypeReport
	if err := json.Unmarshal([]byte(resp.Text()), &report); err != nil {
		return nil, fmt.Errorf("gemini: parse type report: %w", err)
	}
	return &report, nil
}

// Usage reports the token counts accumulated so far.
func (a *Advisor) Usage() contract.LLMUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

func (a *Advisor) generate(ctx context.Context, prompt string, schema *genai.Schema) (*genai.GenerateContentResponse, error) {
	resp, err := a.client.Models.GenerateContent(
		ctx,
		a.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}
	a.recordUsage(resp)
	return resp, nil
}

func (a *Advisor) recordUsage(resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	u := resp.UsageMetadata
	a.mu.Lock()
	a.usage.Calls++
	a.usage.PromptTokens += int(u.PromptTokenCount)
	a.usage.CompletionTokens += int(u.CandidatesTokenCount)
	a.usage.TotalTokens += int(u.TotalTokenCount)
	a.mu.Unlock()
}

func namingCheckPrompt(columns []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(`
You are an expert Data Architect specializing in data warehousing best practices.
Your task is to analyze a list of column names for a dataset and identify any that violate modern naming conventions.

Conventions to enforce:
1. Format: all names must be in snake_case (e.g. user_id, total_amount).
2. Clarity: names should be descriptive and avoid abbreviations where a full word is clearer.
3. Case: avoid PascalCase (OrderDate), camelCase (orderDate), and ALL_CAPS (ORDER_ID).
4. Special characters: avoid spaces, hyphens, and other special characters.

Analyze the following column names and provide your structured critique.

Column names:
`))
	for _, c := range columns {
		b.WriteString("\n- ")
		b.WriteString(c)
	}
	b.WriteString("\n\nStrictly use the provided JSON schema for your output. If no violations are found, the violations list must be empty and the summary must reflect a passing result.\n")
	return b.String()
}

func typeCheckPrompt(schema map[string]string, columns []profile.ColumnProfile) (string, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("gemini: encode schema: %w", err)
	}
	statsJSON, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("gemini: encode column stats: %w", err)
	}

	return strings.TrimSpace(`
You are a professional Data Engineer and schema expert. Your task is to review a dataset's observed schema and suggest a more precise target type for efficient storage and analysis.

Instructions:
1. Analyze context: use the column name and statistics to infer the intent (e.g. 'date', 'currency', 'identifier').
2. Suggest a logical type: a descriptive label such as 'UUID', 'ISO_DATE', 'CURRENCY_USD', 'CATEGORY'.
3. Suggest a target type: one of String, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float32, Float64, Boolean, Date, Datetime, Time, or Decimal(precision,scale).
4. Provide reasoning: explain why you are suggesting the change or confirming the existing type.

Observed schema:
`) + "\n" + string(schemaJSON) + "\n\nColumn statistics:\n" + string(statsJSON) + "\n\nStrictly use the provided JSON schema for your output.\n", nil
}

func classifyErr(err error) error {
	// Wrap transient failures so the worker pool will retry with backoff.
	// Rate-limit rejections carry a reduced retry budget so a throttled run
	// degrades to heuristics quickly instead of stalling the whole pipeline.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &core.LimitedTransientError{Err: err, ExtraRetries: 1}
		case apiErr.Code/100 == 5:
			return &core.TransientError{Err: err}
		default:
			return err
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: err}
	}
	return err
}
