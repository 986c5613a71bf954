// Package export persists the pipeline outputs: the transformed dataset as
// a Parquet file and the metadata contract as a JSON document. Writes are
// all-or-nothing per file, with parent directories created eagerly.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/tabular"
)

// Input contract violations.
var (
	ErrEmptyDataset = errors.New("dataset cannot be nil or empty")
	ErrNilContract  = errors.New("contract cannot be nil")
)

// Outputs holds the paths produced by GenerateOutputs.
type Outputs struct {
	ParquetPath  string
	ContractPath string
}

// SaveContract serializes a contract to pretty-printed JSON at path.
func SaveContract(c *contract.MetadataContract, path string) error {
	if c == nil {
		return ErrNilContract
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contract: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write contract to %s: %w", path, err)
	}
	return nil
}

// LoadContract reads a previously saved contract back for inspection or
// drift comparison against a newly profiled dataset.
func LoadContract(path string) (*contract.MetadataContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract from %s: %w", path, err)
	}
	var c contract.MetadataContract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse contract from %s: %w", path, err)
	}
	return &c, nil
}

// GenerateOutputs writes both artifacts under a shared prefix:
// <prefix>.parquet and <prefix>_metadata.json.
func GenerateOutputs(ds *tabular.Dataset, c *contract.MetadataContract, prefix string) (Outputs, error) {
	if ds == nil || ds.IsEmpty() {
		return Outputs{}, ErrEmptyDataset
	}
	if c == nil {
		return Outputs{}, ErrNilContract
	}

	out := Outputs{
		ParquetPath:  prefix + ".parquet",
		ContractPath: prefix + "_metadata.json",
	}
	if err := WriteParquet(ds, out.ParquetPath); err != nil {
		return Outputs{}, err
	}
	if err := SaveContract(c, out.ContractPath); err != nil {
		return Outputs{}, err
	}
	return out, nil
}

// Summary renders a short human-readable listing of generated files.
func Summary(o Outputs) string {
	var b strings.Builder
	b.WriteString("Generated files:\n")
	for _, path := range []string{o.ParquetPath, o.ContractPath} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(&b, "  %s (missing)\n", filepath.Base(path))
			continue
		}
		fmt.Fprintf(&b, "  %s (%s)\n", filepath.Base(path), humanSize(info.Size()))
	}
	return strings.TrimRight(b.String(), "\n")
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
