package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/datacanary/datacanary/pkg/reconcile"
)

// Overrides is the parsed user override file.
//
//	columns:
//	  "User ID":
//	    name: user_id
//	    type: Int64
//	roles:
//	  user_id: primary_key
type Overrides struct {
	Columns map[string]reconcile.Override `yaml:"columns"`
	Roles   map[string]string             `yaml:"roles"`
}

// LoadOverrides reads the override file. An empty path is not an error and
// yields empty overrides.
func LoadOverrides(path string) (Overrides, error) {
	var ov Overrides
	if path == "" {
		return ov, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return ov, fmt.Errorf("read overrides: %w", err)
	}
	if err := yaml.Unmarshal(b, &ov); err != nil {
		return ov, fmt.Errorf("parse overrides: %w", err)
	}
	return ov, nil
}
