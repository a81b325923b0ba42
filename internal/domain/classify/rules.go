package classify

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"portraits/internal/core/apperror"
)

//go:embed rules.yaml
var defaultRules []byte

// FieldRule maps a set of field codes to one label.
type FieldRule struct {
	Label    string   `yaml:"label" json:"label"`
	Display  string   `yaml:"display" json:"display"`
	Codes    []string `yaml:"codes" json:"codes"`
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`
}

// RuleTable is the versioned field-code table. It is data, not logic: swap it
// with RULES_FILE without touching the parser or the classifier.
type RuleTable struct {
	Version string      `yaml:"version" json:"version"`
	Fields  []FieldRule `yaml:"fields" json:"fields"`
}

// DefaultRuleTable returns the embedded table.
func DefaultRuleTable() (RuleTable, error) {
	return decodeRuleTable("embedded rules.yaml", defaultRules)
}

// LoadRuleTable decodes a YAML rule table.
func LoadRuleTable(name string, r io.Reader) (RuleTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RuleTable{}, apperror.NewSourceUnavailable(name, err)
	}
	return decodeRuleTable(name, data)
}

// LoadRuleFile reads a YAML rule table from disk.
func LoadRuleFile(path string) (RuleTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return RuleTable{}, apperror.NewSourceUnavailable(path, err)
	}
	defer f.Close()
	return LoadRuleTable(path, f)
}

func decodeRuleTable(name string, data []byte) (RuleTable, error) {
	var t RuleTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return RuleTable{}, apperror.NewMalformedSource(name, "invalid YAML").WithCause(err)
	}
	if err := t.Validate(); err != nil {
		return RuleTable{}, apperror.NewMalformedSource(name, err.Error())
	}
	return t, nil
}

// Validate checks that every field has a label and that no code is claimed
// by two fields.
func (t RuleTable) Validate() error {
	owner := make(map[string]string)
	labels := make(map[string]struct{})
	for i, f := range t.Fields {
		if f.Label == "" {
			return fmt.Errorf("field #%d has no label", i+1)
		}
		if f.Label == Unclassified {
			return fmt.Errorf("label %q is reserved", Unclassified)
		}
		if _, dup := labels[f.Label]; dup {
			return fmt.Errorf("label %q is defined twice", f.Label)
		}
		labels[f.Label] = struct{}{}
		for _, code := range f.Codes {
			if code == "" {
				return fmt.Errorf("field %q has an empty code", f.Label)
			}
			if prev, dup := owner[code]; dup {
				return fmt.Errorf("code %s is mapped to both %q and %q", code, prev, f.Label)
			}
			owner[code] = f.Label
		}
	}
	return nil
}
