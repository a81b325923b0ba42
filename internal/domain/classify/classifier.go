// Package classify labels parsed organization identifiers with an academic
// level and a field category.
package classify

import (
	"strings"
	"sync"

	"portraits/internal/domain/orgid"
)

// Unclassified is the field label of codes absent from the rule table.
const Unclassified = "unclassified"

// Classification is the result of classifying one identifier.
type Classification struct {
	Level      orgid.LevelCode `json:"level"`
	LevelLabel string          `json:"levelLabel"`
	FieldCode  string          `json:"fieldCode"`
	FieldLabel string          `json:"fieldLabel"`
}

// Pattern is level code followed by field code.
func (c Classification) Pattern() string {
	return string(c.Level) + c.FieldCode
}

// Classifier resolves field codes against a RuleTable. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	table  RuleTable
	byCode map[string]int
}

// New validates table and builds a Classifier.
func New(table RuleTable) (*Classifier, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{table: table, byCode: make(map[string]int)}
	for i, f := range table.Fields {
		for _, code := range f.Codes {
			c.byCode[code] = i
		}
	}
	return c, nil
}

var defaultClassifier = sync.OnceValue(func() *Classifier {
	table, err := DefaultRuleTable()
	if err != nil {
		panic("classify: embedded rule table: " + err.Error())
	}
	c, err := New(table)
	if err != nil {
		panic("classify: embedded rule table: " + err.Error())
	}
	return c
})

// Default returns the classifier built from the embedded rule table.
func Default() *Classifier {
	return defaultClassifier()
}

// Classify never fails: unknown level codes keep their character with the
// "unknown" label and unknown field codes are labeled Unclassified.
func (c *Classifier) Classify(id orgid.Identifier) Classification {
	label := Unclassified
	if idx, ok := c.byCode[id.FieldCode]; ok {
		label = c.table.Fields[idx].Label
	}
	return Classification{
		Level:      id.LevelCode,
		LevelLabel: id.LevelCode.Label(),
		FieldCode:  id.FieldCode,
		FieldLabel: label,
	}
}

// Field returns the rule for a label.
func (c *Classifier) Field(label string) (FieldRule, bool) {
	for _, f := range c.table.Fields {
		if f.Label == label {
			return f, true
		}
	}
	return FieldRule{}, false
}

// Fields returns the rules in table order.
func (c *Classifier) Fields() []FieldRule {
	out := make([]FieldRule, len(c.table.Fields))
	copy(out, c.table.Fields)
	return out
}

// Version is the rule table version.
func (c *Classifier) Version() string {
	return c.table.Version
}

// FieldsByName returns the labels whose keywords occur in an organization
// display name, in table order.
func (c *Classifier) FieldsByName(name string) []string {
	var labels []string
	for _, f := range c.table.Fields {
		for _, kw := range f.Keywords {
			if strings.Contains(name, kw) {
				labels = append(labels, f.Label)
				break
			}
		}
	}
	return labels
}
