// Package analysis clusters classified organizations by identifier pattern
// and by field, and scores how cleanly each field clusters.
package analysis

import (
	"context"
	"fmt"

	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
	"portraits/pkg/logger"
)

// Report is the full result of an identifier structure analysis.
type Report struct {
	RuleVersion    string            `json:"ruleVersion"`
	Universities   []string          `json:"universities"`
	Organizations  int               `json:"organizations"`
	Skipped        int               `json:"skipped"`
	Levels         []LevelSummary    `json:"levels"`
	Categories     []classify.Group  `json:"categories"`
	Clusters       []PatternCluster  `json:"clusters"`
	GoodClusters   []PatternCluster  `json:"goodClusters"`
	Fields         []FieldCluster    `json:"fields"`
	SharedPatterns []SharedPattern   `json:"sharedPatterns"`
	Proposals      []ProposalResult  `json:"proposals"`
	Records        []classify.Record `json:"-"`
}

// LevelSummary counts organizations per level code.
type LevelSummary struct {
	Level    string   `json:"level"`
	Label    string   `json:"label"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

const levelExamples = 3

// Analyzer runs the analysis against a loaded directory.
type Analyzer struct {
	classifier *classify.Classifier
	proposals  []Proposal
}

// NewAnalyzer compiles the proposals; nil specs use DefaultProposals.
func NewAnalyzer(c *classify.Classifier, specs []ProposalSpec) (*Analyzer, error) {
	if specs == nil {
		specs = DefaultProposals
	}
	proposals, err := CompileProposals(specs)
	if err != nil {
		return nil, err
	}
	return &Analyzer{classifier: c, proposals: proposals}, nil
}

// Classifier returns the classifier the analyzer labels records with.
func (a *Analyzer) Classifier() *classify.Classifier {
	return a.classifier
}

// Records classifies every organization of the named universities, in
// request order. Organizations whose identifier does not parse are skipped
// and counted.
func (a *Analyzer) Records(ctx context.Context, store *directory.Store, universities []string) ([]classify.Record, int) {
	byUniv := store.FindOrganizationsByUniversity(universities)
	var (
		records []classify.Record
		skipped int
	)
	for _, name := range universities {
		for _, org := range byUniv[name] {
			id, err := org.Identifier()
			if err != nil {
				skipped++
				logger.Warn(ctx, "skipping organization with malformed identifier",
					"university", name, "organization", org.Name, "id", org.ID)
				continue
			}
			records = append(records, a.classifier.Label(name, org.Name, id))
		}
	}
	return records, skipped
}

// Analyze builds the report for the named universities. Unknown names fail
// with UNKNOWN_UNIVERSITY before any work is done.
func (a *Analyzer) Analyze(ctx context.Context, store *directory.Store, universities []string) (*Report, error) {
	univs, err := store.FindUniversityIDs(universities)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(univs))
	for _, u := range univs {
		names = append(names, u.Name)
	}

	records, skipped := a.Records(ctx, store, names)
	report, err := a.AnalyzeRecords(records)
	if err != nil {
		return nil, err
	}
	report.Universities = names
	report.Skipped = skipped

	logger.Info(ctx, "identifier analysis complete",
		"universities", len(names),
		"organizations", report.Organizations,
		"skipped", skipped,
		"good_clusters", len(report.GoodClusters))
	return report, nil
}

// AnalyzeRecords runs every analysis over already classified records.
func (a *Analyzer) AnalyzeRecords(records []classify.Record) (*Report, error) {
	report := &Report{
		RuleVersion:   a.classifier.Version(),
		Organizations: len(records),
		Categories:    classify.GroupByField(records),
		Records:       records,
	}

	for _, g := range classify.GroupByLevel(records) {
		ls := LevelSummary{
			Level: g.Key,
			Label: levelLabel(g),
			Count: g.Count,
		}
		for i := 0; i < len(g.Members) && i < levelExamples; i++ {
			m := g.Members[i]
			ls.Examples = append(ls.Examples, fmt.Sprintf("%s (%s)", m.Name, m.Identifier.Raw))
		}
		report.Levels = append(report.Levels, ls)
	}

	report.Clusters = PatternClusters(records)
	report.GoodClusters = GoodClusters(report.Clusters)
	report.Fields = FieldClusters(a.classifier, records)
	report.SharedPatterns = SharedPatterns(report.Fields)

	for _, p := range a.proposals {
		res, err := p.Evaluate(a.classifier, records)
		if err != nil {
			return nil, err
		}
		if res.Matches > 0 {
			report.Proposals = append(report.Proposals, res)
		}
	}
	return report, nil
}

func levelLabel(g classify.Group) string {
	if len(g.Members) == 0 {
		return ""
	}
	return g.Members[0].Classification.LevelLabel
}
