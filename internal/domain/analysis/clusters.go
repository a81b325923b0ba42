package analysis

import (
	"cmp"
	"slices"
	"strings"

	"portraits/internal/domain/classify"
)

const (
	minClusterMembers     = 2
	goodClusterMembers    = 3
	goodClusterUnivs      = 2
	goodClusterNameRatio  = 0.7
	clusterDescNames      = 2
	clusterDescSeparator  = "・"
	clusterDescSuffix     = "系"
	fieldTopPatterns      = 5
	sharedPatternsLimit   = 10
	sharedPatternMinField = 2
)

// PatternCluster is a (level, field code) pattern shared by at least two
// organizations.
type PatternCluster struct {
	Pattern      string   `json:"pattern"`
	Members      int      `json:"members"`
	Universities []string `json:"universities"`
	UniqueNames  int      `json:"uniqueNames"`
	Names        []string `json:"names"`
	Good         bool     `json:"good"`
	Score        float64  `json:"score"`
	Description  string   `json:"description"`
}

// PatternClusters evaluates every pattern with at least two members, largest
// first. A cluster is good when it has three or more members, spans two or
// more universities and at most 70% of its member names are distinct.
func PatternClusters(records []classify.Record) []PatternCluster {
	var out []PatternCluster
	for _, g := range classify.GroupByPattern(records) {
		if g.Count < minClusterMembers {
			continue
		}
		unique := g.UniqueNames()
		c := PatternCluster{
			Pattern:      g.Key,
			Members:      g.Count,
			Universities: g.Universities,
			UniqueNames:  unique,
			Names:        g.Names,
			Good: g.Count >= goodClusterMembers &&
				len(g.Universities) >= goodClusterUnivs &&
				float64(unique) <= float64(g.Count)*goodClusterNameRatio,
			Score:       float64(g.Count*len(g.Universities)) / float64(unique),
			Description: describe(g.Names),
		}
		out = append(out, c)
	}
	return out
}

// GoodClusters filters clusters to the good ones, highest score first.
func GoodClusters(clusters []PatternCluster) []PatternCluster {
	var out []PatternCluster
	for _, c := range clusters {
		if c.Good {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b PatternCluster) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func describe(names []string) string {
	n := min(len(names), clusterDescNames)
	return strings.Join(names[:n], clusterDescSeparator) + clusterDescSuffix
}

// PatternCount is one pattern inside a field cluster.
type PatternCount struct {
	Pattern      string   `json:"pattern"`
	Count        int      `json:"count"`
	Universities []string `json:"universities"`
	Names        []string `json:"names"`
}

// FieldCluster gathers the organizations of one rule-table field, matched by
// name keyword or by field code.
type FieldCluster struct {
	Label         string         `json:"label"`
	Display       string         `json:"display"`
	Members       int            `json:"members"`
	PatternCount  int            `json:"patternCount"`
	TopPatterns   []PatternCount `json:"topPatterns"`
	Levels        map[string]int `json:"levels"`
	Quality       Quality        `json:"quality"`
	patternCounts map[string]int
}

// FieldClusters builds one cluster per rule-table field that has at least one
// member. A record belongs to a field when its code maps to that field or its
// name contains one of the field's keywords; each record counts once per field.
func FieldClusters(c *classify.Classifier, records []classify.Record) []FieldCluster {
	var out []FieldCluster
	for _, rule := range c.Fields() {
		var members []classify.Record
		for _, r := range records {
			if r.Classification.FieldLabel == rule.Label || slices.Contains(c.FieldsByName(r.Name), rule.Label) {
				members = append(members, r)
			}
		}
		if len(members) == 0 {
			continue
		}

		groups := classify.GroupByPattern(members)
		fc := FieldCluster{
			Label:         rule.Label,
			Display:       rule.Display,
			Members:       len(members),
			PatternCount:  len(groups),
			Levels:        make(map[string]int),
			patternCounts: make(map[string]int, len(groups)),
		}
		for i, g := range groups {
			fc.patternCounts[g.Key] = g.Count
			if i < fieldTopPatterns {
				fc.TopPatterns = append(fc.TopPatterns, PatternCount{
					Pattern:      g.Key,
					Count:        g.Count,
					Universities: g.Universities,
					Names:        g.Names,
				})
			}
		}
		for _, r := range members {
			fc.Levels[string(r.Classification.Level)]++
		}
		fc.Quality = EvaluateQuality(members, len(groups))
		out = append(out, fc)
	}

	slices.SortStableFunc(out, func(a, b FieldCluster) int {
		return cmp.Compare(b.Quality.Score, a.Quality.Score)
	})
	return out
}

// SharedPattern is a pattern that occurs in more than one field cluster.
type SharedPattern struct {
	Pattern string         `json:"pattern"`
	Fields  map[string]int `json:"fields"`
	Total   int            `json:"total"`
}

// SharedPatterns lists patterns found in at least two field clusters, those
// spanning the most fields first, at most ten.
func SharedPatterns(fields []FieldCluster) []SharedPattern {
	byPattern := make(map[string]*SharedPattern)
	var order []string
	for _, f := range fields {
		for pattern, n := range f.patternCounts {
			sp, ok := byPattern[pattern]
			if !ok {
				sp = &SharedPattern{Pattern: pattern, Fields: make(map[string]int)}
				byPattern[pattern] = sp
				order = append(order, pattern)
			}
			sp.Fields[f.Label] = n
			sp.Total += n
		}
	}

	var out []SharedPattern
	for _, p := range order {
		if sp := byPattern[p]; len(sp.Fields) >= sharedPatternMinField {
			out = append(out, *sp)
		}
	}
	slices.SortFunc(out, func(a, b SharedPattern) int {
		if c := cmp.Compare(len(b.Fields), len(a.Fields)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Pattern, b.Pattern)
	})
	if len(out) > sharedPatternsLimit {
		out = out[:sharedPatternsLimit]
	}
	return out
}
