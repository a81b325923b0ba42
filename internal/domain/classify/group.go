package classify

import (
	"cmp"
	"slices"

	"portraits/internal/domain/orgid"
)

// Record is a classified organization.
type Record struct {
	University     string           `json:"university"`
	Name           string           `json:"name"`
	Identifier     orgid.Identifier `json:"identifier"`
	Classification Classification   `json:"classification"`
}

// Label builds a Record for an already parsed identifier.
func (c *Classifier) Label(university, name string, id orgid.Identifier) Record {
	return Record{
		University:     university,
		Name:           name,
		Identifier:     id,
		Classification: c.Classify(id),
	}
}

// Group is a set of records sharing a grouping key.
type Group struct {
	Key          string   `json:"key"`
	Count        int      `json:"count"`
	Universities []string `json:"universities"`
	Names        []string `json:"names"`
	Members      []Record `json:"-"`
}

// UniqueNames is the number of distinct organization names in the group.
func (g Group) UniqueNames() int {
	return len(g.Names)
}

// GroupByPattern groups by (level, field code), e.g. "1G01".
func GroupByPattern(records []Record) []Group {
	return groupBy(records, func(r Record) string { return r.Classification.Pattern() })
}

// GroupByLevel groups by level code.
func GroupByLevel(records []Record) []Group {
	return groupBy(records, func(r Record) string { return string(r.Classification.Level) })
}

// GroupByField groups by field code.
func GroupByField(records []Record) []Group {
	return groupBy(records, func(r Record) string { return r.Classification.FieldCode })
}

// GroupByFieldLabel groups by rule-table label.
func GroupByFieldLabel(records []Record) []Group {
	return groupBy(records, func(r Record) string { return r.Classification.FieldLabel })
}

// groupBy keeps member order and lists names in first-seen order.
// Universities are sorted; groups are ordered by size descending then key.
func groupBy(records []Record, key func(Record) string) []Group {
	index := make(map[string]int)
	var groups []Group
	univSeen := make(map[string]map[string]struct{})
	nameSeen := make(map[string]map[string]struct{})

	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
			univSeen[k] = make(map[string]struct{})
			nameSeen[k] = make(map[string]struct{})
		}
		g := &groups[i]
		g.Count++
		g.Members = append(g.Members, r)
		if _, ok := univSeen[k][r.University]; !ok {
			univSeen[k][r.University] = struct{}{}
			g.Universities = append(g.Universities, r.University)
		}
		if _, ok := nameSeen[k][r.Name]; !ok {
			nameSeen[k][r.Name] = struct{}{}
			g.Names = append(g.Names, r.Name)
		}
	}

	for i := range groups {
		slices.Sort(groups[i].Universities)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return groups
}
