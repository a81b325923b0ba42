package reports

import (
	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
)

// OrganizationStructure describes a university's organizations by field and
// level, derived from identifiers alone.
type OrganizationStructure struct {
	DepartmentCount   int            `json:"departmentCount"`
	FieldDistribution map[string]int `json:"fieldDistribution"`
	FieldLabels       map[string]int `json:"fieldLabels"`
	EducationLevels   map[string]int `json:"educationLevels"`
	Malformed         int            `json:"malformedIdentifiers,omitempty"`
}

// AnalyzeStructure counts organizations per field code, field label and
// level code. Every organization counts toward DepartmentCount; those whose
// identifier does not parse are only counted as Malformed.
func AnalyzeStructure(c *classify.Classifier, orgs []directory.OrganizationRecord) OrganizationStructure {
	out := OrganizationStructure{
		DepartmentCount:   len(orgs),
		FieldDistribution: map[string]int{},
		FieldLabels:       map[string]int{},
		EducationLevels:   map[string]int{},
	}
	for _, o := range orgs {
		id, err := o.Identifier()
		if err != nil {
			out.Malformed++
			continue
		}
		cl := c.Classify(id)
		out.FieldDistribution[cl.FieldCode]++
		out.FieldLabels[cl.FieldLabel]++
		out.EducationLevels[string(cl.Level)]++
	}
	return out
}
