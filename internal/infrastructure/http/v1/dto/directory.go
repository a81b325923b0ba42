package dto

import (
	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
	"portraits/internal/domain/orgid"
)

// Organization is an organization record with its classification. The
// classification is omitted when the identifier does not parse.
type Organization struct {
	directory.OrganizationRecord
	Pattern        string                   `json:"pattern,omitempty"`
	Classification *classify.Classification `json:"classification,omitempty"`
}

// NewOrganization classifies one record.
func NewOrganization(c *classify.Classifier, o directory.OrganizationRecord) Organization {
	out := Organization{OrganizationRecord: o}
	if id, err := o.Identifier(); err == nil {
		cl := c.Classify(id)
		out.Pattern = id.Pattern()
		out.Classification = &cl
	}
	return out
}

// NewOrganizations classifies every record.
func NewOrganizations(c *classify.Classifier, orgs []directory.OrganizationRecord) []Organization {
	out := make([]Organization, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, NewOrganization(c, o))
	}
	return out
}

// Identifier is the parsed and classified form of a raw organization ID.
type Identifier struct {
	orgid.Identifier
	Pattern        string                      `json:"pattern"`
	Classification classify.Classification     `json:"classification"`
	University     *directory.UniversityRecord `json:"university,omitempty"`
}
