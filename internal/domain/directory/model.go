// Package directory holds the read-only university and organization lookup
// tables. Records are built only by the loaders in this package and are never
// modified afterwards; consumers receive copies.
package directory

import (
	"strings"

	"portraits/internal/domain/orgid"
)

// UniversityRecord is one row of the university table.
type UniversityRecord struct {
	// ID is the 4-character numeric university code
	ID string `json:"id"`

	// Name is the display name, e.g. 大阪大学
	Name string `json:"name"`
}

// OrganizationRecord is one department or graduate school of a university.
type OrganizationRecord struct {
	// ID is the raw compound organization identifier
	ID string `json:"id"`

	// Name is the department display name, e.g. 工学研究科
	Name string `json:"name"`

	// UniversityName is the owning university's display name as written in the source
	UniversityName string `json:"universityName"`

	// UniversityID is the leading segment of ID (lookup key into the university table)
	UniversityID string `json:"universityId"`
}

// Identifier parses the record's raw ID.
func (o OrganizationRecord) Identifier() (orgid.Identifier, error) {
	return orgid.Parse(o.ID)
}

// IsGraduate reports whether the record's level code denotes a graduate school.
// Records with malformed identifiers are never graduate.
func (o OrganizationRecord) IsGraduate() bool {
	id, err := o.Identifier()
	if err != nil {
		return false
	}
	return id.LevelCode.IsGraduate()
}

func newOrganizationRecord(id, name, universityName string) OrganizationRecord {
	univID, _, _ := strings.Cut(id, "-")
	return OrganizationRecord{
		ID:             id,
		Name:           name,
		UniversityName: universityName,
		UniversityID:   univID,
	}
}

// GraduateOnly filters records to graduate-level organizations.
func GraduateOnly(records []OrganizationRecord) []OrganizationRecord {
	out := make([]OrganizationRecord, 0, len(records))
	for _, r := range records {
		if r.IsGraduate() {
			out = append(out, r)
		}
	}
	return out
}
