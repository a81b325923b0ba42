// Package orgid parses compound organization identifiers of the form
// A-B-C-D-E-F, e.g. 0292-27-27-1G01-00-1.
//
// Segment D (the department code) decomposes further: its first character is
// the level code, the next three the field code, the rest a field sub-code.
package orgid

import (
	"strings"

	"portraits/internal/core/apperror"
)

// SegmentCount is the number of dash-separated segments in a valid identifier.
const SegmentCount = 6

// Identifier is a parsed organization identifier. It is a value type and is
// never modified after Parse returns it.
type Identifier struct {
	Raw            string `json:"raw"`
	UniversityCode string `json:"universityCode"`
	CampusCode1    string `json:"campusCode1"`
	CampusCode2    string `json:"campusCode2"`
	DepartmentCode string `json:"departmentCode"`
	SubCode        string `json:"subCode"`
	FinalCode      string `json:"finalCode"`

	LevelCode    LevelCode `json:"levelCode"`
	FieldCode    string    `json:"fieldCode"`
	FieldSubCode string    `json:"fieldSubCode"`
}

// Parse splits raw on "-" and returns the populated Identifier. It fails with
// a MALFORMED_IDENTIFIER AppError when the segment count is not six; no
// partial result is returned in that case.
func Parse(raw string) (Identifier, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != SegmentCount {
		return Identifier{}, apperror.NewMalformedIdentifier(raw, len(parts))
	}

	level, field, sub := splitDepartment(parts[3])

	return Identifier{
		Raw:            raw,
		UniversityCode: parts[0],
		CampusCode1:    parts[1],
		CampusCode2:    parts[2],
		DepartmentCode: parts[3],
		SubCode:        parts[4],
		FinalCode:      parts[5],
		LevelCode:      level,
		FieldCode:      field,
		FieldSubCode:   sub,
	}, nil
}

// MustParse is Parse that panics on error. Use only for constants and tests.
func MustParse(raw string) Identifier {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// splitDepartment decomposes a department code by character, not byte.
// Short codes yield truncated (possibly empty) parts.
func splitDepartment(dept string) (LevelCode, string, string) {
	runes := []rune(dept)
	switch {
	case len(runes) == 0:
		return "", "", ""
	case len(runes) <= 4:
		return LevelCode(runes[0]), string(runes[1:]), ""
	default:
		return LevelCode(runes[0]), string(runes[1:4]), string(runes[4:])
	}
}

// String returns the raw identifier.
func (id Identifier) String() string {
	return id.Raw
}

// Pattern is the level code followed by the field code, e.g. "1G01".
func (id Identifier) Pattern() string {
	return string(id.LevelCode) + id.FieldCode
}
