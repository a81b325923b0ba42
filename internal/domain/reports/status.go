package reports

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"portraits/internal/core/apperror"
)

type statusContent struct {
	Students struct {
		DayNight []map[string]json.RawMessage `json:"CHUYA_KBN"`
	} `json:"GAKUSEI_SU"`
	Faculty json.RawMessage `json:"KYOIN_SU"`
}

// StudentFacultyStatus summarizes getStudentFacultyStatus content.
type StudentFacultyStatus struct {
	TotalStudents int             `json:"totalStudents"`
	TotalFaculty  int             `json:"totalFaculty"`
	Ratio         decimal.Decimal `json:"studentFacultyRatio"`
}

// ParseStudentFacultyStatus sums every "*_KEI" field of the day/night
// student blocks and every faculty field whose key contains both "KYOIN" and
// "KEI". KYOIN_SU may be an object or a list of objects.
func ParseStudentFacultyStatus(content json.RawMessage) (StudentFacultyStatus, error) {
	var out StudentFacultyStatus
	if len(content) == 0 {
		return out, nil
	}
	var c statusContent
	if err := json.Unmarshal(content, &c); err != nil {
		return out, apperror.NewUpstream("getStudentFacultyStatus", "unexpected content shape").WithCause(err)
	}

	for _, block := range c.Students.DayNight {
		for key, raw := range block {
			if strings.HasSuffix(key, "_KEI") {
				out.TotalStudents += ToInt(scalarText(raw))
			}
		}
	}

	for _, obj := range objects(c.Faculty) {
		for key, raw := range obj {
			if strings.Contains(key, "KYOIN") && strings.Contains(key, "KEI") {
				out.TotalFaculty += ToInt(scalarText(raw))
			}
		}
	}

	out.Ratio = Ratio(out.TotalStudents, out.TotalFaculty)
	return out, nil
}

// objects decodes raw as one object or a list of objects; anything else
// yields nothing.
func objects(raw json.RawMessage) []map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '{':
		var m map[string]json.RawMessage
		if json.Unmarshal(raw, &m) == nil {
			return []map[string]json.RawMessage{m}
		}
	case '[':
		var list []map[string]json.RawMessage
		if json.Unmarshal(raw, &list) == nil {
			return list
		}
	}
	return nil
}
