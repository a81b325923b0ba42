package reports

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"

	"portraits/internal/core/apperror"
)

// IndustrySeparator splits a combined industry label, e.g. "製造業／電子部品".
const IndustrySeparator = "／"

type jobsContent struct {
	GakkaSenko []struct {
		Industry   *jobBreakdown `json:"SANGYO_SHUSHOKUSHA_SU"`
		Occupation *jobBreakdown `json:"SHOKUGYO_SHUSHOKUSHA_SU"`
	} `json:"GAKKA_SENKO"`
}

type jobBreakdown struct {
	Records []struct {
		Industry   string `json:"SHUSHOKUSHA_SANGYO_BUNRUI"`
		Occupation string `json:"SHUSHOKUSHA_SHOKUGYO_BUNRUI"`
		Count      Count  `json:"SHUSHOKUSHA_SU"`
	} `json:"SHUSHOKUSHA_SU"`
}

// Employment is the job-placement breakdown of one organization or a sum of
// several. Only categories with a positive count are kept.
type Employment struct {
	Total        int            `json:"total"`
	ByIndustry   map[string]int `json:"byIndustry"`
	ByOccupation map[string]int `json:"byOccupation,omitempty"`
}

// NewEmployment returns an empty breakdown.
func NewEmployment() Employment {
	return Employment{ByIndustry: map[string]int{}, ByOccupation: map[string]int{}}
}

// ParseEmployment reads getStatusAfterGraduationJobs content. With
// splitLabels, industry labels are cut at the first "／". Total counts
// industry placements.
func ParseEmployment(content json.RawMessage, splitLabels bool) (Employment, error) {
	e := NewEmployment()
	if len(content) == 0 {
		return e, nil
	}
	var c jobsContent
	if err := json.Unmarshal(content, &c); err != nil {
		return e, apperror.NewUpstream("getStatusAfterGraduationJobs", "unexpected content shape").WithCause(err)
	}
	for _, g := range c.GakkaSenko {
		if g.Industry != nil {
			for _, r := range g.Industry.Records {
				industry := r.Industry
				if splitLabels {
					industry, _, _ = strings.Cut(industry, IndustrySeparator)
				}
				if industry == "" || r.Count <= 0 {
					continue
				}
				e.ByIndustry[industry] += int(r.Count)
				e.Total += int(r.Count)
			}
		}
		if g.Occupation != nil {
			for _, r := range g.Occupation.Records {
				if r.Occupation == "" || r.Count <= 0 {
					continue
				}
				e.ByOccupation[r.Occupation] += int(r.Count)
			}
		}
	}
	return e, nil
}

// Add merges other into e.
func (e *Employment) Add(other Employment) {
	if e.ByIndustry == nil {
		e.ByIndustry = map[string]int{}
	}
	if e.ByOccupation == nil {
		e.ByOccupation = map[string]int{}
	}
	e.Total += other.Total
	for k, v := range other.ByIndustry {
		e.ByIndustry[k] += v
	}
	for k, v := range other.ByOccupation {
		e.ByOccupation[k] += v
	}
}

// LabelCount is one row of a ranked breakdown.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Rank orders a breakdown by count descending, then label.
func Rank(m map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for k, v := range m {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	slices.SortFunc(out, func(a, b LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// UniversityEmployment is the per-faculty breakdown of one university.
// Faculties without any placement are left out.
type UniversityEmployment struct {
	TotalEmployed     int                   `json:"totalEmployed"`
	Faculties         map[string]Employment `json:"faculties"`
	IndustriesSummary map[string]int        `json:"industriesSummary"`
}

// NewUniversityEmployment returns an empty breakdown.
func NewUniversityEmployment() UniversityEmployment {
	return UniversityEmployment{
		Faculties:         map[string]Employment{},
		IndustriesSummary: map[string]int{},
	}
}

// AddFaculty records one faculty's breakdown.
func (u *UniversityEmployment) AddFaculty(name string, e Employment) {
	if e.Total == 0 {
		return
	}
	if prev, ok := u.Faculties[name]; ok {
		prev.Add(e)
		e = prev
	}
	u.Faculties[name] = e
	u.TotalEmployed = 0
	clear(u.IndustriesSummary)
	for _, f := range u.Faculties {
		u.TotalEmployed += f.Total
		for k, v := range f.ByIndustry {
			u.IndustriesSummary[k] += v
		}
	}
}
