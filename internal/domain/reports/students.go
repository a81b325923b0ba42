package reports

import (
	"encoding/json"

	"portraits/internal/core/apperror"
)

// UndergraduateDetail summarizes getCollegeUndergraduateStudentsDetail.
type UndergraduateDetail struct {
	Departments int            `json:"departments"`
	ByGrade     map[string]int `json:"studentsByGrade"`
	Transfers   int            `json:"transferStudents"`
}

type undergraduateContent struct {
	Departments []struct {
		Grades []struct {
			Grade    json.RawMessage `json:"GAKUNEN"`
			Students Count           `json:"GAKUSEI_SU"`
		} `json:"GAKUNEN_GAKUSEI_SU"`
		Transfers Count `json:"HENNYUGAKU_GAKUSEI_SU"`
	} `json:"GAKKA_GAKUSEI_SU"`
}

// ParseUndergraduateDetail sums students by grade across departments.
func ParseUndergraduateDetail(content json.RawMessage) (UndergraduateDetail, error) {
	out := UndergraduateDetail{ByGrade: map[string]int{}}
	if len(content) == 0 {
		return out, nil
	}
	var c undergraduateContent
	if err := json.Unmarshal(content, &c); err != nil {
		return out, apperror.NewUpstream("getCollegeUndergraduateStudentsDetail", "unexpected content shape").WithCause(err)
	}
	for _, d := range c.Departments {
		out.Departments++
		for _, g := range d.Grades {
			grade := scalarText(g.Grade)
			if grade == "" {
				continue
			}
			out.ByGrade[grade] += int(g.Students)
		}
		out.Transfers += int(d.Transfers)
	}
	return out, nil
}

// Add merges other into u.
func (u *UndergraduateDetail) Add(other UndergraduateDetail) {
	if u.ByGrade == nil {
		u.ByGrade = map[string]int{}
	}
	u.Departments += other.Departments
	u.Transfers += other.Transfers
	for k, v := range other.ByGrade {
		u.ByGrade[k] += v
	}
}

// GraduateDetail summarizes getGraduateStudentsDetail.
type GraduateDetail struct {
	Majors        int            `json:"majors"`
	ByCourse      map[string]int `json:"studentsByCourse"`
	WorkingAdults int            `json:"workingAdultStudents"`
}

type graduateContent struct {
	Majors []struct {
		Courses []struct {
			Course   string `json:"KATEI_KBN"`
			Students Count  `json:"GAKUSEI_SU"`
		} `json:"KATEI_GAKUSEI_SU"`
		WorkingAdults Count `json:"SHAKAIJIN_GAKUSEI_SU"`
	} `json:"GAKKA_SENKO"`
}

// ParseGraduateDetail sums students by course (master's, doctoral, ...).
func ParseGraduateDetail(content json.RawMessage) (GraduateDetail, error) {
	out := GraduateDetail{ByCourse: map[string]int{}}
	if len(content) == 0 {
		return out, nil
	}
	var c graduateContent
	if err := json.Unmarshal(content, &c); err != nil {
		return out, apperror.NewUpstream("getGraduateStudentsDetail", "unexpected content shape").WithCause(err)
	}
	for _, m := range c.Majors {
		out.Majors++
		for _, course := range m.Courses {
			if course.Course == "" {
				continue
			}
			out.ByCourse[course.Course] += int(course.Students)
		}
		out.WorkingAdults += int(m.WorkingAdults)
	}
	return out, nil
}

// Add merges other into g.
func (g *GraduateDetail) Add(other GraduateDetail) {
	if g.ByCourse == nil {
		g.ByCourse = map[string]int{}
	}
	g.Majors += other.Majors
	g.WorkingAdults += other.WorkingAdults
	for k, v := range other.ByCourse {
		g.ByCourse[k] += v
	}
}
