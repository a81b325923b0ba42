package reports

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"portraits/internal/core/apperror"
)

type graduatesContent struct {
	GakkaSenko []struct {
		Status struct {
			Graduates Count `json:"SOTSUGYOSHA_SU"`
			Employed  Count `json:"SHUSHOKUSHA_SU"`
			Advanced  Count `json:"SHINGAKUSHA_SU"`
			Temporary Count `json:"ICHIJITEKI_SHIGOTO_SU"`
			Others    Count `json:"SONOTA_SU"`
			Unknown   Count `json:"FUMEI_SU"`
		} `json:"SOTSUGYOGO_JOKYO"`
	} `json:"GAKKA_SENKO"`
}

// CareerOutcomes are post-graduation counts with derived rates. Rates are
// percentages of Graduates rounded to one decimal place.
type CareerOutcomes struct {
	Graduates       int             `json:"graduates"`
	Employed        int             `json:"employed"`
	Advanced        int             `json:"advanced"`
	Temporary       int             `json:"temporaryEmployment"`
	Others          int             `json:"others"`
	Unknown         int             `json:"unknown"`
	EmploymentRate  decimal.Decimal `json:"employmentRate"`
	AdvancementRate decimal.Decimal `json:"advancementRate"`
}

// ParseCareerOutcomes reads getStatusAfterGraduationGraduates content,
// summing every department block.
func ParseCareerOutcomes(content json.RawMessage) (CareerOutcomes, error) {
	var out CareerOutcomes
	if len(content) == 0 {
		return out, nil
	}
	var c graduatesContent
	if err := json.Unmarshal(content, &c); err != nil {
		return out, apperror.NewUpstream("getStatusAfterGraduationGraduates", "unexpected content shape").WithCause(err)
	}
	for _, g := range c.GakkaSenko {
		s := g.Status
		out.Graduates += int(s.Graduates)
		out.Employed += int(s.Employed)
		out.Advanced += int(s.Advanced)
		out.Temporary += int(s.Temporary)
		out.Others += int(s.Others)
		out.Unknown += int(s.Unknown)
	}
	out.computeRates()
	return out, nil
}

// Add merges other into c and recomputes the rates.
func (c *CareerOutcomes) Add(other CareerOutcomes) {
	c.Graduates += other.Graduates
	c.Employed += other.Employed
	c.Advanced += other.Advanced
	c.Temporary += other.Temporary
	c.Others += other.Others
	c.Unknown += other.Unknown
	c.computeRates()
}

func (c *CareerOutcomes) computeRates() {
	c.EmploymentRate = Percent(c.Employed, c.Graduates)
	c.AdvancementRate = Percent(c.Advanced, c.Graduates)
}
