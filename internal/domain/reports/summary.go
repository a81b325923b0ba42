package reports

import (
	"strconv"
)

var categoryTitles = map[Category]string{
	CategoryStudentFaculty: "学生教員状況",
	CategoryUndergraduate:  "学部詳細",
	CategoryGraduate:       "大学院詳細",
	CategoryCareer:         "卒業後進路",
	CategoryJobs:           "就職詳細",
	CategoryForeign:        "留学生",
	CategoryFacilities:     "施設",
	CategoryStructure:      "組織分析",
}

// Title is the Japanese column title of a category.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// SummaryRow is one university line of the collection summary.
type SummaryRow struct {
	University    string
	Organizations int
	Fetched       map[Category]bool
	Errors        int
}

// SummaryHeader returns the CSV header matching SummaryRow.Record.
func SummaryHeader() []string {
	header := []string{"大学名", "組織数"}
	for _, c := range Categories() {
		header = append(header, c.Title()+"_取得")
	}
	return append(header, "エラー数")
}

// Record renders the row with あり/なし flags.
func (r SummaryRow) Record() []string {
	out := []string{r.University, strconv.Itoa(r.Organizations)}
	for _, c := range Categories() {
		flag := "なし"
		if r.Fetched[c] {
			flag = "あり"
		}
		out = append(out, flag)
	}
	return append(out, strconv.Itoa(r.Errors))
}

// Summary builds one row per collected university, in collection order.
func (c *Collection) Summary() []SummaryRow {
	rows := make([]SummaryRow, 0, len(c.Universities))
	for _, name := range c.Universities {
		row := SummaryRow{University: name, Fetched: map[Category]bool{}}
		if data := c.Data[name]; data != nil {
			if data.Structure != nil {
				row.Organizations = data.Structure.DepartmentCount
			}
			for _, cat := range Categories() {
				row.Fetched[cat] = data.Has(cat)
			}
		}
		row.Errors = len(c.Errors[name])
		rows = append(rows, row)
	}
	return rows
}
