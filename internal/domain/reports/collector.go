package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
	"portraits/internal/infrastructure/portraits"
	"portraits/pkg/logger"
)

// Fetcher returns the first CONTENT of a Portraits endpoint, or nil when the
// endpoint has no data for the organization.
type Fetcher interface {
	Content(ctx context.Context, endpoint portraits.Endpoint, year int, orgID string) (json.RawMessage, error)
}

// Category is one block of the per-university report.
type Category string

const (
	CategoryStudentFaculty Category = "studentFacultyStatus"
	CategoryUndergraduate  Category = "undergraduateDetails"
	CategoryGraduate       Category = "graduateDetails"
	CategoryCareer         Category = "careerOutcomes"
	CategoryJobs           Category = "jobDetails"
	CategoryForeign        Category = "foreignStudents"
	CategoryFacilities     Category = "facilities"
	CategoryStructure      Category = "organizationStructure"
	CategoryGeneral        Category = "general"
)

// Categories lists the report categories in summary column order.
func Categories() []Category {
	return []Category{
		CategoryStudentFaculty,
		CategoryUndergraduate,
		CategoryGraduate,
		CategoryCareer,
		CategoryJobs,
		CategoryForeign,
		CategoryFacilities,
		CategoryStructure,
	}
}

// DefaultSampleSize is the number of organizations fetched per
// organization-scoped category.
const DefaultSampleSize = 3

// UniversityData is everything collected for one university. A nil block was
// not fetched or had no data.
type UniversityData struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	StudentFaculty *StudentFacultyStatus  `json:"studentFacultyStatus,omitempty"`
	Undergraduate  *UndergraduateDetail   `json:"undergraduateDetails,omitempty"`
	Graduate       *GraduateDetail        `json:"graduateDetails,omitempty"`
	Career         *CareerOutcomes        `json:"careerOutcomes,omitempty"`
	Jobs           *Employment            `json:"jobDetails,omitempty"`
	Facilities     *Facilities            `json:"facilities,omitempty"`
	Structure      *OrganizationStructure `json:"organizationStructure,omitempty"`
	Samples        map[Category][]string  `json:"samples,omitempty"`
}

// Has reports whether a category produced data.
func (u *UniversityData) Has(c Category) bool {
	switch c {
	case CategoryStudentFaculty:
		return u.StudentFaculty != nil
	case CategoryUndergraduate:
		return u.Undergraduate != nil
	case CategoryGraduate:
		return u.Graduate != nil
	case CategoryCareer:
		return u.Career != nil
	case CategoryJobs:
		return u.Jobs != nil
	case CategoryFacilities:
		return u.Facilities != nil
	case CategoryStructure:
		return u.Structure != nil && u.Structure.DepartmentCount > 0
	}
	return false
}

// Collection is the result of one collection run.
type Collection struct {
	RunID        string                         `json:"runId"`
	Timestamp    time.Time                      `json:"timestamp"`
	TargetYear   int                            `json:"targetYear"`
	Universities []string                       `json:"universities"`
	Data         map[string]*UniversityData     `json:"data"`
	Errors       map[string]map[Category]string `json:"errors"`
}

// Collector gathers survey data per university. Each category is fetched
// independently; a failing category is recorded and the run continues.
type Collector struct {
	api        Fetcher
	store      *directory.Store
	classifier *classify.Classifier
	year       int
	sample     int
	now        func() time.Time
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithSampleSize sets how many organizations are fetched per category.
func WithSampleSize(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.sample = n
		}
	}
}

// WithClock overrides the collection timestamp source.
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = now }
}

// NewCollector builds a Collector for one survey year.
func NewCollector(api Fetcher, store *directory.Store, c *classify.Classifier, year int, opts ...CollectorOption) *Collector {
	col := &Collector{
		api:        api,
		store:      store,
		classifier: c,
		year:       year,
		sample:     DefaultSampleSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(col)
	}
	return col
}

// Collect runs every category for each named university. Unknown names fail
// the whole run before any request is made. Cancelling ctx stops the run and
// returns ctx's error.
func (c *Collector) Collect(ctx context.Context, runID string, universities []string) (*Collection, error) {
	univs, err := c.store.FindUniversityIDs(universities)
	if err != nil {
		return nil, err
	}

	out := &Collection{
		RunID:      runID,
		Timestamp:  c.now().UTC(),
		TargetYear: c.year,
		Data:       make(map[string]*UniversityData, len(univs)),
		Errors:     make(map[string]map[Category]string, len(univs)),
	}
	for _, u := range univs {
		out.Universities = append(out.Universities, u.Name)
		data, errs, err := c.collectUniversity(ctx, u)
		if err != nil {
			return nil, err
		}
		out.Data[u.Name] = data
		out.Errors[u.Name] = errs
	}
	return out, nil
}

func (c *Collector) collectUniversity(ctx context.Context, u directory.UniversityRecord) (*UniversityData, map[Category]string, error) {
	log := logger.FromContext(ctx).With("university", u.Name, "university_id", u.ID)
	log.Infow("collecting university data")

	data := &UniversityData{ID: u.ID, Name: u.Name, Samples: map[Category][]string{}}
	errs := map[Category]string{}

	orgs := c.store.FindOrganizationsByUniversity([]string{u.Name})[u.Name]
	if len(orgs) == 0 {
		log.Warnw("no organizations in directory")
		errs[CategoryGeneral] = "no organizations in directory"
		return data, errs, nil
	}

	structure := AnalyzeStructure(c.classifier, orgs)
	data.Structure = &structure
	graduate := directory.GraduateOnly(orgs)

	steps := []struct {
		cat Category
		run func() error
	}{
		{CategoryStudentFaculty, func() error {
			content, err := c.api.Content(ctx, portraits.StudentFacultyStatus, c.year, u.ID)
			if err != nil || content == nil {
				return err
			}
			s, err := ParseStudentFacultyStatus(content)
			if err == nil {
				data.StudentFaculty = &s
			}
			return err
		}},
		{CategoryUndergraduate, func() error {
			var sum UndergraduateDetail
			got, err := c.sampled(ctx, data, CategoryUndergraduate, portraits.CollegeUndergraduateStudentsDetail, orgs,
				func(content json.RawMessage) error {
					d, err := ParseUndergraduateDetail(content)
					if err != nil {
						return err
					}
					sum.Add(d)
					return nil
				})
			if got {
				data.Undergraduate = &sum
			}
			return err
		}},
		{CategoryGraduate, func() error {
			var sum GraduateDetail
			got, err := c.sampled(ctx, data, CategoryGraduate, portraits.GraduateStudentsDetail, graduate,
				func(content json.RawMessage) error {
					d, err := ParseGraduateDetail(content)
					if err != nil {
						return err
					}
					sum.Add(d)
					return nil
				})
			if got {
				data.Graduate = &sum
			}
			return err
		}},
		{CategoryCareer, func() error {
			var sum CareerOutcomes
			got, err := c.sampled(ctx, data, CategoryCareer, portraits.StatusAfterGraduationGraduates, orgs,
				func(content json.RawMessage) error {
					o, err := ParseCareerOutcomes(content)
					if err != nil {
						return err
					}
					sum.Add(o)
					return nil
				})
			if got {
				data.Career = &sum
			}
			return err
		}},
		{CategoryJobs, func() error {
			sum := NewEmployment()
			got, err := c.sampled(ctx, data, CategoryJobs, portraits.StatusAfterGraduationJobs, orgs,
				func(content json.RawMessage) error {
					e, err := ParseEmployment(content, true)
					if err != nil {
						return err
					}
					sum.Add(e)
					return nil
				})
			if got {
				data.Jobs = &sum
			}
			return err
		}},
		{CategoryFacilities, func() error {
			content, err := c.api.Content(ctx, portraits.SchoolFacilities, c.year, u.ID)
			if err != nil || content == nil {
				return err
			}
			f, err := ParseFacilities(content)
			if err == nil {
				data.Facilities = &f
			}
			return err
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if err := step.run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			log.Warnw("category failed", "category", step.cat, "error", err)
			errs[step.cat] = err.Error()
		}
	}

	log.Infow("university data collected", "errors", len(errs))
	return data, errs, nil
}

// sampled fetches the first c.sample organizations for one category. It
// reports whether any organization returned data. Per-organization failures
// are logged; the category fails only when every attempted fetch failed.
func (c *Collector) sampled(
	ctx context.Context,
	data *UniversityData,
	cat Category,
	endpoint portraits.Endpoint,
	orgs []directory.OrganizationRecord,
	apply func(json.RawMessage) error,
) (bool, error) {
	var (
		got  bool
		errs []error
	)
	for _, org := range orgs[:min(len(orgs), c.sample)] {
		if err := ctx.Err(); err != nil {
			return got, err
		}
		content, err := c.api.Content(ctx, endpoint, c.year, org.ID)
		if err == nil && content != nil {
			err = apply(content)
		}
		if err != nil {
			logger.Warn(ctx, "organization fetch failed", "category", cat, "organization", org.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", org.Name, err))
			continue
		}
		if content != nil {
			got = true
			data.Samples[cat] = append(data.Samples[cat], org.Name)
		}
	}
	if got || len(errs) == 0 {
		return got, nil
	}
	return false, errors.Join(errs...)
}
