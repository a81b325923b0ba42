package reports

import (
	"context"

	"portraits/internal/domain/directory"
	"portraits/internal/infrastructure/portraits"
	"portraits/pkg/logger"
)

// FacultyEmployment fetches job placements for every organization of each
// named university and groups them by organization name. A non-empty faculty
// restricts the run to organizations with exactly that name. Organizations
// whose fetch fails are logged and skipped.
func (c *Collector) FacultyEmployment(ctx context.Context, universities []string, faculty string) (map[string]UniversityEmployment, error) {
	univs, err := c.store.FindUniversityIDs(universities)
	if err != nil {
		return nil, err
	}

	out := make(map[string]UniversityEmployment, len(univs))
	for _, u := range univs {
		log := logger.FromContext(ctx).With("university", u.Name)
		result := NewUniversityEmployment()

		for _, org := range c.facultyOrganizations(u.Name, faculty) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			content, err := c.api.Content(ctx, portraits.StatusAfterGraduationJobs, c.year, org.ID)
			if err == nil {
				var e Employment
				if e, err = ParseEmployment(content, false); err == nil {
					result.AddFaculty(org.Name, e)
					log.Debugw("faculty employment collected", "faculty", org.Name, "total", e.Total)
					continue
				}
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warnw("faculty employment failed", "faculty", org.Name, "error", err)
		}

		log.Infow("university employment collected",
			"faculties", len(result.Faculties), "total_employed", result.TotalEmployed)
		out[u.Name] = result
	}
	return out, nil
}

func (c *Collector) facultyOrganizations(university, faculty string) []directory.OrganizationRecord {
	orgs := c.store.FindOrganizationsByUniversity([]string{university})[university]
	if faculty == "" {
		return orgs
	}
	var out []directory.OrganizationRecord
	for _, o := range orgs {
		if o.Name == faculty {
			out = append(out, o)
		}
	}
	return out
}
