package directory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"portraits/internal/core/apperror"
)

// Sources describes where both directory tables come from.
type Sources struct {
	Universities        Source
	Organizations       Source
	UniversityColumns   UniversityColumns
	OrganizationColumns OrganizationColumns
}

// Stats summarizes a loaded directory.
type Stats struct {
	Universities           int `json:"universities"`
	Organizations          int `json:"organizations"`
	UniversitiesWithoutOrg int `json:"universitiesWithoutOrganizations"`
}

// Store is the loaded, immutable directory. It is safe for concurrent use:
// nothing mutates it after NewStore returns.
type Store struct {
	universities  []UniversityRecord
	organizations []OrganizationRecord

	univByName map[string]int
	univByID   map[string]int
	orgsByUniv map[string][]int
}

// NewStore indexes copies of the given records.
func NewStore(universities []UniversityRecord, organizations []OrganizationRecord) *Store {
	s := &Store{
		universities:  slices.Clone(universities),
		organizations: slices.Clone(organizations),
		univByName:    make(map[string]int, len(universities)),
		univByID:      make(map[string]int, len(universities)),
		orgsByUniv:    make(map[string][]int),
	}
	for i, u := range s.universities {
		// first occurrence wins for duplicated names or IDs
		if _, ok := s.univByName[u.Name]; !ok {
			s.univByName[u.Name] = i
		}
		if _, ok := s.univByID[u.ID]; !ok {
			s.univByID[u.ID] = i
		}
	}
	for i, o := range s.organizations {
		s.orgsByUniv[o.UniversityName] = append(s.orgsByUniv[o.UniversityName], i)
	}
	return s
}

// Load reads both tables and builds a Store. Any load failure is returned as
// is; there is no partially loaded store.
func Load(ctx context.Context, src Sources) (*Store, error) {
	if src.UniversityColumns == (UniversityColumns{}) {
		src.UniversityColumns = DefaultUniversityColumns()
	}
	if src.OrganizationColumns == (OrganizationColumns{}) {
		src.OrganizationColumns = DefaultOrganizationColumns()
	}

	universities, err := LoadUniversities(ctx, src.Universities, src.UniversityColumns)
	if err != nil {
		return nil, fmt.Errorf("load universities: %w", err)
	}
	organizations, err := LoadOrganizations(ctx, src.Organizations, src.OrganizationColumns)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	return NewStore(universities, organizations), nil
}

// FindUniversityIDs resolves each requested name by exact match. It fails
// with UNKNOWN_UNIVERSITY on the first name that has no match; no partial
// result is returned. The result holds one record per distinct requested
// name, in request order.
func (s *Store) FindUniversityIDs(names []string) ([]UniversityRecord, error) {
	out := make([]UniversityRecord, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		idx, ok := s.univByName[name]
		if !ok {
			return nil, apperror.NewUnknownUniversity(name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, s.universities[idx])
	}
	return out, nil
}

// FindUniversityByID looks up a university by its 4-character code.
func (s *Store) FindUniversityByID(id string) (UniversityRecord, bool) {
	idx, ok := s.univByID[id]
	if !ok {
		return UniversityRecord{}, false
	}
	return s.universities[idx], true
}

// FindOrganizationsByUniversity returns every organization of each requested
// university. A university without organizations maps to an empty, non-nil
// slice; this is not an error, unlike FindUniversityIDs.
func (s *Store) FindOrganizationsByUniversity(universityNames []string) map[string][]OrganizationRecord {
	out := make(map[string][]OrganizationRecord, len(universityNames))
	for _, name := range universityNames {
		out[name] = s.organizationsOf(name)
	}
	return out
}

// SearchOrganizationsByNameFragment returns the university's organizations
// whose display name contains fragment (case-sensitive substring match).
func (s *Store) SearchOrganizationsByNameFragment(universityName, fragment string) []OrganizationRecord {
	out := []OrganizationRecord{}
	for _, idx := range s.orgsByUniv[universityName] {
		if o := s.organizations[idx]; strings.Contains(o.Name, fragment) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Store) organizationsOf(universityName string) []OrganizationRecord {
	idxs := s.orgsByUniv[universityName]
	out := make([]OrganizationRecord, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, s.organizations[idx])
	}
	return out
}

// Universities iterates over all university records in source order.
// The sequence can be ranged over any number of times.
func (s *Store) Universities() iter.Seq[UniversityRecord] {
	return func(yield func(UniversityRecord) bool) {
		for _, u := range s.universities {
			if !yield(u) {
				return
			}
		}
	}
}

// Organizations iterates over all organization records in source order.
// The sequence can be ranged over any number of times.
func (s *Store) Organizations() iter.Seq[OrganizationRecord] {
	return func(yield func(OrganizationRecord) bool) {
		for _, o := range s.organizations {
			if !yield(o) {
				return
			}
		}
	}
}

// Stats returns record counts.
func (s *Store) Stats() Stats {
	without := 0
	for name := range s.univByName {
		if len(s.orgsByUniv[name]) == 0 {
			without++
		}
	}
	return Stats{
		Universities:           len(s.universities),
		Organizations:          len(s.organizations),
		UniversitiesWithoutOrg: without,
	}
}

// Once loads a Store on first use and hands the same result to every later
// caller. A failed load is not retried; restart the process to pick up fixed
// sources.
type Once struct {
	src   Sources
	once  sync.Once
	store *Store
	err   error
}

// NewOnce prepares a lazily loaded directory.
func NewOnce(src Sources) *Once {
	return &Once{src: src}
}

// Get returns the loaded Store, loading it on the first call. The load is
// detached from ctx cancellation so an abandoned first caller cannot poison
// the result kept for the process.
func (o *Once) Get(ctx context.Context) (*Store, error) {
	o.once.Do(func() {
		o.store, o.err = Load(context.WithoutCancel(ctx), o.src)
	})
	return o.store, o.err
}
