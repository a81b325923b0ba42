package reports

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portraits/internal/core/apperror"
	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
	"portraits/internal/infrastructure/portraits"
)

type fakeResponse struct {
	content string
	err     error
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	onCall    func()
}

func fetchKey(endpoint portraits.Endpoint, orgID string) string {
	return string(endpoint) + "|" + orgID
}

func (f *fakeFetcher) Content(_ context.Context, endpoint portraits.Endpoint, _ int, orgID string) (json.RawMessage, error) {
	f.mu.Lock()
	key := fetchKey(endpoint, orgID)
	f.calls = append(f.calls, key)
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	r, ok := f.responses[key]
	if !ok {
		return nil, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.content), nil
}

var collectorOrgs = []directory.OrganizationRecord{
	{ID: "0292-27-27-1G01-00-1", Name: "工学部", UniversityName: "大阪大学"},
	{ID: "0292-27-27-1E01-00-1", Name: "理学部", UniversityName: "大阪大学"},
	{ID: "0292-27-27-1A01-00-1", Name: "文学部", UniversityName: "大阪大学"},
	{ID: "0292-27-27-1C01-00-1", Name: "法学部", UniversityName: "大阪大学"},
	{ID: "0292-27-27-2G01-00-1", Name: "工学研究科", UniversityName: "大阪大学"},
	{ID: "0292-27-27-2E01-00-1", Name: "理学研究科", UniversityName: "大阪大学"},
}

func collectorStore() *directory.Store {
	return directory.NewStore(
		[]directory.UniversityRecord{{ID: "0292", Name: "大阪大学"}, {ID: "0011", Name: "東京大学"}},
		collectorOrgs,
	)
}

func collectorFetcher() *fakeFetcher {
	upstream := apperror.NewUpstream("x", "API returned status 1")
	return &fakeFetcher{responses: map[string]fakeResponse{
		fetchKey(portraits.StudentFacultyStatus, "0292"): {content: `{"GAKUSEI_SU":{"CHUYA_KBN":[{"GAKUSEI_SU_KEI":"900"}]},"KYOIN_SU":{"KYOIN_SU_KEI":"90"}}`},

		fetchKey(portraits.CollegeUndergraduateStudentsDetail, "0292-27-27-1G01-00-1"): {content: `{"GAKKA_GAKUSEI_SU":[{"GAKUNEN_GAKUSEI_SU":[{"GAKUNEN":"1","GAKUSEI_SU":"100"}]}]}`},
		fetchKey(portraits.CollegeUndergraduateStudentsDetail, "0292-27-27-1E01-00-1"): {err: upstream},

		fetchKey(portraits.GraduateStudentsDetail, "0292-27-27-2G01-00-1"): {err: upstream},
		fetchKey(portraits.GraduateStudentsDetail, "0292-27-27-2E01-00-1"): {err: upstream},

		fetchKey(portraits.StatusAfterGraduationGraduates, "0292-27-27-1G01-00-1"): {content: graduatesFixture},

		fetchKey(portraits.StatusAfterGraduationJobs, "0292-27-27-1G01-00-1"): {content: jobsFixture},
		fetchKey(portraits.StatusAfterGraduationJobs, "0292-27-27-1A01-00-1"): {err: upstream},
		fetchKey(portraits.StatusAfterGraduationJobs, "0292-27-27-2G01-00-1"): {content: jobsFixture},

		fetchKey(portraits.SchoolFacilities, "0292"): {err: upstream},
	}}
}

func TestCollector_Collect(t *testing.T) {
	api := collectorFetcher()
	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600))
	c := NewCollector(api, collectorStore(), classify.Default(), 2024,
		WithSampleSize(2), WithClock(func() time.Time { return at }))

	col, err := c.Collect(context.Background(), "run-1", []string{"大阪大学", "東京大学"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", col.RunID)
	assert.Equal(t, at.UTC(), col.Timestamp)
	assert.Equal(t, 2024, col.TargetYear)
	assert.Equal(t, []string{"大阪大学", "東京大学"}, col.Universities)

	osaka := col.Data["大阪大学"]
	require.NotNil(t, osaka)
	assert.Equal(t, "0292", osaka.ID)

	require.NotNil(t, osaka.StudentFaculty)
	assert.Equal(t, 900, osaka.StudentFaculty.TotalStudents)

	require.NotNil(t, osaka.Undergraduate)
	assert.Equal(t, 100, osaka.Undergraduate.ByGrade["1"])
	assert.Equal(t, []string{"工学部"}, osaka.Samples[CategoryUndergraduate])

	assert.Nil(t, osaka.Graduate)

	require.NotNil(t, osaka.Career)
	assert.Equal(t, 300, osaka.Career.Graduates)

	require.NotNil(t, osaka.Jobs)
	assert.Equal(t, 1215, osaka.Jobs.Total)
	assert.Equal(t, 15, osaka.Jobs.ByIndustry["製造業"])

	assert.Nil(t, osaka.Facilities)

	require.NotNil(t, osaka.Structure)
	assert.Equal(t, 6, osaka.Structure.DepartmentCount)

	errs := col.Errors["大阪大学"]
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, CategoryGraduate)
	assert.Contains(t, errs, CategoryFacilities)
	assert.Contains(t, errs[CategoryGraduate], "工学研究科")

	tokyo := col.Data["東京大学"]
	require.NotNil(t, tokyo)
	assert.Nil(t, tokyo.Structure)
	assert.Equal(t, map[Category]string{CategoryGeneral: "no organizations in directory"}, col.Errors["東京大学"])

	// sampling never reaches past the second organization
	assert.NotContains(t, api.calls, fetchKey(portraits.CollegeUndergraduateStudentsDetail, "0292-27-27-1A01-00-1"))
}

func TestCollector_Summary(t *testing.T) {
	c := NewCollector(collectorFetcher(), collectorStore(), classify.Default(), 2024, WithSampleSize(2))
	col, err := c.Collect(context.Background(), "run-1", []string{"大阪大学", "東京大学"})
	require.NoError(t, err)

	header := SummaryHeader()
	assert.Equal(t, "大学名", header[0])
	assert.Equal(t, "組織数", header[1])
	assert.Equal(t, "学生教員状況_取得", header[2])
	assert.Equal(t, "組織分析_取得", header[9])
	assert.Equal(t, "エラー数", header[10])

	rows := col.Summary()
	require.Len(t, rows, 2)
	assert.Equal(t,
		[]string{"大阪大学", "6", "あり", "あり", "なし", "あり", "あり", "なし", "なし", "あり", "2"},
		rows[0].Record())
	assert.Equal(t,
		[]string{"東京大学", "0", "なし", "なし", "なし", "なし", "なし", "なし", "なし", "なし", "1"},
		rows[1].Record())
	assert.Len(t, rows[0].Record(), len(header))
}

func TestCollector_UnknownUniversity(t *testing.T) {
	api := collectorFetcher()
	c := NewCollector(api, collectorStore(), classify.Default(), 2024)

	_, err := c.Collect(context.Background(), "run-1", []string{"大阪大学", "架空大学"})
	assert.True(t, apperror.IsUnknownUniversity(err))
	assert.Empty(t, api.calls)
}

func TestCollector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := collectorFetcher()
	api.onCall = cancel
	c := NewCollector(api, collectorStore(), classify.Default(), 2024)

	_, err := c.Collect(ctx, "run-1", []string{"大阪大学"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, api.calls, 1)
}

func TestCollector_SampledAllFail(t *testing.T) {
	api := &fakeFetcher{responses: map[string]fakeResponse{
		fetchKey(portraits.StatusAfterGraduationGraduates, "0292-27-27-1G01-00-1"): {err: errors.New("boom")},
	}}
	c := NewCollector(api, collectorStore(), classify.Default(), 2024, WithSampleSize(1))

	col, err := c.Collect(context.Background(), "run-1", []string{"大阪大学"})
	require.NoError(t, err)
	assert.Contains(t, col.Errors["大阪大学"][CategoryCareer], "boom")
	assert.Nil(t, col.Data["大阪大学"].Career)
}

func TestCollector_MalformedContentExcludedFromTotals(t *testing.T) {
	api := &fakeFetcher{responses: map[string]fakeResponse{
		fetchKey(portraits.CollegeUndergraduateStudentsDetail, "0292-27-27-1G01-00-1"): {content: `"not an object"`},
		fetchKey(portraits.CollegeUndergraduateStudentsDetail, "0292-27-27-1E01-00-1"): {content: `{"GAKKA_GAKUSEI_SU":[{"GAKUNEN_GAKUSEI_SU":[{"GAKUNEN":"1","GAKUSEI_SU":"100"}]}]}`},

		fetchKey(portraits.StatusAfterGraduationJobs, "0292-27-27-1G01-00-1"): {content: `["not", "an", "object"]`},
		fetchKey(portraits.StatusAfterGraduationJobs, "0292-27-27-1E01-00-1"): {content: jobsFixture},
	}}
	c := NewCollector(api, collectorStore(), classify.Default(), 2024, WithSampleSize(2))

	col, err := c.Collect(context.Background(), "run-1", []string{"大阪大学"})
	require.NoError(t, err)
	osaka := col.Data["大阪大学"]

	require.NotNil(t, osaka.Undergraduate)
	assert.Equal(t, 1, osaka.Undergraduate.Departments)
	assert.Equal(t, map[string]int{"1": 100}, osaka.Undergraduate.ByGrade)
	assert.Equal(t, []string{"理学部"}, osaka.Samples[CategoryUndergraduate])

	require.NotNil(t, osaka.Jobs)
	assert.Equal(t, 1215, osaka.Jobs.Total)
	assert.Equal(t, []string{"理学部"}, osaka.Samples[CategoryJobs])

	assert.NotContains(t, col.Errors["大阪大学"], CategoryUndergraduate)
	assert.NotContains(t, col.Errors["大阪大学"], CategoryJobs)
}

func TestCollector_FacultyEmployment(t *testing.T) {
	c := NewCollector(collectorFetcher(), collectorStore(), classify.Default(), 2024)

	t.Run("single faculty", func(t *testing.T) {
		out, err := c.FacultyEmployment(context.Background(), []string{"大阪大学"}, "工学部")
		require.NoError(t, err)

		osaka := out["大阪大学"]
		assert.Equal(t, 1215, osaka.TotalEmployed)
		require.Contains(t, osaka.Faculties, "工学部")
		assert.Equal(t, 10, osaka.Faculties["工学部"].ByIndustry["製造業／電子部品"])
		assert.Len(t, osaka.Faculties, 1)
	})

	t.Run("all faculties", func(t *testing.T) {
		out, err := c.FacultyEmployment(context.Background(), []string{"大阪大学", "東京大学"}, "")
		require.NoError(t, err)

		osaka := out["大阪大学"]
		assert.Equal(t, 2430, osaka.TotalEmployed)
		assert.Len(t, osaka.Faculties, 2)
		assert.Equal(t, 2400, osaka.IndustriesSummary["情報通信業"])

		assert.Zero(t, out["東京大学"].TotalEmployed)
	})

	t.Run("unknown faculty", func(t *testing.T) {
		out, err := c.FacultyEmployment(context.Background(), []string{"大阪大学"}, "医学部")
		require.NoError(t, err)
		assert.Empty(t, out["大阪大学"].Faculties)
	})

	t.Run("unknown university", func(t *testing.T) {
		_, err := c.FacultyEmployment(context.Background(), []string{"架空大学"}, "")
		assert.True(t, apperror.IsUnknownUniversity(err))
	})
}
