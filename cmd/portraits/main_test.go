package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portraits/internal/core/apperror"
	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/export"
)

const univCSV = `大学一覧
大学ID,学校名
0292,大阪大学
0011,東京大学
`

const depaCSV = `学部・研究科一覧
学校名,学部・研究科等組織ID,学部・研究科名称
大阪大学,0292-27-27-1G01-00-1,工学部
大阪大学,0292-27-27-2G01-00-1,工学研究科
大阪大学,0292-27-27-1A01-00-1,文学部
大阪大学,0292-27-27-2Y03-00-1,情報科学研究科
東京大学,0011-13-13-1G01-00-1,工学部
東京大学,0011-13-13-1A01-00-1,文学部
`

const jobsContent = `{"GAKKA_SENKO":[{"SANGYO_SHUSHOKUSHA_SU":{"SHUSHOKUSHA_SU":[
  {"SHUSHOKUSHA_SANGYO_BUNRUI":"情報通信業","SHUSHOKUSHA_SU":"7"}]}}]}`

// fakeAPI answers every endpoint with an empty data list, except job
// placements.
type fakeAPI struct {
	mu    sync.Mutex
	years []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.years = append(f.years, r.URL.Query().Get("year"))
	f.mu.Unlock()

	data := `"NUMBER":"0","DATA_INF":[]`
	if strings.HasSuffix(r.URL.Path, "/getStatusAfterGraduationJobs") {
		data = `"NUMBER":"1","DATA_INF":[{"CONTENT":` + jobsContent + `}]`
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"GET_STATUS_LIST":{"RESULT":{"STATUS":"0","ERROR_MSG":""},"DATALIST_INF":{%s}}}`, data)
}

func (f *fakeAPI) requestedYears() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.years...)
}

// setupEnv points the configuration at fixture files in a fresh working
// directory and returns that directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "UnivList.csv"), []byte(univCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DepaList.csv"), []byte(depaCSV), 0o644))

	t.Setenv("UNIV_LIST_CSV", filepath.Join(dir, "UnivList.csv"))
	t.Setenv("DEPA_LIST_CSV", filepath.Join(dir, "DepaList.csv"))
	t.Setenv("OUTPUT_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OUTPUT_COMPRESSION", "")
	t.Setenv("RULES_FILE", "")
	t.Setenv("TARGET_YEAR", "")
	t.Setenv("PORTRAITS_ACCESS_KEY", "")
	t.Setenv("ACCESS_KEY", "")
	return dir
}

func withAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("PORTRAITS_BASE_URL", srv.URL)
	t.Setenv("PORTRAITS_ACCESS_KEY", "test-key")
	t.Setenv("PORTRAITS_REQUEST_INTERVAL", "0s")
	return api
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLookupUniversities(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "lookup", "universities")
	require.NoError(t, err)
	assert.Contains(t, out, "0292\t大阪大学\n")
	assert.Contains(t, out, "0011\t東京大学\n")

	out, err = run(t, "lookup", "universities", "東京大学")
	require.NoError(t, err)
	assert.Equal(t, "0011\t東京大学\n", out)

	_, err = run(t, "lookup", "universities", "東京大学", "架空大学")
	assert.True(t, apperror.IsUnknownUniversity(err))
}

func TestLookupOrganizations(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "lookup", "organizations", "大阪大学", "--graduate", "--json")
	require.NoError(t, err)

	var byUniv map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &byUniv))
	require.Len(t, byUniv["大阪大学"], 2)
	assert.Equal(t, "工学研究科", byUniv["大阪大学"][0]["name"])

	out, err = run(t, "lookup", "organizations", "東京大学")
	require.NoError(t, err)
	assert.Contains(t, out, "東京大学 (2)")
	assert.Contains(t, out, "1G01")
	assert.Contains(t, out, "engineering")
}

func TestLookupSearch(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "lookup", "search", "大阪大学", "研究科")
	require.NoError(t, err)
	assert.Contains(t, out, "工学研究科")
	assert.Contains(t, out, "情報科学研究科")
	assert.NotContains(t, out, "文学部")

	_, err = run(t, "lookup", "search")
	assert.Error(t, err)
}

func TestAnalyzeIDs(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, "analyze-ids", "--university", "大阪大学,東京大学")
	require.NoError(t, err)
	assert.Contains(t, out, "organizations: 6 (skipped 0)")
	assert.Contains(t, out, "rules 2024.1")

	f, err := os.Open(filepath.Join(dir, analysisFile))
	require.NoError(t, err)
	defer f.Close()
	var report map[string]any
	require.NoError(t, json.NewDecoder(f).Decode(&report))
	assert.Equal(t, []any{"大阪大学", "東京大学"}, report["universities"])

	_, err = run(t, "analyze-ids")
	assert.ErrorContains(t, err, "university")

	_, err = run(t, "analyze-ids", "-u", "架空大学")
	assert.True(t, apperror.IsUnknownUniversity(err))
}

func TestCollect(t *testing.T) {
	dir := setupEnv(t)
	withAPI(t)

	out, err := run(t, "collect", "-u", "大阪大学", "--sample", "2", "--compression", "gzip")
	require.NoError(t, err)
	assert.Contains(t, out, "大阪大学: organizations=4")

	rc, err := export.Open(filepath.Join(dir, detailedFile+".gz"))
	require.NoError(t, err)
	defer rc.Close()
	var col reports.Collection
	require.NoError(t, json.NewDecoder(rc).Decode(&col))
	assert.NotEmpty(t, col.RunID)
	assert.Equal(t, []string{"大阪大学"}, col.Universities)
	require.NotNil(t, col.Data["大阪大学"])
	require.NotNil(t, col.Data["大阪大学"].Jobs)
	assert.Equal(t, 14, col.Data["大阪大学"].Jobs.Total)

	f, err := os.Open(filepath.Join(dir, summaryFile))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, reports.SummaryHeader(), records[0])
	assert.Equal(t, "大阪大学", records[1][0])
}

func TestCollectRequiresAccessKey(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "collect", "-u", "大阪大学")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAccessKey))
}

func TestEmployment(t *testing.T) {
	dir := setupEnv(t)
	api := withAPI(t)

	out, err := run(t, "employment", "-u", "大阪大学", "--faculty", "工学部", "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, out, "大阪大学: employed=7 faculties=1")
	assert.Contains(t, out, "情報通信業")

	data, err := os.ReadFile(filepath.Join(dir, employmentFile))
	require.NoError(t, err)
	var report employmentReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 2023, report.TargetYear)
	assert.Equal(t, "工学部", report.Faculty)
	assert.Equal(t, 7, report.Universities["大阪大学"].TotalEmployed)

	assert.Equal(t, []string{"2023"}, api.requestedYears())
}

func TestInvalidFlagOverride(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "lookup", "universities", "--compression", "brotli")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = run(t, "lookup", "universities", "--encoding", "latin1")
	assert.Error(t, err)
}
