package web

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TurnaroundAnalysis/src/config"
	"TurnaroundAnalysis/src/datasource/file"
	"TurnaroundAnalysis/src/datasource/file/filetest"
	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/storage"
)

func testServer(t *testing.T, ref string) (*Server, *storage.Logger) {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "web.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	dcfg := &config.DataConfig{
		OfficialTasks:   []string{"Boarding", "Cleaning", "Fueling"},
		DimensionLabels: map[string]string{"airport": "Airport", "aircraft": "Aircraft", "task": "Task"},
		ColumnLabels:    map[string]string{"task_name": "Task"},
	}
	store := file.NewStore(file.Options{SheetName: "Data", Location: time.UTC})
	return NewServer(store, ref, dcfg, logger), logger
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	h := s.Handler()

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","loaded":false}`, rec.Body.String())

	require.Equal(t, http.StatusOK, get(t, h, "/api/filters").Code)
	rec = get(t, h, "/health")
	assert.JSONEq(t, `{"status":"ok","loaded":true}`, rec.Body.String())
}

func TestFilters(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	rec := get(t, s.Handler(), "/api/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	var got filtersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"CDG", "ORY"}, got.Airports)
	assert.Equal(t, []string{"A320", "B737"}, got.Aircraft)
	assert.Equal(t, []string{"Boarding", "Cleaning", "Fueling"}, got.Tasks)
	assert.Equal(t, "Airport", got.Labels["airport"])
}

func TestReportJSON(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	h := s.Handler()

	var rep processor.Report
	rec := get(t, h, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, processor.StatusOK, rep.Status)
	require.NotNil(t, rep.Summary)
	assert.Equal(t, 4, rep.Summary.TaskCount)
	assert.InDelta(t, 50.0, *rep.Summary.PunctualityRate, 1e-9)

	rep = processor.Report{}
	rec = get(t, h, "/api/report?airport=CDG&dimension=task")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.Summary.TaskCount)
	assert.Equal(t, processor.DimTask, rep.Dimension)

	// 参数存在但为空: 空集合
	rep = processor.Report{}
	rec = get(t, h, "/api/report?aircraft=")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, processor.StatusEmptySelection, rep.Status)
	assert.Nil(t, rep.Summary)

	rec = get(t, h, "/api/report?dimension=gate")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRows(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	h := s.Handler()

	rec := get(t, h, "/api/rows?sort=task_name&desc=true&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []processor.DetailRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Fueling", rows[0].TaskName)

	rec = get(t, h, "/api/rows?q=embarquement")
	require.Equal(t, http.StatusOK, rec.Code)
	rows = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Embarquement", rows[0].CustomLabel)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/rows?sort=turnaround_id").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/rows?limit=-1").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, h, "/api/rows?task=").Code)
}

func TestCharts(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	h := s.Handler()

	for _, name := range []string{"task-counts", "time-series", "grouped"} {
		rec := get(t, h, "/charts/"+name+".png")
		require.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
	}

	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/pie.png").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, h, "/charts/grouped.png?airport=").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/grouped.png?task=Pushback").Code)
}

func TestExports(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	h := s.Handler()

	rec := get(t, h, "/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = get(t, h, "/export.pdf?dimension=aircraft")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	assert.Equal(t, http.StatusUnprocessableEntity, get(t, h, "/export.xlsx?task=").Code)
}

func TestTableAndDashboard(t *testing.T) {
	s, _ := testServer(t, filetest.Sample(t))
	h := s.Handler()

	rec := get(t, h, "/table.txt?rows=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Key indicators")
	assert.Contains(t, rec.Body.String(), "Punctuality by airport")
	assert.Contains(t, rec.Body.String(), "TASK")

	rec = get(t, h, "/table.txt?format=markdown")
	assert.Contains(t, rec.Body.String(), "| Task count |")
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/table.txt?format=yaml").Code)

	rec = get(t, h, "/table.txt?airport=")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "机场")

	rec = get(t, h, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")
	assert.Contains(t, rec.Body.String(), "Turnarounds 2")

	rec = get(t, h, "/dashboard?task=Pushback")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourceUnavailable(t *testing.T) {
	s, _ := testServer(t, filepath.Join(t.TempDir(), "missing.xlsx"))
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/report").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/filters").Code)
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","loaded":false}`, rec.Body.String())
}

func TestLogStream(t *testing.T) {
	s, logger := testServer(t, filetest.Sample(t))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logger.Info("hello stream")

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "INFO: hello stream")
}

func TestSelectionFromQuery(t *testing.T) {
	def := processor.Selection{
		Airports: processor.NewSet("CDG", "ORY"),
		Aircraft: processor.NewSet("A320"),
		Tasks:    processor.NewSet("Boarding"),
	}
	q := map[string][]string{"airport": {"CDG", " ", ""}, "task": {"  "}}

	sel := selectionFromQuery(q, def)
	assert.Equal(t, processor.NewSet("CDG"), sel.Airports)
	assert.Equal(t, def.Aircraft, sel.Aircraft)
	assert.Empty(t, sel.Tasks)
}
