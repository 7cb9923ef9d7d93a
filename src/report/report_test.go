package report

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/processor"
)

func ts(s string) sql.NullTime {
	t, _ := time.Parse("2006-01-02 15:04", s)
	return sql.NullTime{Time: t, Valid: true}
}

func okReport(t *testing.T) *processor.Report {
	t.Helper()
	rows := []dataset.Row{
		{
			AirportIATACode: "CDG", Aircraft: "A320", TaskName: "Boarding", TurnaroundID: "T1",
			IsPunctual:    sql.NullBool{Bool: true, Valid: true},
			TaskUpdatedAt: ts("2024-03-01 10:00"),
			PlanningStart: ts("2024-03-01 09:00"), PlanningEnd: ts("2024-03-01 09:20"),
			ActualStart: ts("2024-03-01 09:00"), ActualEnd: ts("2024-03-01 09:10"),
			CustomLabel: "Embarquement",
		},
		{
			AirportIATACode: "ORY", Aircraft: "A320", TaskName: "Cleaning", TurnaroundID: "T2",
			IsPunctual:    sql.NullBool{Bool: false, Valid: true},
			TaskUpdatedAt: ts("2024-03-02 10:00"),
			PlanningStart: ts("2024-03-02 09:00"), PlanningEnd: ts("2024-03-02 09:15"),
			ActualStart: ts("2024-03-02 09:00"), ActualEnd: ts("2024-03-02 09:30"),
		},
	}
	ds := dataset.New("test", rows)
	rep := processor.Run(ds, processor.DefaultSelection(ds, nil), processor.DimAirport)
	require.True(t, rep.OK())
	return rep
}

func emptyReport() *processor.Report {
	ds := dataset.New("test", nil)
	return processor.Run(ds, processor.Selection{}, processor.DimAirport)
}

func TestFormatters(t *testing.T) {
	v := 75.0
	assert.Equal(t, "75.0 %", FormatPercent(&v))
	assert.Equal(t, NoData, FormatPercent(nil))
	assert.Equal(t, "75.0 min", FormatMinutes(&v))
	assert.Equal(t, NoData, FormatMinutes(nil))
}

func TestSummaryTableFormats(t *testing.T) {
	rep := okReport(t)

	text := SummaryTable(*rep.Summary, FormatText)
	assert.Contains(t, text, "Punctuality rate")
	assert.Contains(t, text, "50.0 %")
	assert.Contains(t, text, "20.0 min")

	md := SummaryTable(*rep.Summary, FormatMarkdown)
	assert.Contains(t, md, "| Task count |")

	html := SummaryTable(*rep.Summary, FormatHTML)
	assert.Contains(t, html, "<table")

	csv := SummaryTable(*rep.Summary, FormatCSV)
	assert.Contains(t, csv, "Distinct turnarounds,2")
}

func TestTextReport(t *testing.T) {
	out := Text(okReport(t), "Airport", FormatText)
	for _, want := range []string{"Key indicators", "Daily punctuality", "Planned vs actual deviation", "Punctuality by airport", "CDG"} {
		assert.Contains(t, out, want)
	}

	out = Text(emptyReport(), "Airport", FormatText)
	assert.NotContains(t, out, "Key indicators")
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestDetailRowsTable(t *testing.T) {
	rep := okReport(t)
	rows, err := processor.DetailTable(rep.Rows(), processor.DetailQuery{})
	require.NoError(t, err)

	out := DetailRowsTable(rows, strings.ToUpper, FormatText)
	assert.Contains(t, out, "AIRPORT_IATA_CODE")
	assert.Contains(t, out, "Embarquement")
	assert.Contains(t, out, "2024-03-01 09:00:00")
}

func TestSaveWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveWorkbook(okReport(t), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDaily, SheetDeviation, SheetGrouped, SheetRows}, f.GetSheetList())

	rows, err := f.GetRows(SheetRows)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "duration_min", rows[0][len(rows[0])-1])
	assert.Equal(t, "10.0", rows[1][len(rows[1])-1])

	grouped, err := f.GetRows(SheetGrouped)
	require.NoError(t, err)
	assert.Equal(t, dataset.ColAirportIATACode, grouped[0][0])
	assert.Equal(t, "CDG", grouped[1][0])
}

func TestWorkbookRejectsEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(emptyReport(), &buf)
	assert.ErrorIs(t, err, processor.ErrEmptySelection)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(okReport(t), "Turnaround punctuality", "airport", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	buf.Reset()
	assert.Error(t, WritePDF(emptyReport(), "x", "airport", &buf))
}
