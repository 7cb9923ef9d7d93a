package utils

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func frame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"Boarding", "Cleaning"}, series.String, "task_name"),
		series.New([]string{"2024-03-01 09:00:00", ""}, series.String, "actual_start"),
		series.New([]string{"2024-03-01 09:25:00", "2024-03-01 10:00:00"}, series.String, "actual_end"),
		series.New([]float64{75, 50}, series.Float, "rate"),
	)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]int{1, 2}, 3))
	assert.True(t, HasColumn(frame(), "rate"))
	assert.False(t, HasColumn(frame(), "missing"))
}

func TestSubSeriesTime(t *testing.T) {
	df, err := SubSeriesTime(frame(), "actual_start", "actual_end", "duration_min")
	require.NoError(t, err)
	assert.Equal(t, "25.0", df.Col("duration_min").Elem(0).String())
	assert.Equal(t, "", df.Col("duration_min").Elem(1).String())

	_, err = SubSeriesTime(frame(), "nope", "actual_end", "x")
	assert.Error(t, err)

	bad := dataframe.New(
		series.New([]string{"yesterday"}, series.String, "a"),
		series.New([]string{"2024-03-01 09:00:00"}, series.String, "b"),
	)
	_, err = SubSeriesTime(bad, "a", "b", "d")
	assert.Error(t, err)
}

func TestSaveSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, SaveSheets([]Sheet{
		{Name: "Summary", Frame: frame()},
		{Name: "Rows", Frame: frame()},
	}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Rows"}, f.GetSheetList())
	v, err := f.GetCellValue("Rows", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Boarding", v)
	v, err = f.GetCellValue("Summary", "D1")
	require.NoError(t, err)
	assert.Equal(t, "rate", v)
}

func TestWriteSheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSheets([]Sheet{{Name: "Data", Frame: frame()}}, &buf))
	assert.Greater(t, buf.Len(), 0)

	assert.Error(t, WriteSheets(nil, &buf))
}

func TestSaveSingleSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.xlsx")
	require.NoError(t, SaveSheets([]Sheet{{Name: "Sheet1", Frame: frame()}}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}
