package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/utils"
)

func detailRows() []dataset.Row {
	a := row("CDG", "A320", "Boarding", punctual(true))
	a.ActualStart = at("2024-03-01 09:30")
	a.CustomLabel = "Embarquement prioritaire"

	b := row("ORY", "B737", "Cleaning", punctual(false))
	b.CustomLabel = "Nettoyage cabine"

	c := row("NCE", "A321", "Loading", punctual(true))
	c.ActualStart = at("2024-03-01 08:00")
	c.ActualEnd = at("2024-03-01 08:45")
	c.InformationType = "Numéro de soute"

	return []dataset.Row{a, b, c}
}

func TestDetailTableDefaultOrder(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Loading", rows[0].TaskName)
	assert.Equal(t, "Boarding", rows[1].TaskName)
	assert.Equal(t, "Cleaning", rows[2].TaskName, "空的开始时间排在最后")
	assert.Nil(t, rows[2].ActualStart)
}

func TestDetailTableDescendingKeepsNullsLast(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{SortBy: dataset.ColActualStart, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Boarding", "Loading", "Cleaning"},
		[]string{rows[0].TaskName, rows[1].TaskName, rows[2].TaskName})
}

func TestDetailTableSortByText(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{SortBy: dataset.ColAirportIATACode})
	require.NoError(t, err)
	assert.Equal(t, "CDG", rows[0].AirportIATACode)
	assert.Equal(t, "ORY", rows[2].AirportIATACode)

	_, err = DetailTable(detailRows(), DetailQuery{SortBy: "turnaround_id"})
	assert.Error(t, err)
}

func TestDetailTableSearchFoldsAccents(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{Search: "NUMERO"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Loading", rows[0].TaskName)

	rows, err = DetailTable(detailRows(), DetailQuery{Search: "nettoyage"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = DetailTable(detailRows(), DetailQuery{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDetailTableLimit(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDetailFrame(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{})
	require.NoError(t, err)

	df := DetailFrame(rows)
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, DetailColumns, df.Names())
	assert.Equal(t, "2024-03-01 08:00:00", df.Col(dataset.ColActualStart).Elem(0).String())
	assert.Equal(t, "NCE", df.Col(dataset.ColAirportIATACode).Elem(0).String())
}

func TestDetailFrameTimesParseBack(t *testing.T) {
	rows, err := DetailTable(detailRows(), DetailQuery{})
	require.NoError(t, err)
	df := DetailFrame(rows)

	got, ok, err := utils.ParseTime(df.Col(dataset.ColActualStart).Elem(0))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, rows[0].ActualStart)
	assert.True(t, rows[0].ActualStart.Equal(got))

	withDuration, err := utils.SubSeriesTime(df, dataset.ColActualStart, dataset.ColActualEnd, "duration_min")
	require.NoError(t, err)
	assert.Contains(t, withDuration.Names(), "duration_min")
}
