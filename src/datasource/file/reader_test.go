package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/datasource/file/filetest"
)

func TestReadXLSXSample(t *testing.T) {
	path := filetest.Sample(t)

	ds, err := ReadXLSX(path, Options{SheetName: "Data"})
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())

	rows := ds.Rows()
	first := rows[0]
	assert.Equal(t, "A320", first.Aircraft)
	assert.Equal(t, "CDG", first.AirportIATACode)
	assert.Equal(t, "Boarding", first.TaskName)
	assert.True(t, first.IsPunctual.Valid)
	assert.True(t, first.IsPunctual.Bool)
	assert.True(t, first.ActualStart.Valid)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), first.ActualStart.Time)

	last := rows[3]
	assert.False(t, last.IsPunctual.Valid)
	assert.False(t, last.TaskUpdatedAt.Valid, "无法解析的时间应为空值")
	assert.False(t, last.ActualEnd.Valid)
	assert.True(t, last.ActualStart.Valid)
}

func TestReadXLSXSerialTimesAndLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial.xlsx")
	filetest.Write(t, path, "Data", []filetest.Record{{
		dataset.ColAircraft:      "A321",
		dataset.ColTaskName:      "Boarding",
		dataset.ColActualStart:   45352.375, // 2024-03-01 09:00
		dataset.ColTaskUpdatedAt: "2024-03-01T09:00:00+02:00",
		dataset.ColTurnaroundID:  42.0,
	}})

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	ds, err := ReadXLSX(path, Options{SheetName: "Data", Location: paris})
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	r := ds.Rows()[0]
	require.True(t, r.ActualStart.Valid)
	want := time.Date(2024, 3, 1, 9, 0, 0, 0, paris)
	assert.WithinDuration(t, want, r.ActualStart.Time, time.Second)
	assert.Equal(t, paris, r.ActualStart.Time.Location())

	require.True(t, r.TaskUpdatedAt.Valid)
	assert.True(t, r.TaskUpdatedAt.Time.Equal(time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, "42", r.TurnaroundID)
}

func TestReadXLSXMissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Ref, "nope.xlsx")
}

func TestReadXLSXMissingSheet(t *testing.T) {
	path := filetest.Sample(t)
	_, err := ReadXLSX(path, Options{SheetName: "Other"})
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestReadXLSXWrongSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.xlsx")
	filetest.WriteColumns(t, path, "Data", []string{dataset.ColAircraft, dataset.ColTaskName}, []filetest.Record{
		{dataset.ColAircraft: "A320", dataset.ColTaskName: "Boarding"},
	})

	_, err := ReadXLSX(path, Options{SheetName: "Data"})
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), dataset.ColIsPunctual)
}

func TestReadXLSXSkipsBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.xlsx")
	filetest.Write(t, path, "Data", []filetest.Record{
		{dataset.ColTaskName: "Boarding"},
		{},
		{dataset.ColTaskName: "Cleaning"},
	})

	ds, err := ReadXLSX(path, Options{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestReadXLSXBinary(t *testing.T) {
	content, err := os.ReadFile(filetest.Sample(t))
	require.NoError(t, err)

	ds, err := ReadXLSXBinary("imap:report", content, Options{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, "imap:report", ds.Source())

	_, err = ReadXLSXBinary("imap:broken", []byte("not a zip"), Options{})
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestParseBool(t *testing.T) {
	cases := map[string]struct {
		valid, value bool
	}{
		"TRUE":  {true, true},
		"1":     {true, true},
		"false": {true, false},
		"0":     {true, false},
		"oui":   {true, true},
		"":      {false, false},
		"maybe": {false, false},
	}
	for raw, want := range cases {
		got := parseBool(raw)
		assert.Equal(t, want.valid, got.Valid, raw)
		assert.Equal(t, want.value, got.Bool, raw)
	}
}

func TestParseTimeLayouts(t *testing.T) {
	p := cellParser{loc: time.UTC}
	for _, raw := range []string{
		"2024-03-01 09:00:00",
		"2024-03-01T09:00:00Z",
		"2024-03-01 09:00:00.123456",
		"2024/03/01 09:00",
		"2024-03-01",
	} {
		assert.True(t, p.parseTime(raw).Valid, raw)
	}
	assert.False(t, p.parseTime("31/31/2024").Valid)
	assert.False(t, p.parseTime("").Valid)
}

func TestStoreLoadsOnce(t *testing.T) {
	content, err := os.ReadFile(filetest.Sample(t))
	require.NoError(t, err)

	var calls int32
	store := NewStore(Options{SheetName: "Data"})
	store.Register("imap", func(ctx context.Context, ref string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Turnaround", ref)
		return content, nil
	})

	var wg sync.WaitGroup
	results := make([]*dataset.Dataset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := store.Load(context.Background(), "imap:Turnaround")
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
	assert.True(t, store.Loaded("imap:Turnaround"))
	assert.False(t, store.Loaded("other"))
}

func TestStoreRemembersFailure(t *testing.T) {
	store := NewStore(Options{})
	store.Register("imap", func(ctx context.Context, ref string) ([]byte, error) {
		return nil, errors.New("mailbox offline")
	})

	_, err := store.Load(context.Background(), "imap:x")
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "mailbox offline")
	assert.False(t, store.Loaded("imap:x"))

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestStoreFilePath(t *testing.T) {
	path := filetest.Sample(t)
	store := NewStore(Options{SheetName: "Data"})

	a, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	b, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, a, b)
}
