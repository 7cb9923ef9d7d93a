package datapush

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/processor"
)

func TestSign(t *testing.T) {
	// 钉钉文档中的算法: HmacSHA256 后 base64
	got := sign("1577262236757", "SEC000")
	assert.NotEmpty(t, got)
	assert.Equal(t, got, sign("1577262236757", "SEC000"))
	assert.NotEqual(t, got, sign("1577262236758", "SEC000"))
}

func TestPushMarkdown(t *testing.T) {
	var got markdownMessage
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	robot := NewRobot(srv.URL+"/robot/send?access_token=abc", "SEC123")
	robot.now = func() time.Time { return time.UnixMilli(1700000000000) }

	require.NoError(t, robot.PushMarkdown(context.Background(), "title", "body"))
	assert.Equal(t, "markdown", got.MsgType)
	assert.Equal(t, "title", got.Markdown.Title)
	assert.Equal(t, "body", got.Markdown.Text)
	assert.Equal(t, []string{"abc"}, query["access_token"])
	assert.Equal(t, []string{"1700000000000"}, query["timestamp"])
	assert.Equal(t, []string{sign("1700000000000", "SEC123")}, query["sign"])
}

func TestPushRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
			return
		}
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	robot := NewRobot(srv.URL, "")
	robot.retryInterval = time.Millisecond
	require.NoError(t, robot.PushMarkdown(context.Background(), "t", "b"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	robot.retryTimes = 2
	atomic.StoreInt32(&calls, -10)
	err := robot.PushMarkdown(context.Background(), "t", "b")
	assert.ErrorContains(t, err, "sign not match")
}

func TestPushHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	robot := NewRobot(srv.URL, "")
	robot.retryTimes = 1
	assert.ErrorContains(t, robot.PushMarkdown(context.Background(), "t", "b"), "502")
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := retry(ctx, func() error {
		calls++
		return assert.AnError
	}, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestReportMarkdown(t *testing.T) {
	at := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	rows := []dataset.Row{
		{AirportIATACode: "CDG", Aircraft: "A320", TaskName: "Boarding", TurnaroundID: "T1", IsPunctual: sql.NullBool{Bool: true, Valid: true}},
		{AirportIATACode: "ORY", Aircraft: "A320", TaskName: "Boarding", TurnaroundID: "T2", IsPunctual: sql.NullBool{Bool: false, Valid: true}},
	}
	ds := dataset.New("test", rows)
	rep := processor.Run(ds, processor.DefaultSelection(ds, nil), processor.DimAirport)

	md := ReportMarkdown(rep, "Turnaround punctuality", "Airport", at)
	assert.Contains(t, md, "### Turnaround punctuality")
	assert.Contains(t, md, "2024-03-02 08:00")
	assert.Contains(t, md, "**50.0 %**")
	assert.Contains(t, md, "#### Punctuality by airport")
	assert.Contains(t, md, "- CDG: 100.0 % (1)")

	empty := processor.Run(ds, processor.Selection{}, processor.DimAirport)
	md = ReportMarkdown(empty, "t", "Airport", at)
	assert.Contains(t, md, empty.Message)
	assert.NotContains(t, md, "Punctuality rate")
}
