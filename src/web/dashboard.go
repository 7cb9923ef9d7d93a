package web

import (
	"fmt"
	"html"
	"io"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/report"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !rep.OK() {
		w.WriteHeader(statusFor(rep))
		fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body><p>%s</p></body></html>",
			html.EscapeString(s.title), html.EscapeString(rep.Message))
		return
	}

	if err := renderDashboard(w, rep, s.title, s.dimensionLabel(rep.Dimension)); err != nil {
		s.logger.Errorf("渲染看板失败: %v", err)
	}
}

// renderDashboard 四个交互图表, 总体指标写在第一个图表的副标题中
func renderDashboard(w io.Writer, rep *processor.Report, title, dimensionLabel string) error {
	page := components.NewPage()
	page.PageTitle = title

	page.AddCharts(
		countsBar(rep, title),
		dailyLine(rep.Daily),
		deviationBar(rep.Deviation),
		groupedBar(rep.Grouped, dimensionLabel),
	)
	return page.Render(w)
}

func kpiSubtitle(sm processor.Summary) string {
	return fmt.Sprintf("Punctuality %s | Avg duration %s | Tasks %d | Turnarounds %d | Variability %s",
		report.FormatPercent(sm.PunctualityRate),
		report.FormatMinutes(sm.AvgDurationMinutes),
		sm.TaskCount,
		sm.DistinctTurnarounds,
		report.FormatPercent(sm.PunctualityStd),
	)
}

func countsBar(rep *processor.Report, title string) *charts.Bar {
	names := make([]string, len(rep.Counts))
	punctual := make([]opts.BarData, len(rep.Counts))
	late := make([]opts.BarData, len(rep.Counts))
	unknown := make([]opts.BarData, len(rep.Counts))
	for i, c := range rep.Counts {
		names[i] = c.TaskName
		punctual[i] = opts.BarData{Value: c.Punctual}
		late[i] = opts.BarData{Value: c.Late}
		unknown[i] = opts.BarData{Value: c.Unknown}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: kpiSubtitle(*rep.Summary)}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "40"}),
		charts.WithGridOpts(opts.Grid{Top: "90"}),
	)
	stack := charts.WithBarChartOpts(opts.BarChart{Stack: "tasks"})
	bar.SetXAxis(names).
		AddSeries("Punctual", punctual, stack).
		AddSeries("Late", late, stack).
		AddSeries("Unknown", unknown, stack)
	return bar
}

func dailyLine(days []processor.DailyPunctuality) *charts.Line {
	dates := make([]string, len(days))
	rates := make([]opts.LineData, len(days))
	for i, d := range days {
		dates[i] = d.Date.Format("2006-01-02")
		rates[i] = opts.LineData{Value: round1(d.Rate)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Daily punctuality (%)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	line.SetXAxis(dates).AddSeries("Punctuality", rates)
	return line
}

func deviationBar(devs []processor.TaskDeviation) *charts.Bar {
	names := make([]string, len(devs))
	values := make([]opts.BarData, len(devs))
	for i, d := range devs {
		names[i] = d.TaskName
		values[i] = opts.BarData{Value: round1(d.MeanDeviationMinutes)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Planned vs actual deviation (min)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	bar.SetXAxis(names).AddSeries("Mean deviation", values)
	return bar
}

func groupedBar(groups []processor.GroupPunctuality, dimensionLabel string) *charts.Bar {
	keys := make([]string, len(groups))
	values := make([]opts.BarData, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
		values[i] = opts.BarData{Value: round1(g.Rate)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Punctuality by " + dimensionLabel}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	bar.SetXAxis(keys).AddSeries("Punctuality (%)", values)
	return bar
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
