// Package plot 将计算结果绘制为 PNG 图表
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"TurnaroundAnalysis/src/processor"
)

// ErrNoData 没有可绘制的数据
var ErrNoData = errors.New("no data to plot")

var (
	colorPunctual = drawing.ColorFromHex("00C2FF")
	colorLate     = drawing.ColorFromHex("4C7FFF")
	colorUnknown  = drawing.ColorFromHex("B0B0B0")
	colorAhead    = drawing.ColorFromHex("2E9E5B")
	colorBehind   = drawing.ColorFromHex("D64541")
)

const (
	minWidth  = 640
	height    = 480
	barWidth  = 40
	barMargin = 80
)

func chartWidth(n int) int {
	w := n*(barWidth+barWidth/2) + 2*barMargin
	if w < minWidth {
		return minWidth
	}
	return w
}

// TaskCountsChart 每个任务的准点/延误/未知数量, 堆叠柱状图
func TaskCountsChart(counts []processor.TaskCount) ([]byte, error) {
	if len(counts) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.StackedBar, 0, len(counts))
	for _, c := range counts {
		var values []chart.Value
		if c.Punctual > 0 {
			values = append(values, chart.Value{Label: "punctual", Value: float64(c.Punctual), Style: chart.Style{FillColor: colorPunctual, StrokeColor: colorPunctual}})
		}
		if c.Late > 0 {
			values = append(values, chart.Value{Label: "late", Value: float64(c.Late), Style: chart.Style{FillColor: colorLate, StrokeColor: colorLate}})
		}
		if c.Unknown > 0 {
			values = append(values, chart.Value{Label: "unknown", Value: float64(c.Unknown), Style: chart.Style{FillColor: colorUnknown, StrokeColor: colorUnknown}})
		}
		if len(values) == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{Name: c.TaskName, Width: barWidth, Values: values})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	graph := chart.StackedBarChart{
		Title:      "Task count by punctuality",
		Width:      chartWidth(len(bars)),
		Height:     height,
		BarSpacing: barWidth / 2,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.Style{TextRotationDegrees: 45, FontSize: 9},
		Bars:  bars,
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// TimeSeriesChart 每日准点率折线, y 轴固定为 0-100
func TimeSeriesChart(days []processor.DailyPunctuality) ([]byte, error) {
	if len(days) == 0 {
		return nil, ErrNoData
	}

	xs := make([]time.Time, len(days))
	ys := make([]float64, len(days))
	for i, d := range days {
		xs[i] = d.Date
		ys[i] = d.Rate
	}

	xMin, xMax := chart.TimeToFloat64(xs[0]), chart.TimeToFloat64(xs[len(xs)-1])
	if xMin == xMax {
		pad := chart.TimeToFloat64(xs[0].Add(12*time.Hour)) - xMin
		xMin, xMax = xMin-pad, xMax+pad
	}

	graph := chart.Chart{
		Title:  "Daily punctuality rate",
		Width:  minWidth,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Punctuality (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.0f%%", vf)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "punctuality",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: colorPunctual,
					StrokeWidth: 3,
					DotColor:    drawing.ColorWhite,
					DotWidth:    4,
				},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// DeviationChart 每个任务的平均计划偏差, 以 0 为基线
func DeviationChart(devs []processor.TaskDeviation) ([]byte, error) {
	if len(devs) == 0 {
		return nil, ErrNoData
	}

	values := make([]float64, len(devs))
	bars := make([]chart.Value, len(devs))
	for i, d := range devs {
		values[i] = d.MeanDeviationMinutes
		color := colorAhead
		if d.MeanDeviationMinutes > 0 {
			color = colorBehind
		}
		bars[i] = chart.Value{
			Label: d.TaskName,
			Value: d.MeanDeviationMinutes,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
	}
	lo, hi := valueRange(values, true)

	graph := chart.BarChart{
		Title:  "Mean planned vs actual deviation (min)",
		Width:  chartWidth(len(bars)),
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Bottom: 20},
		},
		BarWidth:     barWidth,
		BarSpacing:   barWidth / 2,
		UseBaseValue: true,
		BaseValue:    0,
		XAxis:        chart.Style{TextRotationDegrees: 45, FontSize: 9},
		YAxis: chart.YAxis{
			Name:  "Deviation (min)",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// GroupedChart 按维度分组的准点率柱状图
func GroupedChart(groups []processor.GroupPunctuality, title string) ([]byte, error) {
	if len(groups) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(groups))
	for i, g := range groups {
		bars[i] = chart.Value{
			Label: g.Key,
			Value: g.Rate,
			Style: chart.Style{FillColor: colorPunctual, StrokeColor: colorPunctual},
		}
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  chartWidth(len(bars)),
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Bottom: 20},
		},
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		XAxis:      chart.Style{TextRotationDegrees: 45, FontSize: 9},
		YAxis: chart.YAxis{
			Name:  "Punctuality (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// valueRange 返回带留白的 y 轴范围, includeZero 时保证包含 0
func valueRange(values []float64, includeZero bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.1
	return lo - pad, hi + pad
}

// 图表名称, 同时用作 /charts/{name}.png 的路径
const (
	ChartTaskCounts = "task-counts"
	ChartTimeSeries = "time-series"
	ChartDeviation  = "deviation"
	ChartGrouped    = "grouped"
)

// Names 全部图表名称, 按展示顺序
var Names = []string{ChartTaskCounts, ChartTimeSeries, ChartDeviation, ChartGrouped}

// Image 一张已渲染的图表
type Image struct {
	Name string
	PNG  []byte
}

// Render 按名称渲染报告中的一张图表
func Render(rep *processor.Report, name, groupedTitle string) ([]byte, error) {
	if !rep.OK() {
		return nil, ErrNoData
	}
	switch name {
	case ChartTaskCounts:
		return TaskCountsChart(rep.Counts)
	case ChartTimeSeries:
		return TimeSeriesChart(rep.Daily)
	case ChartDeviation:
		return DeviationChart(rep.Deviation)
	case ChartGrouped:
		return GroupedChart(rep.Grouped, groupedTitle)
	}
	return nil, fmt.Errorf("未知的图表 %q", name)
}

// RenderAll 渲染全部有数据的图表, 没有数据的图表被跳过
func RenderAll(rep *processor.Report, groupedTitle string) ([]Image, error) {
	var out []Image
	for _, name := range Names {
		png, err := Render(rep, name, groupedTitle)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, Image{Name: name, PNG: png})
	}
	return out, nil
}
