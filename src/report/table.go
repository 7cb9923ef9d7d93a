// Package report 将计算结果输出为文本表格, 工作簿和 PDF
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"TurnaroundAnalysis/src/processor"
)

// Format 表格输出格式
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
)

// NoData 指标无法计算时的显示文本
const NoData = "no data"

// FormatPercent 格式化百分比, nil 时返回 NoData
func FormatPercent(v *float64) string {
	if v == nil {
		return NoData
	}
	return fmt.Sprintf("%.1f %%", *v)
}

func FormatMinutes(v *float64) string {
	if v == nil {
		return NoData
	}
	return fmt.Sprintf("%.1f min", *v)
}

func render(t table.Writer, format Format) string {
	switch format {
	case FormatMarkdown:
		return t.RenderMarkdown()
	case FormatHTML:
		return t.RenderHTML()
	case FormatCSV:
		return t.RenderCSV()
	default:
		t.SetStyle(table.StyleLight)
		return t.Render()
	}
}

// SummaryTable 总体指标表
func SummaryTable(s processor.Summary, format Format) string {
	t := table.NewWriter()
	t.SetTitle("Key indicators")
	t.AppendHeader(table.Row{"Indicator", "Value"})
	t.AppendRows([]table.Row{
		{"Punctuality rate", FormatPercent(s.PunctualityRate)},
		{"Average task duration", FormatMinutes(s.AvgDurationMinutes)},
		{"Task count", s.TaskCount},
		{"Distinct turnarounds", s.DistinctTurnarounds},
		{"Punctuality variability", FormatPercent(s.PunctualityStd)},
	})
	return render(t, format)
}

// GroupedTable 分组准点率表, label 为维度的显示名称
func GroupedTable(groups []processor.GroupPunctuality, label string, format Format) string {
	t := table.NewWriter()
	t.SetTitle("Punctuality by " + strings.ToLower(label))
	t.AppendHeader(table.Row{label, "Punctuality (%)", "Tasks"})
	for _, g := range groups {
		t.AppendRow(table.Row{g.Key, fmt.Sprintf("%.1f", g.Rate), g.Count})
	}
	return render(t, format)
}

// DeviationTable 计划偏差表
func DeviationTable(devs []processor.TaskDeviation, format Format) string {
	t := table.NewWriter()
	t.SetTitle("Planned vs actual deviation")
	t.AppendHeader(table.Row{"Task", "Mean deviation (min)", "Included", "Excluded"})
	for _, d := range devs {
		t.AppendRow(table.Row{d.TaskName, fmt.Sprintf("%+.1f", d.MeanDeviationMinutes), d.Included, d.Excluded})
	}
	return render(t, format)
}

// DailyTable 每日准点率表
func DailyTable(days []processor.DailyPunctuality, format Format) string {
	t := table.NewWriter()
	t.SetTitle("Daily punctuality")
	t.AppendHeader(table.Row{"Date", "Punctuality (%)", "Tasks"})
	for _, d := range days {
		t.AppendRow(table.Row{d.Date.Format("2006-01-02"), fmt.Sprintf("%.1f", d.Rate), d.Count})
	}
	return render(t, format)
}

// CountsTable 任务数量表
func CountsTable(counts []processor.TaskCount, format Format) string {
	t := table.NewWriter()
	t.SetTitle("Task count by punctuality")
	t.AppendHeader(table.Row{"Task", "Punctual", "Late", "Unknown", "Total"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.TaskName, c.Punctual, c.Late, c.Unknown, c.Total()})
	}
	return render(t, format)
}

// DetailRowsTable 明细表, columnLabel 用于列标题
func DetailRowsTable(rows []processor.DetailRow, columnLabel func(string) string, format Format) string {
	t := table.NewWriter()
	header := make(table.Row, len(processor.DetailColumns))
	for i, col := range processor.DetailColumns {
		header[i] = columnLabel(col)
	}
	t.AppendHeader(header)

	df := processor.DetailFrame(rows)
	for _, rec := range df.Records()[1:] {
		r := make(table.Row, len(rec))
		for i, v := range rec {
			r[i] = v
		}
		t.AppendRow(r)
	}
	return render(t, format)
}

// Text 完整报告的文本形式
func Text(rep *processor.Report, dimensionLabel string, format Format) string {
	if !rep.OK() {
		return rep.Message + "\n"
	}

	parts := []string{
		SummaryTable(*rep.Summary, format),
		CountsTable(rep.Counts, format),
		DailyTable(rep.Daily, format),
		DeviationTable(rep.Deviation, format),
		GroupedTable(rep.Grouped, dimensionLabel, format),
	}
	return strings.Join(parts, "\n\n") + "\n"
}
