package report

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/utils"
)

// 工作簿中的工作表名称
const (
	SheetSummary   = "Summary"
	SheetDaily     = "Daily"
	SheetDeviation = "Deviation"
	SheetGrouped   = "Grouped"
	SheetRows      = "Rows"
)

// Sheets 将报告转换为各工作表的 DataFrame
func Sheets(rep *processor.Report) ([]utils.Sheet, error) {
	if !rep.OK() {
		return nil, fmt.Errorf("无法导出: %w", rep.Err())
	}

	rows, err := processor.DetailTable(rep.Rows(), processor.DetailQuery{})
	if err != nil {
		return nil, err
	}
	detail, err := utils.SubSeriesTime(processor.DetailFrame(rows), dataset.ColActualStart, dataset.ColActualEnd, "duration_min")
	if err != nil {
		return nil, fmt.Errorf("计算任务耗时失败: %w", err)
	}

	return []utils.Sheet{
		{Name: SheetSummary, Frame: summaryFrame(*rep.Summary)},
		{Name: SheetDaily, Frame: dailyFrame(rep.Daily)},
		{Name: SheetDeviation, Frame: deviationFrame(rep.Deviation)},
		{Name: SheetGrouped, Frame: groupedFrame(rep.Grouped, rep.Dimension)},
		{Name: SheetRows, Frame: detail},
	}, nil
}

// WriteWorkbook 导出 xlsx 到 w
func WriteWorkbook(rep *processor.Report, w io.Writer) error {
	sheets, err := Sheets(rep)
	if err != nil {
		return err
	}
	return utils.WriteSheets(sheets, w)
}

// SaveWorkbook 导出 xlsx 到文件
func SaveWorkbook(rep *processor.Report, path string) error {
	sheets, err := Sheets(rep)
	if err != nil {
		return err
	}
	return utils.SaveSheets(sheets, path)
}

func summaryFrame(s processor.Summary) dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{
			"punctuality_rate", "avg_duration_minutes", "task_count",
			"distinct_turnarounds", "punctuality_std",
		}, series.String, "indicator"),
		series.New([]string{
			FormatPercent(s.PunctualityRate),
			FormatMinutes(s.AvgDurationMinutes),
			fmt.Sprint(s.TaskCount),
			fmt.Sprint(s.DistinctTurnarounds),
			FormatPercent(s.PunctualityStd),
		}, series.String, "value"),
	)
}

func dailyFrame(days []processor.DailyPunctuality) dataframe.DataFrame {
	dates := make([]string, len(days))
	rates := make([]float64, len(days))
	counts := make([]int, len(days))
	for i, d := range days {
		dates[i] = d.Date.Format("2006-01-02")
		rates[i] = d.Rate
		counts[i] = d.Count
	}
	return dataframe.New(
		series.New(dates, series.String, "date"),
		series.New(rates, series.Float, "punctuality_rate"),
		series.New(counts, series.Int, "tasks"),
	)
}

func deviationFrame(devs []processor.TaskDeviation) dataframe.DataFrame {
	names := make([]string, len(devs))
	means := make([]float64, len(devs))
	included := make([]int, len(devs))
	excluded := make([]int, len(devs))
	for i, d := range devs {
		names[i] = d.TaskName
		means[i] = d.MeanDeviationMinutes
		included[i] = d.Included
		excluded[i] = d.Excluded
	}
	return dataframe.New(
		series.New(names, series.String, dataset.ColTaskName),
		series.New(means, series.Float, "mean_deviation_minutes"),
		series.New(included, series.Int, "included"),
		series.New(excluded, series.Int, "excluded"),
	)
}

func groupedFrame(groups []processor.GroupPunctuality, dim processor.Dimension) dataframe.DataFrame {
	keys := make([]string, len(groups))
	rates := make([]float64, len(groups))
	counts := make([]int, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
		rates[i] = g.Rate
		counts[i] = g.Count
	}
	return dataframe.New(
		series.New(keys, series.String, dim.Column()),
		series.New(rates, series.Float, "punctuality_rate"),
		series.New(counts, series.Int, "tasks"),
	)
}
