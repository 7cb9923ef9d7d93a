package processor

import (
	"errors"

	"TurnaroundAnalysis/src/dataset"
)

// Status 一次计算的结果状态
type Status string

const (
	StatusOK             Status = "ok"
	StatusEmptySelection Status = "empty_selection"
	StatusNoMatchingRows Status = "no_matching_rows"
)

const noDataMessage = "没有符合筛选条件的数据"

// Report 一次完整计算的全部结果, 状态不是 ok 时只有 Message
type Report struct {
	Status    Status             `json:"status"`
	Message   string             `json:"message,omitempty"`
	Dimension Dimension          `json:"dimension"`
	Summary   *Summary           `json:"summary,omitempty"`
	Counts    []TaskCount        `json:"task_counts,omitempty"`
	Daily     []DailyPunctuality `json:"time_series,omitempty"`
	Deviation []TaskDeviation    `json:"deviation_by_task,omitempty"`
	Grouped   []GroupPunctuality `json:"grouped_punctuality,omitempty"`

	rows []dataset.Row
}

// Rows 本次计算使用的行
func (r *Report) Rows() []dataset.Row { return r.rows }

func (r *Report) OK() bool { return r.Status == StatusOK }

// Err 状态对应的错误, ok 时为 nil
func (r *Report) Err() error {
	switch r.Status {
	case StatusEmptySelection:
		return ErrEmptySelection
	case StatusNoMatchingRows:
		return ErrNoMatchingRows
	}
	return nil
}

// Run 筛选并计算全部视图
func Run(ds *dataset.Dataset, sel Selection, dim Dimension) *Report {
	rep := &Report{Dimension: dim}

	ws, err := ApplyFilters(ds, sel)
	if err != nil {
		var empty *EmptySelectionError
		switch {
		case errors.As(err, &empty):
			rep.Status = StatusEmptySelection
			rep.Message = empty.Error()
		default:
			rep.Status = StatusNoMatchingRows
			rep.Message = noDataMessage
		}
		return rep
	}

	summary := SummaryMetrics(ws)
	rep.Status = StatusOK
	rep.Summary = &summary
	rep.Counts = TaskCounts(ws)
	rep.Daily = TimeSeries(ws)
	rep.Deviation = DeviationByTask(ws)
	rep.Grouped = GroupedPunctuality(ws, dim)
	rep.rows = ws
	return rep
}
