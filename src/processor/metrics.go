package processor

import (
	"math"
	"sort"
	"time"

	"TurnaroundAnalysis/src/dataset"
)

// Summary 总体指标, 无数据的指标为 nil
type Summary struct {
	PunctualityRate     *float64 `json:"punctuality_rate"`
	AvgDurationMinutes  *float64 `json:"avg_duration_minutes"`
	TaskCount           int      `json:"task_count"`
	DistinctTurnarounds int      `json:"distinct_turnarounds"`
	PunctualityStd      *float64 `json:"punctuality_std"`
}

// DailyPunctuality 某一天的准点率
type DailyPunctuality struct {
	Date  time.Time `json:"date"`
	Rate  float64   `json:"rate"`
	Count int       `json:"count"`
}

// TaskDeviation 某个任务的平均计划偏差(分钟), 正数表示超出计划
type TaskDeviation struct {
	TaskName             string  `json:"task_name"`
	MeanDeviationMinutes float64 `json:"mean_deviation_minutes"`
	Included             int     `json:"included"`
	Excluded             int     `json:"excluded"`
}

// GroupPunctuality 分组准点率
type GroupPunctuality struct {
	Key   string  `json:"key"`
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// TaskCount 每个任务的准点, 延误, 未知数量
type TaskCount struct {
	TaskName string `json:"task_name"`
	Punctual int    `json:"punctual"`
	Late     int    `json:"late"`
	Unknown  int    `json:"unknown"`
}

func (c TaskCount) Total() int { return c.Punctual + c.Late + c.Unknown }

// SummaryMetrics 计算总体指标, 各指标互不影响
func SummaryMetrics(ws []dataset.Row) Summary {
	return Summary{
		PunctualityRate:     punctualityRate(ws),
		AvgDurationMinutes:  avgDuration(ws),
		TaskCount:           len(ws),
		DistinctTurnarounds: distinctTurnarounds(ws),
		PunctualityStd:      punctualityStd(ws),
	}
}

func punctualityRate(ws []dataset.Row) *float64 {
	if len(ws) == 0 {
		return nil
	}
	var sum float64
	for _, r := range ws {
		sum += r.Punctual()
	}
	rate := sum / float64(len(ws)) * 100
	return &rate
}

func avgDuration(ws []dataset.Row) *float64 {
	var (
		sum float64
		m   int
	)
	for _, r := range ws {
		if d, ok := r.ActualMinutes(); ok {
			sum += d
			m++
		}
	}
	if m == 0 {
		return nil
	}
	avg := sum / float64(m)
	return &avg
}

func distinctTurnarounds(ws []dataset.Row) int {
	seen := make(map[string]struct{})
	for _, r := range ws {
		if r.TurnaroundID != "" {
			seen[r.TurnaroundID] = struct{}{}
		}
	}
	return len(seen)
}

// punctualityStd 0/1 编码的样本标准差, 以百分比表示
func punctualityStd(ws []dataset.Row) *float64 {
	n := len(ws)
	if n < 2 {
		return nil
	}
	var sum float64
	for _, r := range ws {
		sum += r.Punctual()
	}
	mean := sum / float64(n)

	var sq float64
	for _, r := range ws {
		d := r.Punctual() - mean
		sq += d * d
	}
	std := math.Sqrt(sq/float64(n-1)) * 100
	return &std
}

// TimeSeries 按 task_updated_at 的日期统计准点率, 按日期升序
func TimeSeries(ws []dataset.Row) []DailyPunctuality {
	type acc struct {
		date  time.Time
		sum   float64
		count int
	}
	byDay := make(map[string]*acc)
	for _, r := range ws {
		if !r.TaskUpdatedAt.Valid {
			continue
		}
		t := r.TaskUpdatedAt.Time
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		k := day.Format("2006-01-02")
		a, ok := byDay[k]
		if !ok {
			a = &acc{date: day}
			byDay[k] = a
		}
		a.sum += r.Punctual()
		a.count++
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DailyPunctuality, 0, len(keys))
	for _, k := range keys {
		a := byDay[k]
		out = append(out, DailyPunctuality{
			Date:  a.date,
			Rate:  a.sum / float64(a.count) * 100,
			Count: a.count,
		})
	}
	return out
}

// DeviationByTask 计算每个任务实际耗时与计划耗时的平均偏差
//
// 缺少任一计划或实际端点的行不参与计算, 只计入 Excluded.
// 没有任何有效行的任务不出现在结果中.
func DeviationByTask(ws []dataset.Row) []TaskDeviation {
	type acc struct {
		sum                float64
		included, excluded int
	}
	byTask := make(map[string]*acc)
	for _, r := range ws {
		a, ok := byTask[r.TaskName]
		if !ok {
			a = &acc{}
			byTask[r.TaskName] = a
		}
		planned, okP := r.PlannedMinutes()
		actual, okA := r.ActualMinutes()
		if !okP || !okA {
			a.excluded++
			continue
		}
		a.sum += actual - planned
		a.included++
	}

	out := make([]TaskDeviation, 0, len(byTask))
	for name, a := range byTask {
		if a.included == 0 {
			continue
		}
		out = append(out, TaskDeviation{
			TaskName:             name,
			MeanDeviationMinutes: a.sum / float64(a.included),
			Included:             a.included,
			Excluded:             a.excluded,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanDeviationMinutes != out[j].MeanDeviationMinutes {
			return out[i].MeanDeviationMinutes < out[j].MeanDeviationMinutes
		}
		return out[i].TaskName < out[j].TaskName
	})
	return out
}

// GroupedPunctuality 按维度分组的准点率, 降序, 准点率相同时按键升序
func GroupedPunctuality(ws []dataset.Row, dim Dimension) []GroupPunctuality {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for _, r := range ws {
		k := dim.key(r)
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.sum += r.Punctual()
		a.count++
	}

	out := make([]GroupPunctuality, 0, len(groups))
	for k, a := range groups {
		out = append(out, GroupPunctuality{
			Key:   k,
			Rate:  a.sum / float64(a.count) * 100,
			Count: a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// TaskCounts 每个任务按准点状态计数, 按任务名升序
func TaskCounts(ws []dataset.Row) []TaskCount {
	byTask := make(map[string]*TaskCount)
	for _, r := range ws {
		c, ok := byTask[r.TaskName]
		if !ok {
			c = &TaskCount{TaskName: r.TaskName}
			byTask[r.TaskName] = c
		}
		switch {
		case !r.IsPunctual.Valid:
			c.Unknown++
		case r.IsPunctual.Bool:
			c.Punctual++
		default:
			c.Late++
		}
	}

	out := make([]TaskCount, 0, len(byTask))
	for _, c := range byTask {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskName < out[j].TaskName })
	return out
}
