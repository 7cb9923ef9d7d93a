package processor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/mozillazg/go-unidecode"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/utils"
)

// DetailColumns 明细表的列
var DetailColumns = []string{
	dataset.ColAirportIATACode,
	dataset.ColAircraft,
	dataset.ColTaskName,
	dataset.ColActualStart,
	dataset.ColActualEnd,
	dataset.ColCustomLabel,
	dataset.ColInformationType,
}

// DetailRow 明细表中的一行
type DetailRow struct {
	AirportIATACode string     `json:"airport_iata_code"`
	Aircraft        string     `json:"aircraft"`
	TaskName        string     `json:"task_name"`
	ActualStart     *time.Time `json:"actual_start"`
	ActualEnd       *time.Time `json:"actual_end"`
	CustomLabel     string     `json:"custom_label"`
	InformationType string     `json:"information_type"`
}

// DetailQuery 明细表的排序和搜索条件
type DetailQuery struct {
	SortBy     string // 列名, 为空时按 actual_start
	Descending bool
	Search     string // 不区分大小写和重音
	Limit      int    // 0 表示不限制
}

// DetailTable 生成排序和搜索后的明细行, 空时间总是排在最后
func DetailTable(ws []dataset.Row, q DetailQuery) ([]DetailRow, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = dataset.ColActualStart
	}
	if !isDetailColumn(sortBy) {
		return nil, fmt.Errorf("不支持按列 %q 排序", sortBy)
	}

	needle := fold(q.Search)
	rows := make([]DetailRow, 0, len(ws))
	for _, r := range ws {
		d := toDetail(r)
		if needle != "" && !d.matches(needle) {
			continue
		}
		rows = append(rows, d)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return lessDetail(rows[i], rows[j], sortBy, q.Descending)
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func isDetailColumn(col string) bool {
	for _, c := range DetailColumns {
		if c == col {
			return true
		}
	}
	return false
}

func toDetail(r dataset.Row) DetailRow {
	d := DetailRow{
		AirportIATACode: r.AirportIATACode,
		Aircraft:        r.Aircraft,
		TaskName:        r.TaskName,
		CustomLabel:     r.CustomLabel,
		InformationType: r.InformationType,
	}
	if r.ActualStart.Valid {
		t := r.ActualStart.Time
		d.ActualStart = &t
	}
	if r.ActualEnd.Valid {
		t := r.ActualEnd.Time
		d.ActualEnd = &t
	}
	return d
}

// fold 转为小写并去掉重音, 用于搜索比较
func fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))
}

func (d DetailRow) matches(needle string) bool {
	for _, v := range []string{d.AirportIATACode, d.Aircraft, d.TaskName, d.CustomLabel, d.InformationType} {
		if strings.Contains(fold(v), needle) {
			return true
		}
	}
	return false
}

func (d DetailRow) text(col string) string {
	switch col {
	case dataset.ColAirportIATACode:
		return d.AirportIATACode
	case dataset.ColAircraft:
		return d.Aircraft
	case dataset.ColTaskName:
		return d.TaskName
	case dataset.ColCustomLabel:
		return d.CustomLabel
	case dataset.ColInformationType:
		return d.InformationType
	}
	return ""
}

func (d DetailRow) timeValue(col string) *time.Time {
	if col == dataset.ColActualEnd {
		return d.ActualEnd
	}
	return d.ActualStart
}

func lessDetail(a, b DetailRow, col string, desc bool) bool {
	if col == dataset.ColActualStart || col == dataset.ColActualEnd {
		ta, tb := a.timeValue(col), b.timeValue(col)
		switch {
		case ta == nil && tb == nil:
			return false
		case ta == nil:
			return false
		case tb == nil:
			return true
		}
		if desc {
			return ta.After(*tb)
		}
		return ta.Before(*tb)
	}
	if desc {
		return a.text(col) > b.text(col)
	}
	return a.text(col) < b.text(col)
}

// DetailFrame 将明细行转换为 DataFrame, 时间列格式化为字符串
func DetailFrame(rows []DetailRow) dataframe.DataFrame {
	cols := make([][]string, len(DetailColumns))
	for i := range cols {
		cols[i] = make([]string, 0, len(rows))
	}
	for _, d := range rows {
		cols[0] = append(cols[0], d.AirportIATACode)
		cols[1] = append(cols[1], d.Aircraft)
		cols[2] = append(cols[2], d.TaskName)
		cols[3] = append(cols[3], formatTime(d.ActualStart))
		cols[4] = append(cols[4], formatTime(d.ActualEnd))
		cols[5] = append(cols[5], d.CustomLabel)
		cols[6] = append(cols[6], d.InformationType)
	}

	seriesList := make([]series.Series, len(DetailColumns))
	for i, name := range DetailColumns {
		seriesList[i] = series.New(cols[i], series.String, name)
	}
	return dataframe.New(seriesList...)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(utils.TimeLayout)
}
