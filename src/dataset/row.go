package dataset

import (
	"database/sql"
	"sort"
)

// 数据表的列名, 与源工作表标题一致
const (
	ColAircraft            = "aircraft"
	ColAirportIATACode     = "airport_iata_code"
	ColTurnaroundID        = "turnaround_id"
	ColTaskName            = "task_name"
	ColTaskIsApplicable    = "task_is_applicable"
	ColIsPunctual          = "is_punctual"
	ColSTD                 = "std"
	ColATD                 = "atd"
	ColSTA                 = "sta"
	ColATA                 = "ata"
	ColADC                 = "adc"
	ColADCT                = "adct"
	ColTaskUpdatedAt       = "task_updated_at"
	ColPlanningStart       = "planning_start"
	ColActualStart         = "actual_start"
	ColPlanningEnd         = "planning_end"
	ColActualEnd           = "actual_end"
	ColCustomLabel         = "custom_label"
	ColInformationType     = "information_type"
	ColAddInfoIsApplicable = "addinfo_is_applicable"
	ColCheckboxValue       = "checkbox_value"
	ColTextValue           = "text_value"
	ColDatetimeValue       = "datetime_value"
	ColNumberValue         = "number_value"
)

// Columns 源工作表必须包含的全部列
var Columns = []string{
	ColAircraft, ColAirportIATACode, ColTurnaroundID, ColTaskName,
	ColTaskIsApplicable, ColIsPunctual,
	ColSTD, ColATD, ColSTA, ColATA, ColADC, ColADCT,
	ColTaskUpdatedAt, ColPlanningStart, ColActualStart, ColPlanningEnd, ColActualEnd,
	ColCustomLabel, ColInformationType, ColAddInfoIsApplicable,
	ColCheckboxValue, ColTextValue, ColDatetimeValue, ColNumberValue,
}

// TimeColumns 需要解析为时间的列
var TimeColumns = []string{
	ColSTD, ColATD, ColSTA, ColATA, ColADC, ColADCT,
	ColTaskUpdatedAt, ColPlanningStart, ColActualStart, ColPlanningEnd, ColActualEnd,
}

// BoolColumns 需要解析为布尔值的列
var BoolColumns = []string{ColTaskIsApplicable, ColIsPunctual, ColAddInfoIsApplicable}

// Row 一次过站中的一条任务记录
type Row struct {
	Aircraft        string
	AirportIATACode string
	TurnaroundID    string
	TaskName        string

	TaskIsApplicable    sql.NullBool
	IsPunctual          sql.NullBool
	AddInfoIsApplicable sql.NullBool

	STD           sql.NullTime
	ATD           sql.NullTime
	STA           sql.NullTime
	ATA           sql.NullTime
	ADC           sql.NullTime
	ADCT          sql.NullTime
	TaskUpdatedAt sql.NullTime
	PlanningStart sql.NullTime
	ActualStart   sql.NullTime
	PlanningEnd   sql.NullTime
	ActualEnd     sql.NullTime

	CustomLabel     string
	InformationType string
	CheckboxValue   string
	TextValue       string
	DatetimeValue   string
	NumberValue     string
}

// Punctual 将 is_punctual 编码为 0/1, 空值按 0 处理
func (r Row) Punctual() float64 {
	if r.IsPunctual.Valid && r.IsPunctual.Bool {
		return 1
	}
	return 0
}

// ActualMinutes 实际耗时(分钟), 任一端点为空时 ok=false
func (r Row) ActualMinutes() (float64, bool) {
	return spanMinutes(r.ActualStart, r.ActualEnd)
}

// PlannedMinutes 计划耗时(分钟)
func (r Row) PlannedMinutes() (float64, bool) {
	return spanMinutes(r.PlanningStart, r.PlanningEnd)
}

func spanMinutes(start, end sql.NullTime) (float64, bool) {
	if !start.Valid || !end.Valid {
		return 0, false
	}
	return end.Time.Sub(start.Time).Minutes(), true
}

// Dataset 加载后只读的行序列
type Dataset struct {
	source string
	rows   []Row
}

// New 复制传入的行构造 Dataset, 调用方之后对切片的修改不会影响 Dataset
func New(source string, rows []Row) *Dataset {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Dataset{source: source, rows: cp}
}

func (d *Dataset) Source() string { return d.source }

func (d *Dataset) Len() int { return len(d.rows) }

// Rows 返回全部行的副本
func (d *Dataset) Rows() []Row {
	cp := make([]Row, len(d.rows))
	copy(cp, d.rows)
	return cp
}

// Each 按顺序遍历, fn 返回 false 时停止
func (d *Dataset) Each(fn func(i int, r Row) bool) {
	for i, r := range d.rows {
		if !fn(i, r) {
			return
		}
	}
}

// Distinct 返回某一分类列的去重值, 按字典序排列, 空字符串不计入
func (d *Dataset) Distinct(col string) []string {
	seen := make(map[string]struct{})
	for _, r := range d.rows {
		v := r.Category(col)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Category 读取分类列的值, 未知列返回空字符串
func (r Row) Category(col string) string {
	switch col {
	case ColAircraft:
		return r.Aircraft
	case ColAirportIATACode:
		return r.AirportIATACode
	case ColTaskName:
		return r.TaskName
	case ColTurnaroundID:
		return r.TurnaroundID
	case ColCustomLabel:
		return r.CustomLabel
	case ColInformationType:
		return r.InformationType
	}
	return ""
}
