package processor

import (
	"errors"
	"fmt"

	"TurnaroundAnalysis/src/dataset"
)

// OfficialTasks 任务名称参考清单, 默认的任务筛选范围
//
// 清单中的部分任务可能从未出现在数据里, 数据中也可能有清单外的任务名.
var OfficialTasks = []string{
	"Agent at Gate", "Bag at Aircraft", "Bag Delivery", "Boarding", "Briefing",
	"Cargo at Aircraft", "Cargo Delivery", "Check-In", "Cleaning", "Decomp Panel",
	"Disembark Pax", "Flight File", "FZFW", "Last Pax at Aircraft", "LDS", "LIR",
	"Loading", "NOTOC", "Offloading", "Pre-Boarding", "Pre-Flight", "Pushback Ready",
	"PWD Arrival", "PWD Departure", "Transit Check-in", "TRC-Pilots-brief",
}

// Dimension 分组维度
type Dimension string

const (
	DimAirport  Dimension = "airport"
	DimAircraft Dimension = "aircraft"
	DimTask     Dimension = "task"
)

// Dimensions 全部可选维度
var Dimensions = []Dimension{DimAirport, DimAircraft, DimTask}

// ParseDimension 解析维度名称, 同时接受列名; aircraft 的维度名与列名相同
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "", string(DimAirport), dataset.ColAirportIATACode:
		return DimAirport, nil
	case string(DimAircraft):
		return DimAircraft, nil
	case string(DimTask), dataset.ColTaskName:
		return DimTask, nil
	}
	return "", fmt.Errorf("未知的维度 %q", s)
}

// Column 维度对应的数据列
func (d Dimension) Column() string {
	switch d {
	case DimAircraft:
		return dataset.ColAircraft
	case DimTask:
		return dataset.ColTaskName
	default:
		return dataset.ColAirportIATACode
	}
}

func (d Dimension) key(r dataset.Row) string {
	switch d {
	case DimAircraft:
		return r.Aircraft
	case DimTask:
		return r.TaskName
	default:
		return r.AirportIATACode
	}
}

var (
	// ErrEmptySelection 某个维度没有选择任何值
	ErrEmptySelection = errors.New("empty selection")
	// ErrNoMatchingRows 筛选条件都不为空, 但没有匹配的行
	ErrNoMatchingRows = errors.New("no matching rows")
)

// EmptySelectionError 指出哪个维度为空
type EmptySelectionError struct {
	Dimension Dimension
}

func (e *EmptySelectionError) Error() string {
	switch e.Dimension {
	case DimAircraft:
		return "请至少选择一种机型"
	case DimAirport:
		return "请至少选择一个机场"
	default:
		return "请至少选择一个任务"
	}
}

func (e *EmptySelectionError) Is(target error) bool { return target == ErrEmptySelection }

// Set 字符串集合
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Selection 三个维度的筛选集合, 维度之间为与, 维度内为或
type Selection struct {
	Airports Set
	Aircraft Set
	Tasks    Set
}

// DefaultSelection 数据中出现的全部机场与机型, 加上参考任务清单
func DefaultSelection(ds *dataset.Dataset, tasks []string) Selection {
	if len(tasks) == 0 {
		tasks = OfficialTasks
	}
	return Selection{
		Airports: NewSet(ds.Distinct(dataset.ColAirportIATACode)...),
		Aircraft: NewSet(ds.Distinct(dataset.ColAircraft)...),
		Tasks:    NewSet(tasks...),
	}
}

// Includes 行是否满足筛选条件
func (s Selection) Includes(r dataset.Row) bool {
	return s.Airports.Has(r.AirportIATACode) &&
		s.Aircraft.Has(r.Aircraft) &&
		s.Tasks.Has(r.TaskName)
}

// Validate 按机型, 机场, 任务的顺序检查空集合
func (s Selection) Validate() error {
	switch {
	case len(s.Aircraft) == 0:
		return &EmptySelectionError{Dimension: DimAircraft}
	case len(s.Airports) == 0:
		return &EmptySelectionError{Dimension: DimAirport}
	case len(s.Tasks) == 0:
		return &EmptySelectionError{Dimension: DimTask}
	}
	return nil
}

// ApplyFilters 返回满足筛选条件的行, 保持原有顺序
func ApplyFilters(ds *dataset.Dataset, sel Selection) ([]dataset.Row, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	var out []dataset.Row
	ds.Each(func(_ int, r dataset.Row) bool {
		if sel.Includes(r) {
			out = append(out, r)
		}
		return true
	})

	if len(out) == 0 {
		return nil, ErrNoMatchingRows
	}
	return out, nil
}
