// Package filetest 生成测试用的过站任务工作簿
package filetest

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"TurnaroundAnalysis/src/dataset"
)

// Record 一行数据, 键为列名, 未设置的列留空
type Record map[string]any

// Write 在 path 写出包含全部标准列的工作簿
func Write(tb testing.TB, path, sheet string, records []Record) {
	tb.Helper()
	WriteColumns(tb, path, sheet, dataset.Columns, records)
}

// WriteColumns 按给定的列写出工作簿, 用于构造缺列的情况
func WriteColumns(tb testing.TB, path, sheet string, columns []string, records []Record) {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			tb.Fatalf("创建工作表失败: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			tb.Fatalf("删除默认工作表失败: %v", err)
		}
	}

	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			tb.Fatalf("写入标题失败: %v", err)
		}
	}

	for r, rec := range records {
		for c, name := range columns {
			v, ok := rec[name]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				tb.Fatalf("写入单元格 %s 失败: %v", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		tb.Fatalf("保存工作簿失败: %v", err)
	}
}

// Sample 写出一份小型样例数据并返回路径
//
// 两个机场, 两种机型, 三个任务, 覆盖空时间和空准点标记.
func Sample(tb testing.TB) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "turnarounds.xlsx")
	Write(tb, path, "Data", SampleRecords())
	return path
}

func SampleRecords() []Record {
	return []Record{
		{
			dataset.ColAircraft: "A320", dataset.ColAirportIATACode: "CDG", dataset.ColTurnaroundID: "T1",
			dataset.ColTaskName: "Boarding", dataset.ColIsPunctual: "TRUE", dataset.ColTaskIsApplicable: "TRUE",
			dataset.ColTaskUpdatedAt: "2024-03-01 10:00:00",
			dataset.ColPlanningStart: "2024-03-01 09:00:00", dataset.ColPlanningEnd: "2024-03-01 09:20:00",
			dataset.ColActualStart: "2024-03-01 09:00:00", dataset.ColActualEnd: "2024-03-01 09:10:00",
			dataset.ColCustomLabel: "Embarquement", dataset.ColInformationType: "checkbox",
		},
		{
			dataset.ColAircraft: "A320", dataset.ColAirportIATACode: "CDG", dataset.ColTurnaroundID: "T1",
			dataset.ColTaskName: "Cleaning", dataset.ColIsPunctual: "FALSE", dataset.ColTaskIsApplicable: "TRUE",
			dataset.ColTaskUpdatedAt: "2024-03-01 11:00:00",
			dataset.ColPlanningStart: "2024-03-01 09:00:00", dataset.ColPlanningEnd: "2024-03-01 09:15:00",
			dataset.ColActualStart: "2024-03-01 09:00:00", dataset.ColActualEnd: "2024-03-01 09:30:00",
			dataset.ColCustomLabel: "Nettoyage", dataset.ColInformationType: "text",
		},
		{
			dataset.ColAircraft: "B737", dataset.ColAirportIATACode: "ORY", dataset.ColTurnaroundID: "T2",
			dataset.ColTaskName: "Boarding", dataset.ColIsPunctual: "TRUE",
			dataset.ColTaskUpdatedAt: "2024-03-02 08:00:00",
			dataset.ColPlanningStart: "2024-03-02 07:00:00", dataset.ColPlanningEnd: "2024-03-02 07:30:00",
			dataset.ColActualStart: "2024-03-02 07:05:00", dataset.ColActualEnd: "2024-03-02 07:30:00",
		},
		{
			dataset.ColAircraft: "B737", dataset.ColAirportIATACode: "ORY", dataset.ColTurnaroundID: "T2",
			dataset.ColTaskName: "Fueling",
			dataset.ColTaskUpdatedAt: "not a date",
			dataset.ColActualStart: "2024-03-02 07:10:00",
		},
	}
}
