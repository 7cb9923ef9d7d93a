package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// TimeLayout 导出和 DataFrame 中的时间格式
const TimeLayout = "2006-01-02 15:04:05"

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// ParseTime 解析 DataFrame 中的时间字符串, 空值返回 ok=false
func ParseTime(s series.Element) (time.Time, bool, error) {
	if s.IsNA() || s.String() == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(TimeLayout, s.String())
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// SubSeriesTime 计算 end - start 的分钟数并追加为新列, 任一端为空时结果为空
func SubSeriesTime(df dataframe.DataFrame, startCol, endCol, newCol string) (dataframe.DataFrame, error) {
	if !HasColumn(df, startCol) || !HasColumn(df, endCol) {
		return df, fmt.Errorf("缺少列 %s 或 %s", startCol, endCol)
	}

	col1 := df.Col(startCol)
	col2 := df.Col(endCol)

	durations := make([]string, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		start, ok1, err := ParseTime(col1.Elem(i))
		if err != nil {
			return df, fmt.Errorf("failed to parse start time at row %d: %w", i, err)
		}
		end, ok2, err := ParseTime(col2.Elem(i))
		if err != nil {
			return df, fmt.Errorf("failed to parse end time at row %d: %w", i, err)
		}
		if !ok1 || !ok2 {
			durations = append(durations, "")
			continue
		}
		durations = append(durations, fmt.Sprintf("%.1f", end.Sub(start).Minutes()))
	}

	return df.Mutate(series.New(durations, series.String, newCol)), nil
}

// Sheet 工作簿中的一个工作表
type Sheet struct {
	Name  string
	Frame dataframe.DataFrame
}

// SaveSheets 每个 DataFrame 写入一个工作表并保存
func SaveSheets(sheets []Sheet, filePath string) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	// 保存文件
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

// WriteSheets 与 SaveSheets 相同, 但写入 w
func WriteSheets(sheets []Sheet, w io.Writer) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写出Excel失败: %w", err)
	}
	return nil
}

func buildWorkbook(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("没有需要导出的工作表")
	}

	f := excelize.NewFile()
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("重命名工作表失败: %w", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("创建工作表 %s 失败: %w", sh.Name, err)
		}
		if err := writeFrame(f, sh.Name, sh.Frame); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeFrame(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	// 写入列名
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("写入 %s 标题失败: %w", sheetName, err)
		}
	}

	// 写入数据
	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			elem := col.Elem(rowIdx)
			if elem.IsNA() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, elem.Val()); err != nil {
				return fmt.Errorf("写入 %s!%s 失败: %w", sheetName, cell, err)
			}
		}
	}
	return nil
}
