// reader.go
package file

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"TurnaroundAnalysis/src/dataset"
)

// Options 读取工作表的参数
type Options struct {
	SheetName string         // 工作表名称
	HeaderRow int            // 标题行下标
	Location  *time.Location // 无时区时间值所在时区
}

func (o Options) withDefaults() Options {
	if o.SheetName == "" {
		o.SheetName = "Data"
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.HeaderRow < 0 {
		o.HeaderRow = 0
	}
	return o
}

// 文本时间值支持的格式
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// ReadXLSX 打开工作簿文件并读取指定工作表
func ReadXLSX(filePath string, opts Options) (*dataset.Dataset, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, unavailable(filePath, "无法打开工作簿", err)
	}
	return readWorkbook(filePath, xlFile, opts)
}

// ReadXLSXBinary 从内存中的工作簿内容读取, 用于邮件附件
func ReadXLSXBinary(ref string, content []byte, opts Options) (*dataset.Dataset, error) {
	xlFile, err := xlsx.OpenBinary(content)
	if err != nil {
		return nil, unavailable(ref, "无法解析工作簿", err)
	}
	return readWorkbook(ref, xlFile, opts)
}

func readWorkbook(ref string, xlFile *xlsx.File, opts Options) (*dataset.Dataset, error) {
	opts = opts.withDefaults()

	if len(xlFile.Sheets) == 0 {
		return nil, unavailable(ref, "excel文件中没有工作表", nil)
	}
	sheet, ok := xlFile.Sheet[opts.SheetName]
	if !ok || sheet == nil {
		return nil, unavailable(ref, "找不到工作表 "+opts.SheetName, nil)
	}
	if len(sheet.Rows) <= opts.HeaderRow {
		return nil, unavailable(ref, "工作表缺少标题行", nil)
	}

	index, err := headerIndex(ref, sheet.Rows[opts.HeaderRow])
	if err != nil {
		return nil, err
	}

	p := cellParser{date1904: xlFile.Date1904, loc: opts.Location}
	rows := make([]dataset.Row, 0, len(sheet.Rows)-opts.HeaderRow-1)
	for _, xr := range sheet.Rows[opts.HeaderRow+1:] {
		if xr == nil || isBlankRow(xr) {
			continue
		}
		get := func(col string) string {
			i := index[col]
			if i >= len(xr.Cells) || xr.Cells[i] == nil {
				return ""
			}
			return strings.TrimSpace(xr.Cells[i].Value)
		}
		rows = append(rows, p.row(get))
	}

	return dataset.New(ref, rows), nil
}

// headerIndex 校验标题行包含全部列, 返回列名到下标的映射
func headerIndex(ref string, header *xlsx.Row) (map[string]int, error) {
	index := make(map[string]int, len(dataset.Columns))
	for i, cell := range header.Cells {
		if cell == nil {
			continue
		}
		name := strings.TrimSpace(cell.Value)
		if _, dup := index[name]; !dup && name != "" {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range dataset.Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, unavailable(ref, "缺少列 "+strings.Join(missing, ", "), nil)
	}
	return index, nil
}

func isBlankRow(r *xlsx.Row) bool {
	for _, c := range r.Cells {
		if c != nil && strings.TrimSpace(c.Value) != "" {
			return false
		}
	}
	return true
}

type cellParser struct {
	date1904 bool
	loc      *time.Location
}

func (p cellParser) row(get func(string) string) dataset.Row {
	return dataset.Row{
		Aircraft:        get(dataset.ColAircraft),
		AirportIATACode: get(dataset.ColAirportIATACode),
		TurnaroundID:    normalizeID(get(dataset.ColTurnaroundID)),
		TaskName:        get(dataset.ColTaskName),

		TaskIsApplicable:    parseBool(get(dataset.ColTaskIsApplicable)),
		IsPunctual:          parseBool(get(dataset.ColIsPunctual)),
		AddInfoIsApplicable: parseBool(get(dataset.ColAddInfoIsApplicable)),

		STD:           p.parseTime(get(dataset.ColSTD)),
		ATD:           p.parseTime(get(dataset.ColATD)),
		STA:           p.parseTime(get(dataset.ColSTA)),
		ATA:           p.parseTime(get(dataset.ColATA)),
		ADC:           p.parseTime(get(dataset.ColADC)),
		ADCT:          p.parseTime(get(dataset.ColADCT)),
		TaskUpdatedAt: p.parseTime(get(dataset.ColTaskUpdatedAt)),
		PlanningStart: p.parseTime(get(dataset.ColPlanningStart)),
		ActualStart:   p.parseTime(get(dataset.ColActualStart)),
		PlanningEnd:   p.parseTime(get(dataset.ColPlanningEnd)),
		ActualEnd:     p.parseTime(get(dataset.ColActualEnd)),

		CustomLabel:     get(dataset.ColCustomLabel),
		InformationType: get(dataset.ColInformationType),
		CheckboxValue:   get(dataset.ColCheckboxValue),
		TextValue:       get(dataset.ColTextValue),
		DatetimeValue:   get(dataset.ColDatetimeValue),
		NumberValue:     get(dataset.ColNumberValue),
	}
}

// parseTime 解析时间单元格, 失败返回空值
func (p cellParser) parseTime(raw string) sql.NullTime {
	if raw == "" {
		return sql.NullTime{}
	}

	// Excel 序列号
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return sql.NullTime{}
		}
		t := xlsx.TimeFromExcelTime(serial, p.date1904)
		return sql.NullTime{Time: p.inLocation(t), Valid: true}
	}

	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, raw, p.loc)
		if err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}
	return sql.NullTime{}
}

// inLocation 将无时区的墙上时间放入配置时区
func (p cellParser) inLocation(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), p.loc)
}

func parseBool(raw string) sql.NullBool {
	if raw == "" {
		return sql.NullBool{}
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		switch strings.ToLower(raw) {
		case "yes", "y", "oui":
			return sql.NullBool{Bool: true, Valid: true}
		case "no", "n", "non":
			return sql.NullBool{Bool: false, Valid: true}
		}
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: b, Valid: true}
}

// normalizeID 数值型 id 去掉 ".0" 后缀
func normalizeID(raw string) string {
	if strings.HasSuffix(raw, ".0") {
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return strings.TrimSuffix(raw, ".0")
		}
	}
	return raw
}
