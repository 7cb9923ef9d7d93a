package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"TurnaroundAnalysis/src/plot"
	"TurnaroundAnalysis/src/processor"
)

const (
	pageWidth  = 210.0
	margin     = 15.0
	imageWidth = pageWidth - 2*margin
)

// WritePDF 输出包含总体指标和图表的 PDF
func WritePDF(rep *processor.Report, title, dimensionLabel string, w io.Writer) error {
	if !rep.OK() {
		return fmt.Errorf("无法导出: %w", rep.Err())
	}

	images, err := plot.RenderAll(rep, "Punctuality by "+dimensionLabel)
	if err != nil {
		return fmt.Errorf("生成图表失败: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Generated "+time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	drawSummary(pdf, tr, *rep.Summary)
	pdf.Ln(6)

	for _, img := range images {
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		info := pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.PNG))
		if pdf.Err() {
			return fmt.Errorf("加载图表 %s 失败: %w", img.Name, pdf.Error())
		}
		h := imageWidth * info.Height() / info.Width()
		// 放不下时换页
		_, pageH := pdf.GetPageSize()
		if pdf.GetY()+h > pageH-margin {
			pdf.AddPage()
		}
		pdf.ImageOptions(img.Name, margin, pdf.GetY(), imageWidth, h, true, opts, 0, "")
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("输出PDF失败: %w", err)
	}
	return nil
}

func drawSummary(pdf *gofpdf.Fpdf, tr func(string) string, s processor.Summary) {
	rows := [][2]string{
		{"Punctuality rate", FormatPercent(s.PunctualityRate)},
		{"Average task duration", FormatMinutes(s.AvgDurationMinutes)},
		{"Task count", fmt.Sprint(s.TaskCount)},
		{"Distinct turnarounds", fmt.Sprint(s.DistinctTurnarounds)},
		{"Punctuality variability", FormatPercent(s.PunctualityStd)},
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(0, 194, 255)
	pdf.CellFormat(90, 7, tr("Indicator"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, tr("Value"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(90, 7, tr(r[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, tr(r[1]), "1", 1, "R", false, 0, "")
	}
}
