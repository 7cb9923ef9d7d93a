package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/plot"
	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/report"
)

// healthResponse loaded 表示数据源是否已成功加载过
type healthResponse struct {
	Status string `json:"status"`
	Loaded bool   `json:"loaded"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if l, ok := s.loader.(interface{ Loaded(ref string) bool }); ok {
		resp.Loaded = l.Loaded(s.ref)
	}
	writeJSON(w, http.StatusOK, resp)
}

// filtersResponse 可选的筛选值和默认值
type filtersResponse struct {
	Airports   []string              `json:"airports"`
	Aircraft   []string              `json:"aircraft"`
	Tasks      []string              `json:"tasks"`
	Dimensions []processor.Dimension `json:"dimensions"`
	Labels     map[string]string     `json:"labels"`
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	labels := make(map[string]string, len(processor.Dimensions))
	for _, d := range processor.Dimensions {
		labels[string(d)] = s.dimensionLabel(d)
	}
	writeJSON(w, http.StatusOK, filtersResponse{
		Airports:   ds.Distinct(dataset.ColAirportIATACode),
		Aircraft:   ds.Distinct(dataset.ColAircraft),
		Tasks:      s.dcfg.Tasks(),
		Dimensions: processor.Dimensions,
		Labels:     labels,
	})
}

// reportJSON 总是返回 200, 状态写在 status 字段
func (s *Server) reportJSON(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) rows(w http.ResponseWriter, r *http.Request) {
	dq, err := detailQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, ok := s.okReport(w, r)
	if !ok {
		return
	}
	rows, err := processor.DetailTable(rep.Rows(), dq)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !knownChart(name) {
		writeError(w, http.StatusNotFound, fmt.Errorf("未知的图表 %q", name))
		return
	}
	rep, ok := s.okReport(w, r)
	if !ok {
		return
	}

	png, err := plot.Render(rep, name, "Punctuality by "+s.dimensionLabel(rep.Dimension))
	if errors.Is(err, plot.ErrNoData) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Errorf("生成图表 %s 失败: %v", name, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func knownChart(name string) bool {
	for _, n := range plot.Names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.okReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteWorkbook(rep, &buf); err != nil {
		s.logger.Errorf("导出工作簿失败: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) exportPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.okReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WritePDF(rep, s.title, s.dimensionLabel(rep.Dimension), &buf); err != nil {
		s.logger.Errorf("导出PDF失败: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	attachment(w, "application/pdf", "pdf")
	_, _ = w.Write(buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, ext string) {
	name := fmt.Sprintf("turnaround-%s.%s", time.Now().Format("20060102-1504"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

// table 文本报表, format 可选 text, markdown, html, csv; rows=1 时附加明细表
func (s *Server) table(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := report.Format(q.Get("format"))
	switch format {
	case "":
		format = report.FormatText
	case report.FormatText, report.FormatMarkdown, report.FormatHTML, report.FormatCSV:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("未知的格式 %q", format))
		return
	}
	dq, err := detailQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rep, ok := s.report(w, r)
	if !ok {
		return
	}

	out := report.Text(rep, s.dimensionLabel(rep.Dimension), format)
	if rep.OK() && q.Get("rows") == "1" {
		rows, err := processor.DetailTable(rep.Rows(), dq)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		out += "\n" + report.DetailRowsTable(rows, s.dcfg.ColumnLabel, format) + "\n"
	}

	contentType := "text/plain; charset=utf-8"
	if format == report.FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusFor(rep))
	_, _ = w.Write([]byte(out))
}
