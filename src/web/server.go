// Package web 提供报表的 HTTP 接口和看板页面
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"TurnaroundAnalysis/src/config"
	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/datasource/file"
	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/storage"
)

// Loader 按引用取得数据集, 由 file.Store 实现
type Loader interface {
	Load(ctx context.Context, ref string) (*dataset.Dataset, error)
}

// Server 持有数据集句柄和配置, 各请求之间不共享可变状态
type Server struct {
	loader Loader
	ref    string
	dcfg   *config.DataConfig
	logger *storage.Logger
	title  string
}

func NewServer(loader Loader, ref string, dcfg *config.DataConfig, logger *storage.Logger) *Server {
	return &Server{
		loader: loader,
		ref:    ref,
		dcfg:   dcfg,
		logger: logger,
		title:  "Turnaround punctuality",
	}
}

// Handler 路由加上访问日志和 panic 恢复
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/filters", s.filters).Methods(http.MethodGet)
	r.HandleFunc("/api/report", s.reportJSON).Methods(http.MethodGet)
	r.HandleFunc("/api/rows", s.rows).Methods(http.MethodGet)
	r.HandleFunc("/charts/{name}.png", s.chart).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/export.xlsx", s.exportXLSX).Methods(http.MethodGet)
	r.HandleFunc("/export.pdf", s.exportPDF).Methods(http.MethodGet)
	r.HandleFunc("/table.txt", s.table).Methods(http.MethodGet)
	r.HandleFunc("/logs", s.logs).Methods(http.MethodGet)
	r.Handle("/", http.RedirectHandler("/dashboard", http.StatusFound))

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	return handlers.LoggingHandler(s.logger, recovery(r))
}

type recoveryLogger struct {
	logger *storage.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Errorf("请求处理异常: %v", v)
}

// errorBody 错误响应
type errorBody struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// dataset 加载数据源, 失败时写出 503
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	ds, err := s.loader.Load(r.Context(), s.ref)
	if err != nil {
		s.logger.Errorf("加载数据源失败: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, file.ErrSourceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return nil, false
	}
	return ds, true
}

// report 按请求参数计算报表; 参数错误时写出 400
func (s *Server) report(w http.ResponseWriter, r *http.Request) (*processor.Report, bool) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return nil, false
	}

	q := r.URL.Query()
	dim, err := processor.ParseDimension(q.Get("dimension"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	sel := selectionFromQuery(q, processor.DefaultSelection(ds, s.dcfg.Tasks()))
	return processor.Run(ds, sel, dim), true
}

// okReport 与 report 相同, 但报表不可用时写出 422 或 404
func (s *Server) okReport(w http.ResponseWriter, r *http.Request) (*processor.Report, bool) {
	rep, ok := s.report(w, r)
	if !ok {
		return nil, false
	}
	if !rep.OK() {
		writeJSON(w, statusFor(rep), errorBody{Status: string(rep.Status), Error: rep.Message})
		return nil, false
	}
	return rep, true
}

func statusFor(rep *processor.Report) int {
	switch rep.Status {
	case processor.StatusEmptySelection:
		return http.StatusUnprocessableEntity
	case processor.StatusNoMatchingRows:
		return http.StatusNotFound
	}
	return http.StatusOK
}

func (s *Server) dimensionLabel(dim processor.Dimension) string {
	return s.dcfg.DimensionLabel(string(dim))
}
