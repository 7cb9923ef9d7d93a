package web

import (
	"io"
	"net/http"
)

// logs 以纯文本流推送新的日志行, 客户端断开后结束
func (s *Server) logs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := s.logger.Subscribe()
	defer s.logger.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-sub:
			if !ok {
				return
			}
			if _, err := io.WriteString(w, entry); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
