package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"TurnaroundAnalysis/src/config"
)

const defaultMaxSize int64 = 10 << 20

// CheckRotate 当前文件超过 cfg.LogMaxSize 时改名为带时间戳的备份并新开一个
func (l *Logger) CheckRotate(cfg *config.Config) error {
	limit := parseSize(cfg.LogMaxSize)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	info, err := l.out.Stat()
	if err != nil {
		return fmt.Errorf("读取日志文件信息失败: %w", err)
	}
	if info.Size() <= limit {
		return nil
	}

	_ = l.out.Close()
	l.out = nil
	if err := os.Rename(l.path, backupName(l.path, time.Now())); err != nil {
		log.Printf("日志重命名失败: %v", err)
	}
	out, err := openAppend(l.path)
	if err != nil {
		return fmt.Errorf("日志轮转失败: %w", err)
	}
	l.out = out
	return nil
}

// backupName app.log -> app.20240101120000.log
func backupName(path string, at time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + at.Format("20060102150405") + ext
}

// parseSize 解析 "10 * 1024 * 1024" 这类乘积, 任一因子非法时取 10MB
func parseSize(expr string) int64 {
	size := int64(1)
	for _, f := range strings.Split(expr, "*") {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil || n <= 0 {
			return defaultMaxSize
		}
		size *= n
	}
	return size
}
