// Package storage 进程内的文件日志, 支持级别过滤、按大小轮转和实时订阅
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARNING", "ERROR", "FATAL"}

func (lv LogLevel) String() string {
	if lv < 0 || int(lv) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[lv]
}

// ParseLevel 按名称解析级别, 不区分大小写
func ParseLevel(name string) (LogLevel, error) {
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return LogLevel(i), nil
		}
	}
	return INFO, fmt.Errorf("未知的日志级别 %q", name)
}

const (
	timeLayout = "2006-01-02 15:04:05"
	subBuffer  = 100 // 每个订阅者的缓冲条数, 满了丢弃
)

// Logger 写入单个日志文件并把每一条转发给订阅者, 方法可并发调用
type Logger struct {
	mu    sync.Mutex
	path  string
	out   *os.File
	level LogLevel
	subs  []chan string
}

// NewLogger 以追加方式打开 path, 目录不存在时先创建
func NewLogger(path string) (*Logger, error) {
	out, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &Logger{path: path, out: out}, nil
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建日志目录 %s 失败: %w", dir, err)
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Close 关闭文件, 所有订阅通道随之关闭
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ch := range l.subs {
		close(ch)
	}
	l.subs = nil

	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// Reopen 切换到 path; path 为空时重新打开当前文件, 供 logrotate 之后的 SIGHUP 使用
func (l *Logger) Reopen(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if path == "" {
		path = l.path
	}
	if l.out != nil {
		_ = l.out.Close()
		l.out = nil
	}
	out, err := openAppend(path)
	if err != nil {
		return err
	}
	l.out, l.path = out, path
	return nil
}

// Log 格式为 "[时间] 级别: 消息"
func (l *Logger) Log(level LogLevel, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	l.emit(fmt.Sprintf("[%s] %s: %s\n", time.Now().Format(timeLayout), level, strings.TrimRight(msg, "\n")))
}

// Write 原样记录一行, 供 handlers.LoggingHandler 写访问日志
func (l *Logger) Write(p []byte) (int, error) {
	line := string(p)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	l.mu.Lock()
	l.emit(line)
	l.mu.Unlock()
	return len(p), nil
}

// 调用方持有 l.mu
func (l *Logger) emit(line string) {
	if l.out != nil {
		_, _ = l.out.WriteString(line)
	}
	for _, ch := range l.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribe 返回一个接收后续日志的通道, 用完需 Unsubscribe
func (l *Logger) Subscribe() <-chan string {
	ch := make(chan string, subBuffer)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	return ch
}

func (l *Logger) Unsubscribe(sub <-chan string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, ch := range l.subs {
		if ch != sub {
			continue
		}
		close(ch)
		l.subs = append(l.subs[:i], l.subs[i+1:]...)
		return
	}
}

func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) }
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }

func (l *Logger) Debugf(format string, args ...any)   { l.Log(DEBUG, fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)    { l.Log(INFO, fmt.Sprintf(format, args...)) }
func (l *Logger) Warningf(format string, args ...any) { l.Log(WARNING, fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)   { l.Log(ERROR, fmt.Sprintf(format, args...)) }
