package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"TurnaroundAnalysis/src/config"
	"TurnaroundAnalysis/src/datapush"
	"TurnaroundAnalysis/src/datasource/email"
	"TurnaroundAnalysis/src/datasource/file"
	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/scheduler"
	"TurnaroundAnalysis/src/storage"
	"TurnaroundAnalysis/src/web"
)

const (
	pidFile         = "turnaround.pid"
	rotateInterval  = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, dcfg, err := config.LoadConfig(config.Folder("./config"), "config.json", "dataconfig.json")
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}
	if len(dcfg.Tasks()) == 0 {
		dcfg.SetTasks(processor.OfficialTasks)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	if err := applyLogLevel(logger, cfg); err != nil {
		logger.Warning(err.Error())
	}

	store := newStore(cfg, logger)

	// 启动时加载数据源, 失败直接退出
	t1 := time.Now()
	ds, err := store.Load(context.Background(), cfg.Source.Ref)
	if err != nil {
		logger.Fatal("加载数据源失败: " + err.Error())
		logger.Close()
		log.Fatal("加载数据源失败: ", err)
	}
	logger.Infof("数据源 %s 已加载, 共 %d 行, 耗时: %v", ds.Source(), ds.Len(), time.Since(t1))

	if err := writePID(cfg.DataDir); err != nil {
		logger.Warningf("写入PID文件失败: %v", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Report.Enabled {
		sched, err = newScheduler(cfg, dcfg, store, logger)
		if err != nil {
			logger.Error("创建报表任务失败: " + err.Error())
		} else if err := sched.Start(); err != nil {
			logger.Error(err.Error())
			sched = nil
		}
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           web.NewServer(store, cfg.Source.Ref, dcfg, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("HTTP服务已启动: %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP服务异常退出: " + err.Error())
		}
	}()

	stopRotate := make(chan struct{})
	go rotateLoop(logger, cfg, stopRotate)

	waitForShutdown(logger)

	close(stopRotate)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("关闭HTTP服务失败: " + err.Error())
	}
	if sched != nil {
		sched.Stop()
	}
	_ = os.Remove(filepath.Join(cfg.DataDir, pidFile))
	logger.Info("服务已退出")
	logger.Close()
}

// newStore 创建数据源缓存, 并注册 dir: 和 imap: 两种引用
func newStore(cfg *config.Config, logger *storage.Logger) *file.Store {
	store := file.NewStore(file.Options{
		SheetName: cfg.Source.SheetName,
		HeaderRow: cfg.Source.HeaderRow,
		Location:  cfg.Location(),
	})
	store.Register("dir", file.FolderFetcher)

	if cfg.Email.Server != "" {
		client := email.NewIMAPClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password, logger)
		var archiver *email.Archiver
		if cfg.DataDir != "" {
			archiver = email.NewArchiver(cfg.DataDir)
		}
		mailbox := email.NewMailbox(client, time.Duration(cfg.Email.Lookback), archiver, logger)
		store.Register("imap", mailbox.Fetch)
	}
	return store
}

// newScheduler 按 report 配置组装报表任务
func newScheduler(cfg *config.Config, dcfg *config.DataConfig, store *file.Store, logger *storage.Logger) (*scheduler.Scheduler, error) {
	dim, err := processor.ParseDimension(cfg.Report.Dimension)
	if err != nil {
		return nil, err
	}

	title := cfg.SendEmail.Subject
	if title == "" {
		title = "Turnaround punctuality report"
	}

	job := &scheduler.ReportJob{
		Loader:         store,
		Ref:            cfg.Source.Ref,
		Tasks:          dcfg.Tasks,
		Dimension:      dim,
		DimensionLabel: dcfg.DimensionLabel(string(dim)),
		Title:          title,
		OutputDir:      cfg.Report.OutputDir,
		Markdown:       datapush.ReportMarkdown,
		Logger:         logger,
	}

	if cfg.Report.Mail {
		sender, err := email.NewSender(cfg)
		if err != nil {
			return nil, fmt.Errorf("报表邮件配置无效: %w", err)
		}
		job.Mailer = sender
	}
	if cfg.DingTalk.Webhook != "" {
		job.Pusher = datapush.NewRobot(cfg.DingTalk.Webhook, cfg.DingTalk.Secret)
	}

	return scheduler.New(job, time.Duration(cfg.Report.Interval), logger), nil
}

// applyLogLevel 按 log_level 设置级别, 无法识别时保持 INFO
func applyLogLevel(logger *storage.Logger, cfg *config.Config) error {
	level, err := storage.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)
	return err
}

func rotateLoop(logger *storage.Logger, cfg *config.Config, stop <-chan struct{}) {
	ticker := time.NewTicker(rotateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := logger.CheckRotate(cfg); err != nil {
				log.Printf("日志轮转失败: %v", err)
			}
		}
	}
}

func writePID(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pidFile), []byte(strconv.Itoa(os.Getpid())), 0644)
}

// waitForShutdown SIGHUP 重新打开日志文件, SIGINT/SIGTERM 返回
func waitForShutdown(logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			if err := logger.Reopen(""); err != nil {
				log.Printf("重新打开日志失败: %v", err)
				continue
			}
			logger.Info("收到 SIGHUP, 日志文件已重新打开")
			continue
		}
		logger.Info("Received signal: " + sig.String() + ", shutting down...")
		return
	}
}
