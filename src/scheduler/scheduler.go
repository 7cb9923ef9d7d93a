package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"

	"TurnaroundAnalysis/src/storage"
)

// Scheduler 按固定间隔运行报表任务
type Scheduler struct {
	cron     *cron.Cron
	job      *ReportJob
	interval time.Duration
	logger   *storage.Logger
}

func New(job *ReportJob, interval time.Duration, logger *storage.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		job:      job,
		interval: interval,
		logger:   logger,
	}
}

// Spec cron 表达式, 例如 "@every 24h0m0s"
func (s *Scheduler) Spec() string {
	return fmt.Sprintf("@every %s", s.interval.String())
}

// Start 注册任务并启动; 每次运行的超时与间隔相同
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("报表间隔无效: %v", s.interval)
	}

	spec := s.Spec()
	err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("创建定时任务失败: %w", err)
	}

	s.cron.Start()
	s.logger.Infof("报表定时任务已启动(间隔: %v)", s.interval)
	return nil
}

// RunOnce 立即运行一次任务, 错误只记录日志
func (s *Scheduler) RunOnce(ctx context.Context) *Result {
	s.logger.Infof("开始定时报表(%s)...", s.Spec())
	res, err := s.job.Run(ctx)
	if err != nil {
		s.logger.Errorf("报表任务失败: %v", err)
	}
	return res
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
