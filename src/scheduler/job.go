// Package scheduler 定时生成报表, 并通过邮件和钉钉分发
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"TurnaroundAnalysis/src/dataset"
	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/report"
	"TurnaroundAnalysis/src/storage"
)

// Loader 按引用取得数据集, 由 file.Store 实现
type Loader interface {
	Load(ctx context.Context, ref string) (*dataset.Dataset, error)
}

// Mailer 发送带附件的邮件
type Mailer interface {
	Send(subject, body string, attachments ...string) error
}

// Pusher 推送 markdown 消息
type Pusher interface {
	PushMarkdown(ctx context.Context, title, text string) error
}

// MarkdownFunc 生成推送消息正文
type MarkdownFunc func(rep *processor.Report, title, dimensionLabel string, at time.Time) string

// ReportJob 一次报表任务的参数
type ReportJob struct {
	Loader         Loader
	Ref            string
	Tasks          func() []string // 默认任务集合
	Dimension      processor.Dimension
	DimensionLabel string
	Title          string
	OutputDir      string
	Mailer         Mailer // 可为空
	Pusher         Pusher // 可为空
	Markdown       MarkdownFunc
	Logger         *storage.Logger

	mu  sync.Mutex // 同一时间只运行一个任务
	now func() time.Time
}

// Result 任务输出
type Result struct {
	Report   *processor.Report
	Workbook string
	PDF      string
}

// Run 加载数据, 按默认筛选计算报表, 写出 xlsx 与 pdf, 然后分发
//
// 筛选为空或没有数据时不写文件, 只推送提示消息.
func (j *ReportJob) Run(ctx context.Context) (*Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	startTime := time.Now()
	at := j.clock()

	ds, err := j.Loader.Load(ctx, j.Ref)
	if err != nil {
		return nil, fmt.Errorf("加载数据源失败: %w", err)
	}

	var tasks []string
	if j.Tasks != nil {
		tasks = j.Tasks()
	}
	rep := processor.Run(ds, processor.DefaultSelection(ds, tasks), j.Dimension)
	res := &Result{Report: rep}

	if rep.OK() {
		if err := j.write(rep, at, res); err != nil {
			return res, err
		}
		j.Logger.Infof("报表已生成: %s, %s", res.Workbook, res.PDF)
	} else {
		j.Logger.Warningf("报表没有数据: %s", rep.Message)
	}

	// 分发失败不影响已生成的文件
	j.mail(rep, res)
	j.push(ctx, rep, at)

	j.Logger.Infof("报表任务完成，耗时: %v", time.Since(startTime))
	return res, nil
}

func (j *ReportJob) write(rep *processor.Report, at time.Time, res *Result) error {
	if err := os.MkdirAll(j.OutputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	base := fmt.Sprintf("report-%s-%s", at.Format("20060102-1504"), uuid.NewV4().String()[:8])
	res.Workbook = filepath.Join(j.OutputDir, base+".xlsx")
	res.PDF = filepath.Join(j.OutputDir, base+".pdf")

	if err := report.SaveWorkbook(rep, res.Workbook); err != nil {
		return fmt.Errorf("写出工作簿失败: %w", err)
	}

	f, err := os.Create(res.PDF)
	if err != nil {
		return fmt.Errorf("创建PDF失败: %w", err)
	}
	defer f.Close()
	if err := report.WritePDF(rep, j.Title, j.DimensionLabel, f); err != nil {
		return fmt.Errorf("写出PDF失败: %w", err)
	}
	return nil
}

func (j *ReportJob) mail(rep *processor.Report, res *Result) {
	if j.Mailer == nil || !rep.OK() {
		return
	}
	body := report.Text(rep, j.DimensionLabel, report.FormatText)
	if err := j.Mailer.Send(j.Title, body, res.Workbook, res.PDF); err != nil {
		j.Logger.Errorf("发送报表邮件失败: %v", err)
		return
	}
	j.Logger.Info("报表邮件已发送")
}

func (j *ReportJob) push(ctx context.Context, rep *processor.Report, at time.Time) {
	if j.Pusher == nil || j.Markdown == nil {
		return
	}
	text := j.Markdown(rep, j.Title, j.DimensionLabel, at)
	if err := j.Pusher.PushMarkdown(ctx, j.Title, text); err != nil {
		j.Logger.Errorf("推送钉钉消息失败: %v", err)
		return
	}
	j.Logger.Info("钉钉消息已推送")
}

func (j *ReportJob) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}
