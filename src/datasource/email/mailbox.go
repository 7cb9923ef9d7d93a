package email

import (
	"context"
	"fmt"
	"time"

	"TurnaroundAnalysis/src/storage"
	"TurnaroundAnalysis/src/utils"
)

// Mailbox 从邮箱中取回最新的工作簿附件, 作为 "imap:<主题关键词>" 数据源
type Mailbox struct {
	service  MailService
	lookback time.Duration
	archiver *Archiver // 可为空
	logger   *storage.Logger
	now      func() time.Time
}

func NewMailbox(service MailService, lookback time.Duration, archiver *Archiver, logger *storage.Logger) *Mailbox {
	return &Mailbox{
		service:  service,
		lookback: lookback,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch 返回主题包含 keyword 的最新邮件中的 xlsx 附件内容
//
// 签名与 file.Fetcher 一致, 可直接注册到 file.Store.
func (m *Mailbox) Fetch(ctx context.Context, keyword string) ([]byte, error) {
	startTime := time.Now()
	m.logger.Infof("开始检查邮箱(关键词: %s)...", keyword)

	target, err := m.latest(ctx, keyword)
	if err != nil {
		return nil, err
	}

	m.logger.Infof("找到目标邮件: %s (%s, UID:%d)", target.Subject, target.Date.Format(utils.TimeLayout), target.UID)

	if m.archiver != nil {
		if path, err := m.archiver.Save(target); err != nil {
			m.logger.Warningf("保存附件失败: %v", err)
		} else if path != "" {
			m.logger.Infof("附件已保存到: %s", path)
		}
	}

	m.logger.Infof("邮件处理完成，耗时: %v", time.Since(startTime))
	return workbookAttachment(target).Content, nil
}

func (m *Mailbox) latest(ctx context.Context, keyword string) (*Email, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := m.service.Connect(); err != nil {
		return nil, fmt.Errorf("连接失败: %w", err)
	}
	defer m.service.Disconnect() // 确保连接关闭

	emails, err := m.service.FetchEmails(m.now().Add(-m.lookback))
	if err != nil {
		return nil, fmt.Errorf("获取邮件失败: %w", err)
	}

	m.logger.Debugf("最近 %v 内共取回 %d 封邮件", m.lookback, len(emails))
	target := filterLatestTargetEmail(emails, keyword)
	if target == nil {
		return nil, fmt.Errorf("最近 %v 内没有主题包含 %q 且带 xlsx 附件的邮件", m.lookback, keyword)
	}
	return target, nil
}
