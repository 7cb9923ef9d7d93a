// Package email 从 IMAP 邮箱取回工作簿附件, 并通过 SMTP 发送报表
package email

import (
	"fmt"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"TurnaroundAnalysis/src/storage"
)

const (
	maxMessages = 100 // 单次最多取回的邮件数
	fetchBuffer = 10
)

// MailService 邮箱访问接口, 便于在测试中替换
type MailService interface {
	Connect() error
	Disconnect()
	// FetchEmails 返回 since 之后收到的邮件, 不区分已读未读
	FetchEmails(since time.Time) ([]*Email, error)
}

// Email 解码后的邮件
type Email struct {
	UID         uint32
	Date        time.Time
	From        string
	Subject     string
	Attachments []*Attachment
}

type Attachment struct {
	Filename string
	Content  []byte
}

// IMAPClient 基于 go-imap 的 MailService 实现, 方法之间互斥
type IMAPClient struct {
	addr     string // 例如 "imap.qq.com:993"
	user     string
	password string
	logger   *storage.Logger

	mu   sync.Mutex
	conn *client.Client
}

func NewIMAPClient(addr, user, password string, logger *storage.Logger) *IMAPClient {
	return &IMAPClient{addr: addr, user: user, password: password, logger: logger}
}

// Connect 登录邮箱; 已有连接还能响应 CAPABILITY 时直接复用
func (c *IMAPClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if _, err := c.conn.Capability(); err == nil {
			return nil
		}
		_ = c.conn.Logout()
		c.conn = nil
	}

	conn, err := client.DialTLS(c.addr, nil)
	if err != nil {
		return fmt.Errorf("连接 %s 失败: %w", c.addr, err)
	}
	if err := conn.Login(c.user, c.password); err != nil {
		_ = conn.Logout()
		return fmt.Errorf("邮箱 %s 登录失败: %w", c.user, err)
	}
	c.conn = conn
	return nil
}

func (c *IMAPClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Logout()
		c.conn = nil
	}
}

// FetchEmails 以只读方式打开收件箱, 按日期搜索并取回最新的 maxMessages 封
func (c *IMAPClient) FetchEmails(since time.Time) ([]*Email, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("邮箱尚未连接")
	}
	if _, err := c.conn.Select(imap.InboxName, true); err != nil {
		return nil, fmt.Errorf("打开收件箱失败: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	seqNums, err := c.conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("按日期搜索邮件失败: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}
	// 序号越大越新
	if len(seqNums) > maxMessages {
		seqNums = seqNums[len(seqNums)-maxMessages:]
	}
	return c.fetch(seqNums)
}

func (c *IMAPClient) fetch(seqNums []uint32) ([]*Email, error) {
	set := new(imap.SeqSet)
	set.AddNum(seqNums...)

	// Peek 不会把邮件标记为已读
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	ch := make(chan *imap.Message, fetchBuffer)
	errc := make(chan error, 1)
	go func() { errc <- c.conn.Fetch(set, items, ch) }()

	emails := make([]*Email, 0, len(seqNums))
	for msg := range ch {
		e, err := parseEmail(msg, section)
		if err != nil {
			c.logger.Warningf("跳过无法解析的邮件(UID:%d): %v", msg.Uid, err)
			continue
		}
		emails = append(emails, e)
	}
	if err := <-errc; err != nil {
		return nil, fmt.Errorf("取回邮件失败: %w", err)
	}
	return emails, nil
}
