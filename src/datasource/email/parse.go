package email

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	_ "github.com/emersion/go-message/charset" // 非 UTF-8 的附件名和正文
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var headerDecoder = mime.WordDecoder{CharsetReader: charsetReader}

// parseEmail 把 IMAP 返回的原始邮件解成 Email, 只保留附件
func parseEmail(msg *imap.Message, section *imap.BodySectionName) (*Email, error) {
	body := msg.GetBody(section)
	if body == nil {
		return nil, errors.New("服务器没有返回邮件内容")
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("无法读取MIME结构: %w", err)
	}

	e := &Email{
		UID:     msg.Uid,
		Date:    msg.InternalDate,
		From:    decodeHeader(mr.Header.Get("From")),
		Subject: decodeHeader(mr.Header.Get("Subject")),
	}
	if d, err := mr.Header.Date(); err == nil && !d.IsZero() {
		e.Date = d
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return e, nil
		}
		if err != nil {
			return nil, fmt.Errorf("读取邮件第 %d 部分失败: %w", len(e.Attachments)+1, err)
		}
		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		// 附件名缺失或读取失败时跳过该附件
		if a, err := readAttachment(h, part.Body); err == nil {
			e.Attachments = append(e.Attachments, a)
		}
	}
}

func readAttachment(h *mail.AttachmentHeader, r io.Reader) (*Attachment, error) {
	name, err := h.Filename()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("附件没有文件名")
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Attachment{Filename: decodeHeader(name), Content: content}, nil
}

// decodeHeader 解码 RFC 2047 编码的头部, 失败时原样返回
func decodeHeader(s string) string {
	if out, err := headerDecoder.DecodeHeader(s); err == nil {
		return out
	}
	return s
}

// charsetReader 国内邮箱常见的 GBK 系列编码转 UTF-8, 其余原样透传
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "gbk", "gb2312", "cp936":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	case "gb18030":
		return transform.NewReader(input, simplifiedchinese.GB18030.NewDecoder()), nil
	}
	return input, nil
}

// filterLatestTargetEmail 主题含关键词且带 xlsx 附件的邮件中最新的一封;
// 日期相同时取 UID 较大的
func filterLatestTargetEmail(emails []*Email, keyword string) *Email {
	candidates := make([]*Email, 0, len(emails))
	for _, e := range emails {
		if strings.Contains(e.Subject, keyword) && workbookAttachment(e) != nil {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.UID > b.UID
	})
	return candidates[0]
}
