// Package datapush 将报表摘要推送到钉钉群机器人
package datapush

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// 常量定义
const (
	RETRY_TIMES     = 5
	RETRY_INTERVAL  = 2 * time.Second
	REQUEST_TIMEOUT = 10 * time.Second
)

// 钉钉 API 响应结构体
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

// Robot 钉钉自定义机器人
type Robot struct {
	webhook       string
	secret        string // 加签密钥, 为空时不加签
	client        *http.Client
	retryTimes    int
	retryInterval time.Duration
	now           func() time.Time
}

func NewRobot(webhook, secret string) *Robot {
	return &Robot{
		webhook:       webhook,
		secret:        secret,
		client:        &http.Client{Timeout: REQUEST_TIMEOUT},
		retryTimes:    RETRY_TIMES,
		retryInterval: RETRY_INTERVAL,
		now:           time.Now,
	}
}

// PushMarkdown 发送 markdown 消息, 失败时重试
func (r *Robot) PushMarkdown(ctx context.Context, title, text string) error {
	var msg markdownMessage
	msg.MsgType = "markdown"
	msg.Markdown.Title = title
	msg.Markdown.Text = text

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %v", err)
	}

	return retry(ctx, func() error {
		return r.post(ctx, payload)
	}, r.retryTimes, r.retryInterval)
}

func (r *Robot) post(ctx context.Context, payload []byte) error {
	target, err := r.signedURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("推送失败: HTTP %d", resp.StatusCode)
	}

	var result DingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("推送失败: %s", result.ErrMsg)
	}
	return nil
}

// signedURL 在 webhook 上附加 timestamp 和 sign 参数
func (r *Robot) signedURL() (string, error) {
	if r.secret == "" {
		return r.webhook, nil
	}

	u, err := url.Parse(r.webhook)
	if err != nil {
		return "", fmt.Errorf("webhook 地址无效: %v", err)
	}

	timestamp := strconv.FormatInt(r.now().UnixMilli(), 10)
	q := u.Query()
	q.Set("timestamp", timestamp)
	q.Set("sign", sign(timestamp, r.secret))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sign 钉钉加签: base64(HmacSHA256(timestamp + "\n" + secret))
func sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// 重试函数
func retry(ctx context.Context, fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return fmt.Errorf("重试 %d 次后失败: %v", times, err)
}
