package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Config 对应 config.json
type Config struct {
	// 数据源配置
	Source struct {
		Ref       string `json:"ref"`        // 数据源引用: xlsx 路径或 imap:<主题关键词>
		SheetName string `json:"sheet_name"` // 工作表名称
		HeaderRow int    `json:"header_row"` // 标题行下标(从0开始)
		Location  string `json:"location"`   // 无时区时间值所用的时区
	} `json:"source"`

	// 邮箱数据源(IMAP)
	Email struct {
		Server        string   `json:"server"`         // 邮件服务器地址
		Username      string   `json:"username"`       // 邮箱用户名
		Password      string   `json:"password"`       // 邮箱密码
		TargetSubject string   `json:"target_subject"` // 需要匹配的邮件主题
		Lookback      Duration `json:"lookback"`       // 向前查找邮件的时间范围
	} `json:"email"`

	// 报表发送邮箱(SMTP)
	SendEmail struct {
		Server   string   `json:"server"`   // 邮件服务器地址
		Username string   `json:"username"` // 邮箱用户名
		Password string   `json:"password"` // 邮箱密码
		To       []string `json:"to"`       // 收件人
		Subject  string   `json:"subject"`  // 邮件主题
	} `json:"send_email"`

	HTTP struct {
		Addr string `json:"addr"`
	} `json:"http"`

	// 定时报表
	Report struct {
		Enabled   bool     `json:"enabled"`
		Interval  Duration `json:"interval"`
		OutputDir string   `json:"output_dir"`
		Dimension string   `json:"dimension"`
		Mail      bool     `json:"mail"`
	} `json:"report"`

	DingTalk struct {
		Webhook string `json:"webhook"`
		Secret  string `json:"secret"`
	} `json:"dingtalk"`

	DataDir    string `json:"data_dir"` // 应用程序数据存储目录
	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
	LogLevel   string `json:"log_level"` // debug / info / warning / error
}

// DataConfig 业务数据相关配置
type DataConfig struct {
	OfficialTasks   []string          `json:"official_tasks"`
	DimensionLabels map[string]string `json:"dimension_labels"`
	ColumnLabels    map[string]string `json:"column_labels"`
}

// mu 保护 DataConfig 的读写
var mu sync.RWMutex

func (c *Config) setDefaults() {
	if c.Source.SheetName == "" {
		c.Source.SheetName = "Data"
	}
	if c.Source.Location == "" {
		c.Source.Location = "UTC"
	}
	if c.Email.Lookback == 0 {
		c.Email.Lookback = Duration(30 * 24 * time.Hour)
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Report.Interval == 0 {
		c.Report.Interval = Duration(24 * time.Hour)
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "reports"
	}
	if c.Report.Dimension == "" {
		c.Report.Dimension = "airport"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
}

// applyEnv 环境变量覆盖 JSON 中的同名配置
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"TURNAROUND_SOURCE":           &c.Source.Ref,
		"TURNAROUND_HTTP_ADDR":        &c.HTTP.Addr,
		"TURNAROUND_EMAIL_PASSWORD":   &c.Email.Password,
		"TURNAROUND_SEND_PASSWORD":    &c.SendEmail.Password,
		"TURNAROUND_DINGTALK_WEBHOOK": &c.DingTalk.Webhook,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

// Location 解析 Source.Location, 无效时回退到 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Source.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Duration 在 JSON 中以 "30m"、"24h" 这样的字符串表示
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Tasks 返回官方任务清单的副本
func (dc *DataConfig) Tasks() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, len(dc.OfficialTasks))
	copy(out, dc.OfficialTasks)
	return out
}

func (dc *DataConfig) SetTasks(tasks []string) {
	mu.Lock()
	defer mu.Unlock()
	dc.OfficialTasks = append([]string(nil), tasks...)
}

// DimensionLabel 返回维度的显示名称, 未配置时返回维度本身
func (dc *DataConfig) DimensionLabel(dim string) string {
	mu.RLock()
	defer mu.RUnlock()
	if label, ok := dc.DimensionLabels[dim]; ok {
		return label
	}
	return dim
}

func (dc *DataConfig) ColumnLabel(col string) string {
	mu.RLock()
	defer mu.RUnlock()
	if label, ok := dc.ColumnLabels[col]; ok {
		return label
	}
	return col
}
