package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var (
	loadOnce   sync.Once
	loaded     *Config
	loadedData *DataConfig
	loadErr    error
)

// LoadConfig 读取 .env 及目录下的两个 JSON 配置文件, 进程内只加载一次
func LoadConfig(dir, cfgFile, dataFile string) (*Config, *DataConfig, error) {
	loadOnce.Do(func() {
		// .env 不存在时忽略
		_ = godotenv.Load()
		loaded, loadedData, loadErr = loadConfigs(dir, cfgFile, dataFile)
	})
	return loaded, loadedData, loadErr
}

// Folder 返回配置目录, 环境变量 TURNAROUND_CONFIG_DIR 优先
func Folder(def string) string {
	if v := os.Getenv("TURNAROUND_CONFIG_DIR"); v != "" {
		return v
	}
	return def
}

// loadConfigs 两个文件并发解析, 错误合并返回
func loadConfigs(dir, cfgFile, dataFile string) (*Config, *DataConfig, error) {
	var (
		wg             sync.WaitGroup
		cfg            *Config
		dcfg           *DataConfig
		cfgErr, dcfErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cfg, cfgErr = parseFile(filepath.Join(dir, cfgFile), ParseConfig)
	}()
	go func() {
		defer wg.Done()
		dcfg, dcfErr = parseFile(filepath.Join(dir, dataFile), ParseDataConfig)
	}()
	wg.Wait()

	if err := errors.Join(cfgErr, dcfErr); err != nil {
		return nil, nil, fmt.Errorf("配置加载失败: %w", err)
	}
	cfg.applyEnv()
	return cfg, dcfg, nil
}

func parseFile[T any](path string, parse func([]byte) (*T, error)) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", path, err)
	}
	v, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// ParseConfig 解析 config.json 内容并补全默认值
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析Config失败: %w", err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

// ParseDataConfig 解析 dataconfig.json 内容
func ParseDataConfig(data []byte) (*DataConfig, error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		return nil, fmt.Errorf("解析DataConfig失败: %w", err)
	}
	if dcfg.DimensionLabels == nil {
		dcfg.DimensionLabels = map[string]string{}
	}
	if dcfg.ColumnLabels == nil {
		dcfg.ColumnLabels = map[string]string{}
	}
	return &dcfg, nil
}
