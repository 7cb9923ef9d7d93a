package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// latestFile 目录中匹配到的最新工作簿
type latestFile struct {
	Name     string
	FullPath string
	ModTime  time.Time
}

// FolderFetcher 解析 "dir:<目录>#<关键词>" 引用, 读取目录中文件名包含关键词的最新 .xlsx
//
// 关键词可省略. 只在首次加载时查找一次, 之后的新文件不会被发现.
func FolderFetcher(ctx context.Context, ref string) ([]byte, error) {
	dir, keyword, _ := strings.Cut(ref, "#")

	latest, err := findLatestExcel(dir, keyword)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(latest.FullPath)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", latest.FullPath, err)
	}
	return content, nil
}

// findLatestExcel 查找最新的符合条件的Excel文件
func findLatestExcel(dir, keyword string) (*latestFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var latest *latestFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// 跳过 Excel 打开时产生的锁文件
		if strings.HasPrefix(info.Name(), "~$") ||
			!strings.EqualFold(filepath.Ext(info.Name()), ".xlsx") ||
			!strings.Contains(info.Name(), keyword) {
			continue
		}

		if latest == nil || info.ModTime().After(latest.ModTime) {
			latest = &latestFile{
				Name:     info.Name(),
				FullPath: filepath.Join(dir, info.Name()),
				ModTime:  info.ModTime(),
			}
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("no matching .xlsx files found in %s", dir)
	}
	return latest, nil
}
