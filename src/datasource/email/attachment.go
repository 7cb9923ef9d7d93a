// attachment.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// workbookAttachment 邮件中的第一个 xlsx 附件
func workbookAttachment(e *Email) *Attachment {
	for _, a := range e.Attachments {
		if strings.EqualFold(filepath.Ext(a.Filename), ".xlsx") && len(a.Content) > 0 {
			return a
		}
	}
	return nil
}

// Archiver 将取回的工作簿附件保存到本地目录, 同一封邮件只保存一次
type Archiver struct {
	DataDir       string          // 附件保存目录
	processedUIDs map[uint32]bool // 已保存的邮件UID
	mu            sync.RWMutex
}

func NewArchiver(dataDir string) *Archiver {
	return &Archiver{
		DataDir:       dataDir,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed 邮件附件是否已经保存过
func (h *Archiver) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *Archiver) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Save 保存邮件的 xlsx 附件, 返回保存路径; 已保存过时返回空路径
func (h *Archiver) Save(e *Email) (string, error) {
	if h.IsProcessed(e.UID) {
		return "", nil
	}

	a := workbookAttachment(e)
	if a == nil {
		return "", fmt.Errorf("邮件(UID:%d)没有xlsx附件", e.UID)
	}

	if err := os.MkdirAll(h.DataDir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	// 附件名可能带路径
	filePath := filepath.Join(h.DataDir, filepath.Base(a.Filename))
	if err := os.WriteFile(filePath, a.Content, 0644); err != nil {
		return "", fmt.Errorf("保存附件失败: %w", err)
	}

	h.markAsProcessed(e.UID)
	return filePath, nil
}
