package file

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable 数据源无法读取或结构不符
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceError 描述数据源加载失败的原因
type SourceError struct {
	Ref    string
	Reason string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("数据源 %s 不可用: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("数据源 %s 不可用: %s", e.Ref, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

func unavailable(ref, reason string, err error) error {
	return &SourceError{Ref: ref, Reason: reason, Err: err}
}
