package service

import (
	"errors"
	"fmt"
)

// ErrorKind 图纸流程错误分类
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindInvalidTransition    ErrorKind = "invalid_transition"
	KindConfirmationRequired ErrorKind = "confirmation_required"
	KindConflict             ErrorKind = "conflict"
	KindAuthorization        ErrorKind = "authorization"
	KindNotFound             ErrorKind = "not_found"
)

// WorkflowError 流程错误，带分类，便于handler映射HTTP状态码
type WorkflowError struct {
	Kind    ErrorKind
	Message string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newWorkflowError(kind ErrorKind, format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf 提取错误分类，非流程错误返回空
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}
