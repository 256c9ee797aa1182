package service

import (
	"go.uber.org/zap"
)

// 通知类型
const (
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyDanger  = "danger"
	NotifyInfo    = "info"
)

// Notifier 通知出口，发出即忘，不返回错误
type Notifier interface {
	Notify(kind, message string)
}

// NotifierFunc 函数适配
type NotifierFunc func(kind, message string)

func (f NotifierFunc) Notify(kind, message string) { f(kind, message) }

// MultiNotifier 扇出到多个通知渠道
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(kind, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, message)
		}
	}
}

// LogNotifier 写入日志
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(kind, message string) {
	switch kind {
	case NotifyDanger:
		n.logger.Warn("notification", zap.String("kind", kind), zap.String("message", message))
	default:
		n.logger.Info("notification", zap.String("kind", kind), zap.String("message", message))
	}
}
