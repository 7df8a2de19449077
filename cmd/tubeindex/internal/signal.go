package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext 返回一个在收到 SIGINT 或 SIGTERM 时取消的 context。
// 调用方需在结束时执行返回的 stop 函数。
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
