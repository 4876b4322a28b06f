package utils

import (
	"context"
	"time"
)

// SleepContext 等待 d，ctx 取消时提前返回 ctx.Err()；d<=0 立即返回
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
