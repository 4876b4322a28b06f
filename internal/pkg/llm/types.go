package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured 未配置 API Key，调用方应走演示模式
	ErrNotConfigured = errors.New("llm gateway not configured")
	// ErrEmptyContent 模型返回了空内容
	ErrEmptyContent = errors.New("no content received from model")
)

// Request 一次多模态补全请求
// ImageURL 为 data URL（data:image/jpeg;base64,...），为空时只发送文本
type Request struct {
	Purpose     string // 仅用于日志与指标，例如 "parse_image"、"validate"
	Prompt      string
	ImageURL    string
	MaxTokens   int
	Temperature float32
}

// Gateway 外部多模态模型的调用边界：文本/图片 + 提示词 -> 文本回复
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Configured 为 false 时调用方返回固定的演示结果
	Configured() bool
}
