package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/metrics"
	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/pkg/llm"
	"github.com/yoshilog/backend/internal/utils"
	"k8s.io/klog/v2"
)

const (
	imageMaxTokens = 1000
	textMaxTokens  = 2000
	temperature    = 0.1
)

// ErrParseFailed 解析失败，调用方停留在上传页面并提示重试
var ErrParseFailed = errors.New("procedure parse failed")

type Service struct {
	gateway   llm.Gateway
	demoDelay time.Duration
	newID     func() string
}

// New 创建手顺书解析服务
func New(cfg *config.Config, gateway llm.Gateway) *Service {
	return &Service{
		gateway:   gateway,
		demoDelay: cfg.Workflow.DemoDelay,
		newID:     newProcedureID,
	}
}

func newProcedureID() string {
	return "procedure-" + uuid.NewString()
}

// ParseFromImage 解析手顺书图片（data URL）
func (s *Service) ParseFromImage(ctx context.Context, imageDataURL string) (*model.Procedure, error) {
	klog.V(6).Infof("[Parser.ParseFromImage] 开始解析手顺书图片: length=%d", len(imageDataURL))
	return s.parse(ctx, "image", llm.Request{
		Purpose:     "parse_image",
		Prompt:      imagePrompt,
		ImageURL:    imageDataURL,
		MaxTokens:   imageMaxTokens,
		Temperature: temperature,
	})
}

// ParseFromText 解析文本手顺书，空文本同样交给模型处理
func (s *Service) ParseFromText(ctx context.Context, text string) (*model.Procedure, error) {
	klog.V(6).Infof("[Parser.ParseFromText] 开始解析手顺书文本: length=%d", len(text))
	return s.parse(ctx, "text", llm.Request{
		Purpose:     "parse_text",
		Prompt:      buildTextPrompt(text),
		MaxTokens:   textMaxTokens,
		Temperature: temperature,
	})
}

// parse 最多调用一次模型，不做重试；所有失败都包装为 ErrParseFailed
func (s *Service) parse(ctx context.Context, kind string, req llm.Request) (*model.Procedure, error) {
	if !s.gateway.Configured() {
		klog.Warningf("[Parser.parse] 未配置 API Key，返回演示手顺")
		if err := utils.SleepContext(ctx, s.demoDelay); err != nil {
			metrics.IncParseResult(kind, false)
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
		metrics.IncParseResult(kind, true)
		return demoProcedure(s.newID()), nil
	}

	proc, err := s.callAndNormalize(ctx, req)
	if err != nil {
		klog.Errorf("[Parser.parse] 手顺书解析失败: kind=%s, error=%v", kind, err)
		metrics.IncParseResult(kind, false)
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	klog.V(6).Infof("[Parser.parse] 解析完成: id=%s, title=%s, steps=%d", proc.ID, proc.Title, len(proc.Steps))
	metrics.IncParseResult(kind, true)
	return proc, nil
}

func (s *Service) callAndNormalize(ctx context.Context, req llm.Request) (*model.Procedure, error) {
	content, err := s.gateway.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, llm.ErrEmptyContent
	}

	var parsed any
	if err := utils.DecodeReply(content, &parsed); err != nil {
		klog.V(6).Infof("[Parser.callAndNormalize] 回复不是合法 JSON: %s", utils.Truncate(content, 200))
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	proc, err := Normalize(parsed, s.newID())
	if err != nil {
		return nil, err
	}
	klog.V(8).Infof("[Parser.callAndNormalize] 归一化结果: %s", utils.ToJSON(proc))
	return proc, nil
}

// demoProcedure 演示模式下返回的固定两步手顺
func demoProcedure(id string) *model.Procedure {
	return &model.Procedure{
		ID:    id,
		Title: "アップロードされた手順書（デモ）",
		Steps: []model.Step{
			{
				ID:             "step-1",
				Title:          "電源の確認",
				Description:    "主電源スイッチがOFFになっていることを確認してください。",
				DangerPoints:   []string{"感電の危険"},
				ExpectedObject: "Power Switch OFF",
			},
			{
				ID:             "step-2",
				Title:          "カバーの取り外し",
				Description:    "4本のネジを緩めて保護カバーを取り外してください。",
				DangerPoints:   []string{"指の挟み込み", "カバーの落下"},
				ExpectedObject: "Screws and Cover",
			},
		},
	}
}
