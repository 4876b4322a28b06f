package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/metrics"
	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/pkg/llm"
	"github.com/yoshilog/backend/internal/utils"
	"k8s.io/klog/v2"
)

const (
	maxTokens   = 300
	temperature = 0.1

	// SystemErrorMessage 任何判定异常都转为这条 NG 反馈
	SystemErrorMessage = "エラーが発生しました。もう一度確認してください。"
	SystemErrorReason  = "System Error"
)

var (
	ErrNoImage = errors.New("no image captured")
	// ErrUnexpectedReply 回复是合法 JSON 但不是判定对象（例如 null）
	ErrUnexpectedReply = errors.New("unexpected reply shape")
)

type Service struct {
	gateway   llm.Gateway
	demoDelay time.Duration
}

// New 创建步骤判定服务
func New(cfg *config.Config, gateway llm.Gateway) *Service {
	return &Service{
		gateway:   gateway,
		demoDelay: cfg.Workflow.DemoDelay,
	}
}

// reply 模型返回的判定 JSON，nextStepId 即使存在也会被忽略
type reply struct {
	IsOK    bool   `json:"isOk"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Validate 判断拍摄画面是否满足当前步骤
// 永远返回结果而不是错误：失败一律转为 System Error 的 NG 结果；
// 判定 OK 时 NextStepID 固定为调用方给出的 candidateNextStepID
func (s *Service) Validate(ctx context.Context, image string, step model.Step, candidateNextStepID string) model.ValidationResult {
	klog.V(6).Infof("[Validator.Validate] 开始判定: stepID=%s, title=%s, next=%s", step.ID, step.Title, candidateNextStepID)

	if !s.gateway.Configured() {
		klog.Warningf("[Validator.Validate] 未配置 API Key，返回演示 OK 结果")
		if err := utils.SleepContext(ctx, s.demoDelay); err != nil {
			return systemError(err)
		}
		metrics.IncValidation("ok")
		return model.ValidationResult{
			IsOK:       true,
			Message:    "よし！バルブの確認、完了しました。次はポンプの起動です。",
			NextStepID: candidateNextStepID,
		}
	}

	result, err := s.judge(ctx, image, step)
	if err != nil {
		klog.Errorf("[Validator.Validate] 判定失败: stepID=%s, error=%v", step.ID, err)
		return systemError(err)
	}

	if result.IsOK {
		result.NextStepID = candidateNextStepID
		metrics.IncValidation("ok")
	} else {
		result.NextStepID = ""
		metrics.IncValidation("ng")
	}
	klog.V(6).Infof("[Validator.Validate] 判定完成: stepID=%s, isOk=%v, message=%s", step.ID, result.IsOK, result.Message)
	return result
}

func (s *Service) judge(ctx context.Context, image string, step model.Step) (model.ValidationResult, error) {
	if image == "" {
		return model.ValidationResult{}, ErrNoImage
	}

	content, err := s.gateway.Complete(ctx, llm.Request{
		Purpose:     "validate",
		Prompt:      buildPrompt(step),
		ImageURL:    image,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return model.ValidationResult{}, err
	}
	if content == "" {
		return model.ValidationResult{}, llm.ErrEmptyContent
	}

	var r *reply
	if err := utils.DecodeReply(content, &r); err != nil {
		klog.V(6).Infof("[Validator.judge] 回复不是合法 JSON: %s", utils.Truncate(content, 200))
		return model.ValidationResult{}, fmt.Errorf("decode reply: %w", err)
	}
	if r == nil {
		return model.ValidationResult{}, ErrUnexpectedReply
	}
	return model.ValidationResult{IsOK: r.IsOK, Message: r.Message, Reason: r.Reason}, nil
}

func systemError(err error) model.ValidationResult {
	metrics.IncValidation("error")
	klog.V(6).Infof("[Validator.systemError] 转换为 NG 结果: %v", err)
	return model.ValidationResult{
		IsOK:    false,
		Message: SystemErrorMessage,
		Reason:  SystemErrorReason,
	}
}

func buildPrompt(step model.Step) string {
	return fmt.Sprintf(`あなたは製造現場の安全管理者です。
作業員が「よし！」と指差呼称をした瞬間の画像を解析し、作業が正しいか判定してください。

【現在の作業手順】
タイトル: %s
説明: %s
危険予知ポイント: %s
確認すべき対象: %s

画像を見て、以下の項目を確認してください：
1. 作業員が正しい対象物（%s）を見ているか、指差しているか。
2. 危険な状態ではないか。

回答は必ず以下のJSON形式のみで返してください。Markdownのコードブロックは不要です。
{
  "isOk": boolean, // 手順通りならtrue, 間違いや危険があればfalse
  "message": string, // 作業員への音声フィードバック (短く、簡潔に。OKなら「よし！○○確認OK。次は〜」, NGなら「待ってください！○○が違います」など)
  "reason": string // 判定の理由
}`, step.Title, step.Description, strings.Join(step.DangerPoints, ", "), step.ExpectedObject, step.ExpectedObject)
}
