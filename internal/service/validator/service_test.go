package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/pkg/llm"
)

type mockGateway struct {
	configured bool
	reply      string
	err        error
	requests   []llm.Request
}

func (m *mockGateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.requests = append(m.requests, req)
	return m.reply, m.err
}

func (m *mockGateway) Configured() bool {
	return m.configured
}

var valveStep = model.Step{
	ID:             "step-1",
	Title:          "吸込バルブの確認",
	Description:    "吸込バルブ(V-101)が「全開」であることを確認してください。",
	DangerPoints:   []string{"バルブの固着による腰痛", "配管からの液漏れ"},
	ExpectedObject: "Valve V-101 Open",
}

func newTestService(gw *mockGateway) *Service {
	cfg := config.Default()
	cfg.Workflow.DemoDelay = 0
	return New(cfg, gw)
}

func TestValidateOKUsesCallerNextStep(t *testing.T) {
	gw := &mockGateway{
		configured: true,
		reply:      "```json\n{\"isOk\": true, \"message\": \"よし！吸込バルブ確認OK。\", \"reason\": \"全開\", \"nextStepId\": \"step-99\"}\n```",
	}
	s := newTestService(gw)

	result := s.Validate(context.Background(), "data:image/jpeg;base64,AAAA", valveStep, "step-2")

	assert.True(t, result.IsOK)
	assert.Equal(t, "step-2", result.NextStepID, "nextStepId 不能由模型决定")
	assert.Equal(t, "よし！吸込バルブ確認OK。", result.Message)
	assert.Equal(t, "全開", result.Reason)

	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, "data:image/jpeg;base64,AAAA", req.ImageURL)
	assert.Equal(t, maxTokens, req.MaxTokens)
	assert.Contains(t, req.Prompt, "タイトル: 吸込バルブの確認")
	assert.Contains(t, req.Prompt, "危険予知ポイント: バルブの固着による腰痛, 配管からの液漏れ")
	assert.Contains(t, req.Prompt, "確認すべき対象: Valve V-101 Open")
}

func TestValidateOKCompletionSentinel(t *testing.T) {
	gw := &mockGateway{configured: true, reply: `{"isOk": true, "message": "OK"}`}
	s := newTestService(gw)

	result := s.Validate(context.Background(), "data:image/jpeg;base64,AAAA", valveStep, model.StepCompleted)
	assert.Equal(t, model.StepCompleted, result.NextStepID)
}

func TestValidateNGClearsNextStep(t *testing.T) {
	gw := &mockGateway{configured: true, reply: `{"isOk": false, "message": "待ってください！バルブが違います", "reason": "V-102 を指差している", "nextStepId": "step-2"}`}
	s := newTestService(gw)

	result := s.Validate(context.Background(), "data:image/jpeg;base64,AAAA", valveStep, "step-2")
	assert.False(t, result.IsOK)
	assert.Empty(t, result.NextStepID)
	assert.Equal(t, "V-102 を指差している", result.Reason)
}

func TestValidateFailuresBecomeSystemError(t *testing.T) {
	cases := []struct {
		name  string
		image string
		reply string
		err   error
		calls int
	}{
		{"no image", "", `{"isOk":true}`, nil, 0},
		{"gateway error", "data:image/jpeg;base64,AAAA", "", errors.New("timeout"), 1},
		{"empty content", "data:image/jpeg;base64,AAAA", "", nil, 1},
		{"malformed json", "data:image/jpeg;base64,AAAA", "OKです", nil, 1},
		{"null reply", "data:image/jpeg;base64,AAAA", "null", nil, 1},
		{"fenced null reply", "data:image/jpeg;base64,AAAA", "```json\nnull\n```", nil, 1},
		{"array reply", "data:image/jpeg;base64,AAAA", "[]", nil, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &mockGateway{configured: true, reply: tc.reply, err: tc.err}
			s := newTestService(gw)

			result := s.Validate(context.Background(), tc.image, valveStep, "step-2")
			assert.Equal(t, model.ValidationResult{
				IsOK:    false,
				Message: SystemErrorMessage,
				Reason:  SystemErrorReason,
			}, result)
			assert.Len(t, gw.requests, tc.calls)
		})
	}
}

func TestValidateDemoMode(t *testing.T) {
	gw := &mockGateway{configured: false}
	s := newTestService(gw)

	result := s.Validate(context.Background(), "", valveStep, "step-2")
	assert.True(t, result.IsOK)
	assert.Equal(t, "step-2", result.NextStepID)
	assert.Empty(t, gw.requests)
}
