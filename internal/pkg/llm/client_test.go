package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoshilog/backend/config"
)

type fakeChatModel struct {
	reply    *schema.Message
	err      error
	input    []*schema.Message
	options  *model.Options
	numCalls int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.numCalls++
	f.input = input
	f.options = model.GetCommonOptions(nil, opts...)
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestNewClientWithoutKeyIsNotConfigured(t *testing.T) {
	cfg := config.Default()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.False(t, client.Configured())

	_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCompleteSendsImageAndOptions(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage(`{"isOk":true}`, nil)}
	client := NewClientWithModel(fake, "test-model", 0.1)

	out, err := client.Complete(context.Background(), Request{
		Purpose:   "validate",
		Prompt:    "判定してください",
		ImageURL:  "data:image/jpeg;base64,AAAA",
		MaxTokens: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"isOk":true}`, out)

	require.Len(t, fake.input, 1)
	msg := fake.input[0]
	assert.Equal(t, schema.User, msg.Role)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, "判定してください", msg.MultiContent[0].Text)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", msg.MultiContent[1].ImageURL.URL)

	require.NotNil(t, fake.options.Temperature)
	assert.InDelta(t, 0.1, *fake.options.Temperature, 1e-6)
	require.NotNil(t, fake.options.MaxTokens)
	assert.Equal(t, 300, *fake.options.MaxTokens)
}

func TestCompleteTextOnly(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("ok", nil)}
	client := NewClientWithModel(fake, "test-model", 0.1)

	_, err := client.Complete(context.Background(), Request{Prompt: "text"})
	require.NoError(t, err)
	assert.Equal(t, "text", fake.input[0].Content)
	assert.Empty(t, fake.input[0].MultiContent)
}

func TestCompleteEmptyContent(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("   ", nil)}
	client := NewClientWithModel(fake, "test-model", 0.1)

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCompletePropagatesError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("503 service unavailable")}
	client := NewClientWithModel(fake, "test-model", 0.1)

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	assert.Error(t, err)
	assert.Equal(t, 1, fake.numCalls, "不应重试")
}

// TestClientAgainstOpenAICompatibleServer 使用 httptest 模拟 OpenAI 兼容接口
func TestClientAgainstOpenAICompatibleServer(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path /chat/completions, got %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1234567890,
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"title\":\"手順\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.APIURL = server.URL

	client, err := NewClient(cfg)
	require.NoError(t, err)
	require.True(t, client.Configured())

	out, err := client.Complete(context.Background(), Request{Purpose: "parse_text", Prompt: "手順書", MaxTokens: 2000})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"手順"}`, out)
	assert.Equal(t, cfg.LLM.Model, received["model"])
}
