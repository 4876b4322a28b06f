package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/metrics"
	"k8s.io/klog/v2"
)

// Client 基于 Eino OpenAI 兼容 ChatModel 的模型网关
type Client struct {
	chatModel   model.BaseChatModel
	modelName   string
	temperature float32
}

// NewClient 根据配置创建模型网关
// 未配置 API Key 时返回未就绪的 Client，Configured() 为 false
func NewClient(cfg *config.Config) (*Client, error) {
	c := &Client{
		modelName:   cfg.LLM.Model,
		temperature: cfg.LLM.Temperature,
	}
	if cfg.LLM.APIKey == "" {
		klog.Warningf("[llm.NewClient] 未配置 LLAMA_API_KEY，使用演示模式")
		return c, nil
	}

	klog.V(6).Infof("[llm.NewClient] 创建 OpenAI ChatModel: model=%s, baseURL=%s", cfg.LLM.Model, cfg.LLM.APIURL)
	chatConfig := &openai.ChatModelConfig{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	}
	if cfg.LLM.APIURL != "" {
		chatConfig.BaseURL = cfg.LLM.APIURL
	}
	if cfg.LLM.Timeout > 0 {
		chatConfig.Timeout = cfg.LLM.Timeout
	}

	chatModel, err := openai.NewChatModel(context.Background(), chatConfig)
	if err != nil {
		klog.Errorf("[llm.NewClient] 创建 ChatModel 失败: %v", err)
		return nil, fmt.Errorf("create chat model failed: %w", err)
	}
	c.chatModel = chatModel
	return c, nil
}

// NewClientWithModel 使用已有的 ChatModel 创建网关
func NewClientWithModel(chatModel model.BaseChatModel, modelName string, temperature float32) *Client {
	return &Client{
		chatModel:   chatModel,
		modelName:   modelName,
		temperature: temperature,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.chatModel != nil
}

// Complete 发送单轮请求并返回文本回复，不做流式、不做重试
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	opts := []model.Option{model.WithTemperature(temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	klog.V(6).Infof("[llm.Complete] 请求: purpose=%s, model=%s, withImage=%v, maxTokens=%d",
		req.Purpose, c.modelName, req.ImageURL != "", req.MaxTokens)
	klog.V(8).Infof("[llm.Complete] prompt=%s", req.Prompt)

	start := time.Now()
	resp, err := c.chatModel.Generate(ctx, []*schema.Message{BuildUserMessage(req)}, opts...)
	if err == nil && (resp == nil || strings.TrimSpace(resp.Content) == "") {
		err = ErrEmptyContent
	}
	metrics.ObserveModelCall(req.Purpose, time.Since(start), err)
	if err != nil {
		klog.Errorf("[llm.Complete] 调用失败: purpose=%s, error=%v", req.Purpose, err)
		return "", err
	}

	klog.V(6).Infof("[llm.Complete] 完成: purpose=%s, responseLength=%d, elapsed=%s",
		req.Purpose, len(resp.Content), time.Since(start))
	klog.V(8).Infof("[llm.Complete] reply=%s", resp.Content)
	return resp.Content, nil
}

// BuildUserMessage 构造用户消息：有图片时使用多段内容（文本 + image_url）
func BuildUserMessage(req Request) *schema.Message {
	if req.ImageURL == "" {
		return schema.UserMessage(req.Prompt)
	}
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: req.ImageURL},
			},
		},
	}
}
