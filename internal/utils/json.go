package utils

import (
	"encoding/json"
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

// 模型偶尔会把 JSON 包在 ```json ... ``` 中
var codeFencePattern = regexp.MustCompile("```json\\n?|```")

// StripCodeFence 去掉回复中的 Markdown 代码块标记并去除首尾空白
func StripCodeFence(content string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(content, ""))
}

// DecodeReply 去掉代码块标记后将模型回复解析到 v
func DecodeReply(content string, v any) error {
	cleaned := StripCodeFence(content)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		klog.V(6).Infof("[DecodeReply] JSON 解析失败: %v, 内容长度=%d", err, len(cleaned))
		return err
	}
	return nil
}

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON序列化失败: %v", err)
		return ""
	}
	return string(jsonData)
}

// Truncate 截断日志输出用的长文本（按 rune）
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
