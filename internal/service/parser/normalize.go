package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/yoshilog/backend/internal/model"
)

const (
	defaultProcedureTitle = "名称未設定の手順書"
	defaultExpectedObject = "Target Object"
)

var (
	ErrNotAnObject = errors.New("reply is not a JSON object")
	ErrNoSteps     = errors.New("reply contains no steps")
)

// Normalize 将模型返回的松散 JSON 转为严格的 Procedure
// 缺失或为假值的字段按固定规则补默认值，不会因为字段类型不对而整体失败；
// 只有顶层不是对象、steps 不是非空数组时返回错误
func Normalize(parsed any, procedureID string) (*model.Procedure, error) {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	rawSteps, ok := obj["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return nil, ErrNoSteps
	}

	proc := &model.Procedure{
		ID:    procedureID,
		Title: textOr(obj["title"], defaultProcedureTitle),
		Steps: make([]model.Step, 0, len(rawSteps)),
	}

	seen := make(map[string]bool, len(rawSteps))
	for i, raw := range rawSteps {
		n := i + 1
		s, _ := raw.(map[string]any)

		id := textOr(s["id"], fmt.Sprintf("step-%d", n))
		if seen[id] {
			id = uniqueID(fmt.Sprintf("step-%d", n), seen)
		}
		seen[id] = true

		proc.Steps = append(proc.Steps, model.Step{
			ID:             id,
			Title:          textOr(s["title"], fmt.Sprintf("Step %d", n)),
			Description:    textOr(s["description"], ""),
			DangerPoints:   stringList(s["dangerPoints"]),
			ExpectedObject: textOr(s["expectedObject"], defaultExpectedObject),
		})
	}
	return proc, nil
}

// textOr 取字符串值；缺失、空串、0、false、null 以及对象/数组都视为缺失
func textOr(v any, fallback string) string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		if t != 0 && !math.IsNaN(t) {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	case bool:
		if t {
			return "true"
		}
	}
	return fallback
}

// stringList 只接受数组，保留其中的字符串元素，其余情况返回空列表
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func uniqueID(base string, seen map[string]bool) string {
	if !seen[base] {
		return base
	}
	for k := 2; ; k++ {
		candidate := fmt.Sprintf("%s-%d", base, k)
		if !seen[candidate] {
			return candidate
		}
	}
}
