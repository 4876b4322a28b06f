package model

import (
	"time"
)

// StepCompleted 最后一步判定 OK 后使用的下一步 ID
const StepCompleted = "completed"

// Step 作业手顺中的一个步骤，创建后不可修改
type Step struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	DangerPoints   []string `json:"dangerPoints"`             // 危险预知（KY）要点
	ExpectedObject string   `json:"expectedObject,omitempty"` // 判定时需要确认的对象，例如 "Valve A"
}

// Procedure 作业手顺书，步骤顺序即作业顺序
type Procedure struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Steps []Step `json:"steps"`
}

// StepAt 按下标取步骤，越界返回 nil
func (p *Procedure) StepAt(index int) *Step {
	if p == nil || index < 0 || index >= len(p.Steps) {
		return nil
	}
	return &p.Steps[index]
}

// NextStepID 返回 index 之后的步骤 ID，没有后续步骤时返回 StepCompleted
func (p *Procedure) NextStepID(index int) string {
	if next := p.StepAt(index + 1); next != nil {
		return next.ID
	}
	return StepCompleted
}

// Clone 深拷贝，避免调用方修改会话内部的手顺
func (p *Procedure) Clone() *Procedure {
	if p == nil {
		return nil
	}
	out := &Procedure{ID: p.ID, Title: p.Title, Steps: make([]Step, len(p.Steps))}
	for i, s := range p.Steps {
		s.DangerPoints = append([]string{}, s.DangerPoints...)
		out.Steps[i] = s
	}
	return out
}

// ValidationResult 一次拍照判定的结果
type ValidationResult struct {
	IsOK       bool   `json:"isOk"`
	Message    string `json:"message"` // 语音播报用
	NextStepID string `json:"nextStepId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// WorkLog 判定记录，每次尝试一条（包括 NG 后重试的尝试）
type WorkLog struct {
	StepID    string           `json:"stepId"`
	StepTitle string           `json:"stepTitle"`
	Timestamp time.Time        `json:"timestamp"`
	Result    ValidationResult `json:"result"`
}
