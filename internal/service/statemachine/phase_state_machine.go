package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Phase 作业会话所处的页面阶段
type Phase string

const (
	PhaseUpload       Phase = "upload"       // 上传/选择手顺书
	PhaseConfirmation Phase = "confirmation" // 确认解析出的步骤与危险点
	PhaseWorking      Phase = "working"      // 逐步拍照判定
	PhaseCompleted    Phase = "completed"    // 全部步骤完成，展示作业记录
)

// PhaseTransition 定义阶段迁移
type PhaseTransition struct {
	From Phase
	To   Phase
}

// PhaseStateMachine 会话阶段状态机
type PhaseStateMachine struct {
	// 定义所有合法的阶段迁移
	allowedTransitions map[PhaseTransition]bool
}

// NewPhaseStateMachine 创建新的阶段状态机
func NewPhaseStateMachine() *PhaseStateMachine {
	sm := &PhaseStateMachine{
		allowedTransitions: make(map[PhaseTransition]bool),
	}

	// upload -> confirmation -> working -> completed -> upload
	// working 内部的步骤前进与 NG 重试不是阶段迁移
	transitions := []PhaseTransition{
		{PhaseUpload, PhaseConfirmation},
		{PhaseConfirmation, PhaseWorking},
		{PhaseWorking, PhaseCompleted},

		// 只能通过显式的重新开始回到上传页
		{PhaseCompleted, PhaseUpload},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查阶段迁移是否合法
func (sm *PhaseStateMachine) CanTransition(from, to Phase) bool {
	if from == to {
		return false // 不允许状态不变
	}
	return sm.allowedTransitions[PhaseTransition{From: from, To: to}]
}

// ValidateTransition 验证阶段迁移并返回错误
func (sm *PhaseStateMachine) ValidateTransition(from, to Phase) error {
	if !sm.CanTransition(from, to) {
		return &InvalidPhaseTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition 执行阶段迁移（带日志）
func (sm *PhaseStateMachine) Transition(from, to Phase, procedureID string) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("会话阶段迁移被拒绝: procedureID=%s, %s -> %s, error=%v",
			procedureID, from, to, err)
		return err
	}

	klog.V(6).Infof("会话阶段迁移成功: procedureID=%s, %s -> %s", procedureID, from, to)
	return nil
}

// InvalidPhaseTransitionError 无效的阶段迁移错误
type InvalidPhaseTransitionError struct {
	From string
	To   string
}

func (e *InvalidPhaseTransitionError) Error() string {
	return fmt.Sprintf("invalid session phase transition: %s -> %s", e.From, e.To)
}

// IsTerminal 判断阶段是否为终止态（只能重新开始）
func IsTerminal(phase Phase) bool {
	return phase == PhaseCompleted
}

// HasProcedure 判断该阶段是否持有手顺书
func HasProcedure(phase Phase) bool {
	return phase == PhaseConfirmation || phase == PhaseWorking || phase == PhaseCompleted
}
