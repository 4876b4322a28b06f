package workflow

import (
	"time"

	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/service/statemachine"
)

// Session 一次作业会话的全部状态，由 Coordinator 独占
// Procedure 创建后不可修改，因此可以在副本之间共享
type Session struct {
	Phase           statemachine.Phase
	Procedure       *model.Procedure
	StepIndex       int
	WorkLog         []model.WorkLog
	InFlight        bool // 有未返回的解析或判定调用
	FeedbackVisible bool
	Feedback        *model.ValidationResult
	FeedbackSeq     uint64
	Version         uint64 // 每个被接受的事件加一
	StartedAt       time.Time
	CompletedAt     time.Time
}

// NewSession 初始会话：上传页，无手顺
func NewSession() Session {
	return Session{Phase: statemachine.PhaseUpload}
}

// CurrentStep 当前步骤，仅 working 阶段存在
func (s Session) CurrentStep() *model.Step {
	if s.Phase != statemachine.PhaseWorking {
		return nil
	}
	return s.Procedure.StepAt(s.StepIndex)
}

// CandidateNextStepID 当前步骤判定 OK 后应前进到的步骤
func (s Session) CandidateNextStepID() string {
	return s.Procedure.NextStepID(s.StepIndex)
}

func (s Session) TotalSteps() int {
	if !statemachine.HasProcedure(s.Phase) || s.Procedure == nil {
		return 0
	}
	return len(s.Procedure.Steps)
}

// Snapshot 对外展示的会话状态
type Snapshot struct {
	Version         uint64                  `json:"version"`
	Phase           statemachine.Phase      `json:"phase"`
	Procedure       *model.Procedure        `json:"procedure,omitempty"`
	StepIndex       int                     `json:"stepIndex"`
	TotalSteps      int                     `json:"totalSteps"`
	CurrentStep     *model.Step             `json:"currentStep,omitempty"`
	InFlight        bool                    `json:"inFlight"`
	FeedbackVisible bool                    `json:"feedbackVisible"`
	Feedback        *model.ValidationResult `json:"feedback,omitempty"`
	WorkLog         []model.WorkLog         `json:"workLog"`
	StartedAt       *time.Time              `json:"startedAt,omitempty"`
	CompletedAt     *time.Time              `json:"completedAt,omitempty"`
}

func (s Session) Snapshot() Snapshot {
	snap := Snapshot{
		Version:         s.Version,
		Phase:           s.Phase,
		StepIndex:       s.StepIndex,
		TotalSteps:      s.TotalSteps(),
		InFlight:        s.InFlight,
		FeedbackVisible: s.FeedbackVisible,
		WorkLog:         append([]model.WorkLog{}, s.WorkLog...),
	}
	if statemachine.HasProcedure(s.Phase) {
		snap.Procedure = s.Procedure.Clone()
	}
	if step := s.CurrentStep(); step != nil {
		cp := *step
		cp.DangerPoints = append([]string{}, step.DangerPoints...)
		snap.CurrentStep = &cp
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		snap.Feedback = &fb
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		snap.StartedAt = &t
	}
	if !s.CompletedAt.IsZero() {
		t := s.CompletedAt
		snap.CompletedAt = &t
	}
	return snap
}
