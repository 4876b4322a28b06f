package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/service/statemachine"
)

const (
	MsgProcedureLoaded = "手順書を読み込みました。内容を確認してください。"
	MsgSampleLoaded    = "サンプル手順書を読み込みました。内容を確認してください。"
	MsgWorkStarted     = "作業を開始します。安全第一でお願いします。"
	MsgAllCompleted    = "全作業完了です。お疲れ様でした。"

	AlertParseFailed = "手順書の解析に失敗しました。"
	AlertCameraError = "カメラエラー: 画像を取得できませんでした"
	AlertFileRead    = "ファイルの読み込みに失敗しました"

	// AlertUnsupportedFile 文本与图片以外的文件
	AlertUnsupportedFile = "対応していないファイル形式です。テキストか画像を選択してください。"
)

var (
	// ErrGuardRejected 当前状态不接受该事件，会话保持不变
	ErrGuardRejected = errors.New("event rejected in current state")
	// ErrInvalidProcedure 手顺没有步骤或步骤 ID 重复
	ErrInvalidProcedure = errors.New("invalid procedure")
)

// InvalidTransitionError 被拒绝的事件
type InvalidTransitionError struct {
	Event  string
	Phase  statemachine.Phase
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %s rejected in phase %s: %s", e.Event, e.Phase, e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrGuardRejected
}

// Machine 纯粹的迁移函数，不持有会话
type Machine struct {
	phases           *statemachine.PhaseStateMachine
	feedbackDuration time.Duration
}

func NewMachine(feedbackDuration time.Duration) *Machine {
	return &Machine{
		phases:           statemachine.NewPhaseStateMachine(),
		feedbackDuration: feedbackDuration,
	}
}

// Apply 计算事件作用后的新会话与副作用
// 返回错误时会话原样返回，调用方视为 no-op
func (m *Machine) Apply(s Session, e Event) (Session, []Effect, error) {
	var (
		next    Session
		effects []Effect
		err     error
	)
	switch ev := e.(type) {
	case UploadStarted:
		next, effects, err = m.uploadStarted(s, ev)
	case ProcedureLoaded:
		next, effects, err = m.procedureLoaded(s, ev)
	case ParseFailed:
		next, effects, err = m.parseFailed(s, ev)
	case StartWork:
		next, effects, err = m.startWork(s, ev)
	case ValidationStarted:
		next, effects, err = m.validationStarted(s, ev)
	case ValidationResolved:
		next, effects, err = m.validationResolved(s, ev)
	case FeedbackCleared:
		next, effects, err = m.feedbackCleared(s, ev)
	case Restart:
		next, effects, err = m.restart(s, ev)
	default:
		return s, nil, fmt.Errorf("unknown workflow event %T", e)
	}
	if err != nil {
		return s, nil, err
	}
	next.Version = s.Version + 1
	return next, effects, nil
}

// CanStartValidation 判断当前是否可以开始一次判定
func (m *Machine) CanStartValidation(s Session) error {
	_, _, err := m.validationStarted(s, ValidationStarted{})
	return err
}

// CanStartUpload 判断当前是否可以开始解析上传的手顺书
func (m *Machine) CanStartUpload(s Session) error {
	_, _, err := m.uploadStarted(s, UploadStarted{})
	return err
}

func reject(s Session, e Event, reason string) error {
	return &InvalidTransitionError{Event: e.Name(), Phase: s.Phase, Reason: reason}
}

func (m *Machine) moveTo(s Session, e Event, to statemachine.Phase) error {
	procedureID := ""
	if s.Procedure != nil {
		procedureID = s.Procedure.ID
	}
	if err := m.phases.Transition(s.Phase, to, procedureID); err != nil {
		return fmt.Errorf("%w: %w", reject(s, e, "phase change not allowed"), err)
	}
	return nil
}

func (m *Machine) uploadStarted(s Session, e UploadStarted) (Session, []Effect, error) {
	if s.Phase != statemachine.PhaseUpload {
		return s, nil, reject(s, e, "not on upload page")
	}
	if s.InFlight {
		return s, nil, reject(s, e, "parse already in flight")
	}
	s.InFlight = true
	return s, nil, nil
}

func (m *Machine) procedureLoaded(s Session, e ProcedureLoaded) (Session, []Effect, error) {
	if s.Phase != statemachine.PhaseUpload {
		return s, nil, reject(s, e, "not on upload page")
	}
	// 示例手顺不能与进行中的解析并存；解析结果必须对应一次进行中的解析
	if e.Sample && s.InFlight {
		return s, nil, reject(s, e, "parse in flight")
	}
	if !e.Sample && !s.InFlight {
		return s, nil, reject(s, e, "no parse in flight")
	}
	if err := ValidateProcedure(e.Procedure); err != nil {
		return s, nil, err
	}
	if err := m.moveTo(s, e, statemachine.PhaseConfirmation); err != nil {
		return s, nil, err
	}

	s.Phase = statemachine.PhaseConfirmation
	s.Procedure = e.Procedure.Clone()
	s.StepIndex = 0
	s.WorkLog = nil
	s.InFlight = false
	msg := MsgProcedureLoaded
	if e.Sample {
		msg = MsgSampleLoaded
	}
	return s, []Effect{Speak{Text: msg}}, nil
}

func (m *Machine) parseFailed(s Session, e ParseFailed) (Session, []Effect, error) {
	if s.Phase != statemachine.PhaseUpload || !s.InFlight {
		return s, nil, reject(s, e, "no parse in flight")
	}
	s.InFlight = false
	return s, []Effect{Alert{Message: AlertParseFailed}}, nil
}

func (m *Machine) startWork(s Session, e StartWork) (Session, []Effect, error) {
	if s.Phase != statemachine.PhaseConfirmation {
		return s, nil, reject(s, e, "procedure not confirmed")
	}
	if err := m.moveTo(s, e, statemachine.PhaseWorking); err != nil {
		return s, nil, err
	}
	s.Phase = statemachine.PhaseWorking
	s.StepIndex = 0
	s.StartedAt = e.At
	return s, []Effect{Speak{Text: MsgWorkStarted}}, nil
}

func (m *Machine) validationStarted(s Session, e ValidationStarted) (Session, []Effect, error) {
	switch {
	case s.Phase != statemachine.PhaseWorking:
		return s, nil, reject(s, e, "not working")
	case s.InFlight:
		return s, nil, reject(s, e, "validation already in flight")
	case s.FeedbackVisible:
		return s, nil, reject(s, e, "feedback still visible")
	case s.CurrentStep() == nil:
		return s, nil, reject(s, e, "no active step")
	}
	s.InFlight = true
	return s, nil, nil
}

func (m *Machine) validationResolved(s Session, e ValidationResolved) (Session, []Effect, error) {
	if s.Phase != statemachine.PhaseWorking || !s.InFlight {
		return s, nil, reject(s, e, "no validation in flight")
	}
	step := s.CurrentStep()
	if step == nil {
		return s, nil, reject(s, e, "no active step")
	}

	result := e.Result
	if result.IsOK {
		result.NextStepID = s.CandidateNextStepID()
	} else {
		result.NextStepID = ""
	}

	log := make([]model.WorkLog, len(s.WorkLog), len(s.WorkLog)+1)
	copy(log, s.WorkLog)
	s.WorkLog = append(log, model.WorkLog{
		StepID:    step.ID,
		StepTitle: step.Title,
		Timestamp: e.At,
		Result:    result,
	})
	s.InFlight = false
	s.FeedbackVisible = true
	s.Feedback = &result
	s.FeedbackSeq++

	return s, []Effect{
		Speak{Text: result.Message},
		ScheduleClear{After: m.feedbackDuration, Seq: s.FeedbackSeq},
	}, nil
}

// feedbackCleared 反馈消失时才真正前进或完成
func (m *Machine) feedbackCleared(s Session, e FeedbackCleared) (Session, []Effect, error) {
	if s.Phase != statemachine.PhaseWorking || !s.FeedbackVisible {
		return s, nil, reject(s, e, "no feedback visible")
	}
	if e.Seq != s.FeedbackSeq {
		return s, nil, reject(s, e, "stale feedback timer")
	}

	result := s.Feedback
	s.FeedbackVisible = false
	s.Feedback = nil
	if result == nil || !result.IsOK {
		return s, nil, nil
	}

	if result.NextStepID != model.StepCompleted {
		s.StepIndex++
		return s, nil, nil
	}

	if err := m.moveTo(s, e, statemachine.PhaseCompleted); err != nil {
		return s, nil, err
	}
	s.Phase = statemachine.PhaseCompleted
	s.CompletedAt = e.At
	return s, []Effect{
		Speak{Text: MsgAllCompleted},
		Archive{
			Procedure:   s.Procedure,
			WorkLog:     append([]model.WorkLog{}, s.WorkLog...),
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
		},
	}, nil
}

func (m *Machine) restart(s Session, e Restart) (Session, []Effect, error) {
	if !statemachine.IsTerminal(s.Phase) {
		return s, nil, reject(s, e, "session not completed")
	}
	if err := m.moveTo(s, e, statemachine.PhaseUpload); err != nil {
		return s, nil, err
	}
	fresh := NewSession()
	fresh.FeedbackSeq = s.FeedbackSeq
	return fresh, nil, nil
}

// ValidateProcedure 检查手顺是否可以开始作业
func ValidateProcedure(p *model.Procedure) error {
	if p == nil || len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidProcedure)
	}
	seen := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if seen[step.ID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidProcedure, step.ID)
		}
		seen[step.ID] = true
	}
	return nil
}
