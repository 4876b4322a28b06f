package workflow

import (
	"time"

	"github.com/yoshilog/backend/internal/model"
)

// Event 驱动会话迁移的输入
type Event interface {
	Name() string
}

// UploadStarted 开始解析上传的手顺书
type UploadStarted struct{}

// ProcedureLoaded 手顺书已就绪（解析成功或内置示例）
type ProcedureLoaded struct {
	Procedure *model.Procedure
	Sample    bool
}

type ParseFailed struct {
	Err error
}

type StartWork struct {
	At time.Time
}

// ValidationStarted 用户喊出“よし”，开始判定当前步骤
type ValidationStarted struct{}

type ValidationResolved struct {
	Result model.ValidationResult
	At     time.Time
}

// FeedbackCleared 反馈展示结束，Seq 与 ScheduleClear 对应
type FeedbackCleared struct {
	Seq uint64
	At  time.Time
}

type Restart struct{}

func (UploadStarted) Name() string      { return "upload_started" }
func (ProcedureLoaded) Name() string    { return "procedure_loaded" }
func (ParseFailed) Name() string        { return "parse_failed" }
func (StartWork) Name() string          { return "start_work" }
func (ValidationStarted) Name() string  { return "validation_started" }
func (ValidationResolved) Name() string { return "validation_resolved" }
func (FeedbackCleared) Name() string    { return "feedback_cleared" }
func (Restart) Name() string            { return "restart" }

// Effect 迁移产生的副作用，由 Coordinator 在锁外执行
type Effect interface {
	isEffect()
}

// Speak 播报语音
type Speak struct {
	Text string
}

// ScheduleClear 在 After 之后投递 FeedbackCleared{Seq}
type ScheduleClear struct {
	After time.Duration
	Seq   uint64
}

// Alert 需要用户确认的错误提示
type Alert struct {
	Message string
}

// Archive 归档已完成的会话
type Archive struct {
	Procedure   *model.Procedure
	WorkLog     []model.WorkLog
	StartedAt   time.Time
	CompletedAt time.Time
}

func (Speak) isEffect()         {}
func (ScheduleClear) isEffect() {}
func (Alert) isEffect()         {}
func (Archive) isEffect()       {}
