package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/eventbus"
	"github.com/yoshilog/backend/internal/metrics"
	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/service/speech"
	"github.com/yoshilog/backend/internal/service/upload"
	"k8s.io/klog/v2"
)

// ErrFrameUnavailable 没有拿到相机画面，不记录也不迁移
var ErrFrameUnavailable = errors.New("camera frame unavailable")

// ProcedureParser 手顺书解析
type ProcedureParser interface {
	ParseFromImage(ctx context.Context, imageDataURL string) (*model.Procedure, error)
	ParseFromText(ctx context.Context, text string) (*model.Procedure, error)
}

// StepValidator 步骤判定，永远返回结果
type StepValidator interface {
	Validate(ctx context.Context, image string, step model.Step, candidateNextStepID string) model.ValidationResult
}

type Speaker interface {
	Speak(ctx context.Context, text string) *speech.Utterance
}

// RecordArchiver 归档已完成的会话
type RecordArchiver interface {
	Create(record *model.WorkRecord) error
}

// AlertPayload 推送给客户端的错误提示
type AlertPayload struct {
	Message string `json:"message"`
}

// Coordinator 会话的唯一持有者，串行化所有事件并在锁外执行副作用
type Coordinator struct {
	mu sync.Mutex
	// emitMu 保证快照与副作用按事件应用的顺序推送
	emitMu   sync.Mutex
	session  Session
	machine  *Machine
	parser   ProcedureParser
	checker  StepValidator
	speaker  Speaker
	archiver RecordArchiver
	bus      *eventbus.SessionEventBus
	clock    Clock
}

// NewCoordinator 创建会话协调器，speaker/archiver/bus 可以为 nil
func NewCoordinator(cfg *config.Config, parser ProcedureParser, checker StepValidator, speaker Speaker, archiver RecordArchiver, bus *eventbus.SessionEventBus) *Coordinator {
	return &Coordinator{
		session:  NewSession(),
		machine:  NewMachine(cfg.Workflow.FeedbackDuration),
		parser:   parser,
		checker:  checker,
		speaker:  speaker,
		archiver: archiver,
		bus:      bus,
		clock:    realClock{},
	}
}

// Snapshot 当前会话状态
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// WorkLog 当前会话的判定记录
func (c *Coordinator) WorkLog() []model.WorkLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.WorkLog{}, c.session.WorkLog...)
}

// LoadSample 载入内置示例手顺
func (c *Coordinator) LoadSample(ctx context.Context) (Snapshot, error) {
	s, err := c.dispatch(ctx, ProcedureLoaded{Procedure: model.SampleProcedure(), Sample: true})
	return s.Snapshot(), err
}

// UploadFile 分类上传文件后解析，阶段检查先于文件检查
func (c *Coordinator) UploadFile(ctx context.Context, filename, declaredMIME string, data []byte) (Snapshot, error) {
	c.mu.Lock()
	err := c.machine.CanStartUpload(c.session)
	c.mu.Unlock()
	if err != nil {
		metrics.IncWorkflowEvent(UploadStarted{}.Name(), false)
		return c.Snapshot(), err
	}

	payload, err := upload.Classify(filename, declaredMIME, data)
	if err != nil {
		klog.Warningf("[Coordinator.UploadFile] 无法读取上传文件: name=%s, error=%v", filename, err)
		if errors.Is(err, upload.ErrUnsupportedUpload) {
			c.alert(ctx, AlertUnsupportedFile)
		} else {
			c.alert(ctx, AlertFileRead)
		}
		return c.Snapshot(), err
	}
	return c.Upload(ctx, payload)
}

// Upload 解析手顺书，模型调用期间不持有锁
func (c *Coordinator) Upload(ctx context.Context, payload upload.Payload) (Snapshot, error) {
	if _, err := c.dispatch(ctx, UploadStarted{}); err != nil {
		return c.Snapshot(), err
	}

	// 调用一旦发出就必须有结果落地，不随请求取消
	callCtx := context.WithoutCancel(ctx)
	var (
		proc *model.Procedure
		err  error
	)
	if payload.Kind == upload.KindText {
		proc, err = c.parser.ParseFromText(callCtx, payload.Text)
	} else {
		proc, err = c.parser.ParseFromImage(callCtx, payload.DataURL)
	}
	if err == nil {
		err = ValidateProcedure(proc)
	}
	if err != nil {
		klog.Errorf("[Coordinator.Upload] 手顺书解析失败: name=%s, error=%v", payload.Name, err)
		if _, derr := c.dispatch(ctx, ParseFailed{Err: err}); derr != nil {
			klog.Warningf("[Coordinator.Upload] 解析失败事件被拒绝: %v", derr)
		}
		return c.Snapshot(), err
	}

	s, err := c.dispatch(ctx, ProcedureLoaded{Procedure: proc})
	return s.Snapshot(), err
}

// StartWork 确认手顺后开始作业
func (c *Coordinator) StartWork(ctx context.Context) (Snapshot, error) {
	s, err := c.dispatch(ctx, StartWork{At: c.clock.Now()})
	return s.Snapshot(), err
}

// Yoshi 用户喊出“よし”：用当前画面判定当前步骤
func (c *Coordinator) Yoshi(ctx context.Context, frame string) (model.ValidationResult, error) {
	c.mu.Lock()
	err := c.machine.CanStartValidation(c.session)
	c.mu.Unlock()
	if err != nil {
		metrics.IncWorkflowEvent(ValidationStarted{}.Name(), false)
		return model.ValidationResult{}, err
	}
	if frame == "" {
		klog.Warningf("[Coordinator.Yoshi] 未获取到相机画面")
		c.alert(ctx, AlertCameraError)
		return model.ValidationResult{}, ErrFrameUnavailable
	}

	s, err := c.dispatch(ctx, ValidationStarted{})
	if err != nil {
		return model.ValidationResult{}, err
	}
	step := *s.CurrentStep()
	result := c.checker.Validate(context.WithoutCancel(ctx), frame, step, s.CandidateNextStepID())
	return c.resolve(ctx, result)
}

// DemoOK 跳过模型，直接按判定 OK 处理当前步骤
func (c *Coordinator) DemoOK(ctx context.Context) (model.ValidationResult, error) {
	s, err := c.dispatch(ctx, ValidationStarted{})
	if err != nil {
		return model.ValidationResult{}, err
	}
	step := s.CurrentStep()
	next := s.CandidateNextStepID()
	tail := "次に進みます。"
	if next == model.StepCompleted {
		tail = "全作業完了です。"
	}
	return c.resolve(ctx, model.ValidationResult{
		IsOK:       true,
		Message:    fmt.Sprintf("よし！%s、確認OK。%s", step.Title, tail),
		NextStepID: next,
		Reason:     "デモモード",
	})
}

func (c *Coordinator) resolve(ctx context.Context, result model.ValidationResult) (model.ValidationResult, error) {
	s, err := c.dispatch(ctx, ValidationResolved{Result: result, At: c.clock.Now()})
	if err != nil {
		return model.ValidationResult{}, err
	}
	return s.WorkLog[len(s.WorkLog)-1].Result, nil
}

// Restart 完成后回到上传页
func (c *Coordinator) Restart(ctx context.Context) (Snapshot, error) {
	s, err := c.dispatch(ctx, Restart{})
	return s.Snapshot(), err
}

// dispatch 在锁内应用事件，锁外执行副作用并推送快照
func (c *Coordinator) dispatch(ctx context.Context, e Event) (Session, error) {
	c.mu.Lock()
	next, effects, err := c.machine.Apply(c.session, e)
	if err != nil {
		current := c.session
		c.mu.Unlock()
		klog.V(6).Infof("[Coordinator.dispatch] 事件被拒绝: event=%s, phase=%s, error=%v", e.Name(), current.Phase, err)
		metrics.IncWorkflowEvent(e.Name(), false)
		return current, err
	}
	c.session = next
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	klog.V(6).Infof("[Coordinator.dispatch] 事件已应用: event=%s, phase=%s, stepIndex=%d, version=%d",
		e.Name(), next.Phase, next.StepIndex, next.Version)
	metrics.IncWorkflowEvent(e.Name(), true)

	c.publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventSnapshot, Payload: next.Snapshot()})
	c.runEffects(ctx, effects)
	return next, nil
}

// alert 推送不伴随状态变化的错误提示
func (c *Coordinator) alert(ctx context.Context, message string) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.runEffects(ctx, []Effect{Alert{Message: message}})
}

// runEffects 调用方必须持有 emitMu；ScheduleClear 的回调异步执行
func (c *Coordinator) runEffects(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		switch ef := effect.(type) {
		case Speak:
			if c.speaker != nil {
				c.speaker.Speak(ctx, ef.Text)
			}
		case Alert:
			c.publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventAlert, Payload: AlertPayload{Message: ef.Message}})
		case ScheduleClear:
			seq := ef.Seq
			c.clock.AfterFunc(ef.After, func() {
				if _, err := c.dispatch(context.Background(), FeedbackCleared{Seq: seq, At: c.clock.Now()}); err != nil {
					klog.V(6).Infof("[Coordinator.runEffects] 反馈清除被忽略: seq=%d, error=%v", seq, err)
				}
			})
		case Archive:
			c.archive(ef)
		}
	}
}

func (c *Coordinator) archive(a Archive) {
	metrics.IncCompletedSessions()
	if c.archiver == nil {
		return
	}
	record, err := model.NewWorkRecord(a.Procedure, a.WorkLog, a.StartedAt, a.CompletedAt)
	if err != nil {
		klog.Errorf("[Coordinator.archive] 生成作业记录失败: procedureID=%s, error=%v", a.Procedure.ID, err)
		return
	}
	if err := c.archiver.Create(record); err != nil {
		klog.Errorf("[Coordinator.archive] 保存作业记录失败: procedureID=%s, error=%v", a.Procedure.ID, err)
		return
	}
	klog.V(6).Infof("[Coordinator.archive] 作业记录已保存: id=%d, procedureID=%s, attempts=%d", record.ID, record.ProcedureID, record.AttemptCount)
}

func (c *Coordinator) publish(ctx context.Context, event eventbus.SessionEvent) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(ctx, event); err != nil {
		klog.Warningf("[Coordinator.publish] 推送会话事件失败: type=%s, error=%v", event.Type, err)
	}
}
