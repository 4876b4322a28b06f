package eventbus

type SessionEventType string

const (
	SessionEventSnapshot SessionEventType = "snapshot" // 会话状态变化
	SessionEventSpeak    SessionEventType = "speak"    // 需要播报的语音
	SessionEventAlert    SessionEventType = "alert"    // 需要用户处理的错误提示
)

// AllSessionEventTypes WebSocket 推送订阅的全部类型
var AllSessionEventTypes = []SessionEventType{
	SessionEventSnapshot,
	SessionEventSpeak,
	SessionEventAlert,
}

// SessionEvent Payload 为 JSON 可序列化的数据
type SessionEvent struct {
	Type    SessionEventType `json:"type"`
	Payload any              `json:"payload"`
}

type SessionEventHandler = Handler[SessionEvent]
type SessionEventBus = Bus[SessionEventType, SessionEvent]

func NewSessionEventBus() *SessionEventBus {
	return NewBus[SessionEventType, SessionEvent](func(e SessionEvent) SessionEventType { return e.Type })
}
