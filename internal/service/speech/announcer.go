package speech

import (
	"context"
	"sync"
	"time"

	"github.com/yoshilog/backend/internal/eventbus"
	"k8s.io/klog/v2"
)

// Lang 播报语言
const Lang = "ja-JP"

// Utterance 一次语音播报请求，客户端按 Seq 取最新的一条播放
type Utterance struct {
	Seq       uint64    `json:"seq"`
	Text      string    `json:"text"`
	Lang      string    `json:"lang"`
	Cancels   uint64    `json:"cancels,omitempty"` // 被本次播报打断的上一条
	CreatedAt time.Time `json:"createdAt"`
}

// Announcer 同一时刻只保留一条播报，新的播报会打断旧的
type Announcer struct {
	mu      sync.Mutex
	bus     *eventbus.SessionEventBus
	seq     uint64
	current *Utterance
	now     func() time.Time
}

func NewAnnouncer(bus *eventbus.SessionEventBus) *Announcer {
	return &Announcer{bus: bus, now: time.Now}
}

// Speak 播报文本，空文本忽略
func (a *Announcer) Speak(ctx context.Context, text string) *Utterance {
	if text == "" {
		return nil
	}

	a.mu.Lock()
	a.seq++
	u := &Utterance{
		Seq:       a.seq,
		Text:      text,
		Lang:      Lang,
		CreatedAt: a.now(),
	}
	if a.current != nil {
		u.Cancels = a.current.Seq
	}
	a.current = u
	a.mu.Unlock()

	klog.V(6).Infof("[Announcer.Speak] seq=%d, cancels=%d, text=%s", u.Seq, u.Cancels, text)
	if a.bus != nil {
		if err := a.bus.Publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventSpeak, Payload: *u}); err != nil {
			klog.Warningf("[Announcer.Speak] 推送播报失败: seq=%d, error=%v", u.Seq, err)
		}
	}
	return u
}

// Current 最近一次播报
func (a *Announcer) Current() *Utterance {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	u := *a.current
	return &u
}
