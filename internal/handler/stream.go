package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yoshilog/backend/internal/eventbus"
	"github.com/yoshilog/backend/internal/service/workflow"
	"k8s.io/klog/v2"
)

const (
	streamBuffer     = 32
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

// StreamHandler 通过 WebSocket 推送会话快照、语音与错误提示
type StreamHandler struct {
	coordinator *workflow.Coordinator
	bus         *eventbus.SessionEventBus
	upgrader    websocket.Upgrader
}

func NewStreamHandler(coordinator *workflow.Coordinator, bus *eventbus.SessionEventBus) *StreamHandler {
	return &StreamHandler{
		coordinator: coordinator,
		bus:         bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *StreamHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		klog.Warningf("[StreamHandler.Serve] WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	events := make(chan eventbus.SessionEvent, streamBuffer)
	// 慢客户端丢弃事件，不阻塞会话
	unsubscribe := h.bus.SubscribeAll(eventbus.AllSessionEventTypes, func(ctx context.Context, event eventbus.SessionEvent) error {
		select {
		case events <- event:
		default:
			klog.V(6).Infof("[StreamHandler.Serve] 推送队列已满，丢弃事件: type=%s", event.Type)
		}
		return nil
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	klog.V(6).Infof("[StreamHandler.Serve] 客户端已连接: remote=%s", c.Request.RemoteAddr)
	initial := eventbus.SessionEvent{Type: eventbus.SessionEventSnapshot, Payload: h.coordinator.Snapshot()}
	if err := writeEvent(conn, initial); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			klog.V(6).Infof("[StreamHandler.Serve] 客户端已断开: remote=%s", c.Request.RemoteAddr)
			return
		case event := <-events:
			if err := writeEvent(conn, event); err != nil {
				klog.V(6).Infof("[StreamHandler.Serve] 写入失败: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event eventbus.SessionEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
