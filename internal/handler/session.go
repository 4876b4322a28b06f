package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/service/parser"
	"github.com/yoshilog/backend/internal/service/upload"
	"github.com/yoshilog/backend/internal/service/workflow"
	"k8s.io/klog/v2"
)

type SessionHandler struct {
	coordinator    *workflow.Coordinator
	maxUploadBytes int64
}

func NewSessionHandler(cfg *config.Config, coordinator *workflow.Coordinator) *SessionHandler {
	return &SessionHandler{
		coordinator:    coordinator,
		maxUploadBytes: cfg.Workflow.MaxUploadBytes,
	}
}

// YoshiRequest 指差呼称时的相机画面（data URL），为空表示未取得画面
type YoshiRequest struct {
	Image string `json:"image"`
}

// YoshiResponse 判定结果与判定后的会话
type YoshiResponse struct {
	Result  model.ValidationResult `json:"result"`
	Session workflow.Snapshot      `json:"session"`
}

func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.coordinator.Snapshot())
}

func (h *SessionHandler) Logs(c *gin.Context) {
	c.JSON(http.StatusOK, h.coordinator.WorkLog())
}

func (h *SessionHandler) LoadSample(c *gin.Context) {
	snap, err := h.coordinator.LoadSample(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Upload 接收 multipart 的 file 字段
func (h *SessionHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large: %d bytes", fileHeader.Size)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	klog.V(6).Infof("[SessionHandler.Upload] 收到上传: name=%s, size=%d, mime=%s",
		fileHeader.Filename, len(data), fileHeader.Header.Get("Content-Type"))
	snap, err := h.coordinator.UploadFile(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) Start(c *gin.Context) {
	snap, err := h.coordinator.StartWork(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) Yoshi(c *gin.Context) {
	var req YoshiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.coordinator.Yoshi(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, YoshiResponse{Result: result, Session: h.coordinator.Snapshot()})
}

func (h *SessionHandler) DemoOK(c *gin.Context) {
	result, err := h.coordinator.DemoOK(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, YoshiResponse{Result: result, Session: h.coordinator.Snapshot()})
}

func (h *SessionHandler) Restart(c *gin.Context) {
	snap, err := h.coordinator.Restart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// respondError 把会话错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrGuardRejected):
		status = http.StatusConflict
	case errors.Is(err, parser.ErrParseFailed),
		errors.Is(err, workflow.ErrInvalidProcedure),
		errors.Is(err, workflow.ErrFrameUnavailable),
		errors.Is(err, upload.ErrUnreadableUpload),
		errors.Is(err, upload.ErrUnsupportedUpload):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		klog.Errorf("[handler.respondError] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
