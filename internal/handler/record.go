package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoshilog/backend/internal/model"
	"github.com/yoshilog/backend/internal/repository"
)

type RecordHandler struct {
	repo repository.WorkRecordRepository
}

func NewRecordHandler(repo repository.WorkRecordRepository) *RecordHandler {
	return &RecordHandler{repo: repo}
}

// RecordDetail 归档记录与解码后的判定记录
type RecordDetail struct {
	model.WorkRecord
	WorkLog []model.WorkLog `json:"work_log"`
}

// List 支持 ?limit= 与 ?procedure_id= 过滤
func (h *RecordHandler) List(c *gin.Context) {
	if procedureID := c.Query("procedure_id"); procedureID != "" {
		records, err := h.repo.ListByProcedure(procedureID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	records, err := h.repo.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *RecordHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	record, err := h.repo.Get(uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logs, err := record.DecodeLogs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, RecordDetail{WorkRecord: *record, WorkLog: logs})
}
