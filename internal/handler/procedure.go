package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoshilog/backend/internal/model"
)

type ProcedureHandler struct{}

func NewProcedureHandler() *ProcedureHandler {
	return &ProcedureHandler{}
}

// Sample 内置示例手顺
func (h *ProcedureHandler) Sample(c *gin.Context) {
	c.JSON(http.StatusOK, model.SampleProcedure())
}
