package repository

import (
	"errors"

	"github.com/yoshilog/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// WorkRecordRepository 已完成作业的归档，只追加不修改
type WorkRecordRepository interface {
	Create(record *model.WorkRecord) error
	List(limit int) ([]model.WorkRecord, error)
	Get(id uint) (*model.WorkRecord, error)
	ListByProcedure(procedureID string) ([]model.WorkRecord, error)
}
