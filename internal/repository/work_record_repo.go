package repository

import (
	"errors"

	"github.com/yoshilog/backend/internal/model"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type workRecordRepository struct {
	db *gorm.DB
}

func NewWorkRecordRepository(db *gorm.DB) WorkRecordRepository {
	return &workRecordRepository{db: db}
}

func (r *workRecordRepository) Create(record *model.WorkRecord) error {
	return r.db.Create(record).Error
}

// List 按完成时间倒序，limit<=0 时使用默认值
func (r *workRecordRepository) List(limit int) ([]model.WorkRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var records []model.WorkRecord
	err := r.db.Order("completed_at DESC, id DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (r *workRecordRepository) Get(id uint) (*model.WorkRecord, error) {
	var record model.WorkRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *workRecordRepository) ListByProcedure(procedureID string) ([]model.WorkRecord, error) {
	var records []model.WorkRecord
	err := r.db.Where("procedure_id = ?", procedureID).Order("completed_at DESC, id DESC").Find(&records).Error
	return records, err
}
