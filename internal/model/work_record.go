package model

import (
	"encoding/json"
	"time"
)

// WorkRecord 已完成作业的归档记录
// 只在会话进入 completed 时写入一次，不用于恢复会话
type WorkRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ProcedureID    string    `json:"procedure_id" gorm:"size:64;index;not null"`
	ProcedureTitle string    `json:"procedure_title" gorm:"size:255"`
	StepCount      int       `json:"step_count"`
	AttemptCount   int       `json:"attempt_count"`
	NGCount        int       `json:"ng_count"`
	Logs           string    `json:"-" gorm:"type:text"` // []WorkLog 的 JSON
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (WorkRecord) TableName() string {
	return "work_records"
}

// NewWorkRecord 根据手顺与判定记录生成归档
func NewWorkRecord(proc *Procedure, logs []WorkLog, startedAt, completedAt time.Time) (*WorkRecord, error) {
	data, err := json.Marshal(logs)
	if err != nil {
		return nil, err
	}
	ng := 0
	for _, l := range logs {
		if !l.Result.IsOK {
			ng++
		}
	}
	return &WorkRecord{
		ProcedureID:    proc.ID,
		ProcedureTitle: proc.Title,
		StepCount:      len(proc.Steps),
		AttemptCount:   len(logs),
		NGCount:        ng,
		Logs:           string(data),
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
	}, nil
}

// DecodeLogs 解析归档中的判定记录
func (r *WorkRecord) DecodeLogs() ([]WorkLog, error) {
	var logs []WorkLog
	if r.Logs == "" {
		return logs, nil
	}
	if err := json.Unmarshal([]byte(r.Logs), &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
