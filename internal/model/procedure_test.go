package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSteps() *Procedure {
	return &Procedure{
		ID:    "p",
		Title: "t",
		Steps: []Step{
			{ID: "a", Title: "A", DangerPoints: []string{"x"}},
			{ID: "b", Title: "B", DangerPoints: []string{}},
		},
	}
}

func TestProcedureNextStepID(t *testing.T) {
	p := twoSteps()

	assert.Equal(t, "b", p.NextStepID(0))
	assert.Equal(t, StepCompleted, p.NextStepID(1))
	assert.Nil(t, p.StepAt(2))
	assert.Nil(t, (*Procedure)(nil).StepAt(0))
}

func TestProcedureCloneIsDeep(t *testing.T) {
	p := twoSteps()
	c := p.Clone()
	c.Steps[0].DangerPoints[0] = "changed"
	c.Steps[1].Title = "changed"

	assert.Equal(t, "x", p.Steps[0].DangerPoints[0])
	assert.Equal(t, "B", p.Steps[1].Title)
}

func TestNewWorkRecordCountsNG(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	logs := []WorkLog{
		{StepID: "a", StepTitle: "A", Timestamp: now, Result: ValidationResult{IsOK: false, Message: "NG"}},
		{StepID: "a", StepTitle: "A", Timestamp: now, Result: ValidationResult{IsOK: true, Message: "OK", NextStepID: "b"}},
	}

	rec, err := NewWorkRecord(twoSteps(), logs, now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.StepCount)
	assert.Equal(t, 2, rec.AttemptCount)
	assert.Equal(t, 1, rec.NGCount)

	decoded, err := rec.DecodeLogs()
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "b", decoded[1].Result.NextStepID)
	assert.True(t, decoded[1].Timestamp.Equal(now))
}
