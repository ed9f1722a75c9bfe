package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenably/internal/entity"
)

func TestMemoryStoresLatestUpdate(t *testing.T) {
	m := NewMemory(Params{Logger: zap.NewNop()})

	_, ok := m.Execution("exec-1")
	assert.False(t, ok)

	require.NoError(t, m.UpdateExecution(context.Background(), "exec-1", entity.ExecutionUpdate{
		Status: entity.ExecutionFailure,
		Result: `{"exitCode":1}`,
	}))
	require.NoError(t, m.UpdateExecution(context.Background(), "exec-1", entity.ExecutionUpdate{
		Status:      entity.ExecutionSuccess,
		Result:      `{"exitCode":0}`,
		CompletedAt: time.Now(),
	}))

	update, ok := m.Execution("exec-1")
	require.True(t, ok)
	assert.Equal(t, entity.ExecutionSuccess, update.Status)
	assert.Contains(t, update.Result, `"exitCode":0`)
}
