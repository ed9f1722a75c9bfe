package store

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/entity"
	"scenably/pkg/logg"
)

const storeName = "ResultStore"

// Memory is the default execution-result store. The scheduler UI owns
// the durable record; this keeps the orchestrators runnable standalone
// and queryable from the console.
type Memory struct {
	mu      sync.Mutex
	records map[string]entity.ExecutionUpdate
	logger  *zap.Logger
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewMemory(params Params) *Memory {
	return &Memory{
		records: make(map[string]entity.ExecutionUpdate),
		logger:  params.Logger.With(zap.String(logg.Layer, storeName)),
	}
}

func (m *Memory) UpdateExecution(ctx context.Context, executionID string, update entity.ExecutionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[executionID] = update
	m.logger.Debug("Execution recorded",
		zap.String(logg.ExecutionID, executionID),
		zap.String("status", string(update.Status)))

	return nil
}

func (m *Memory) Execution(executionID string) (entity.ExecutionUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	update, ok := m.records[executionID]

	return update, ok
}
