package notify

import (
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/entity"
	"scenably/pkg/logg"
)

const notifierName = "Notifier"

// Broadcaster fans execution-completed events out to subscribed
// surfaces. Delivery is best-effort with no acknowledgment: a slow
// subscriber drops events rather than blocking the orchestrator.
type Broadcaster struct {
	mu     sync.Mutex
	subs   []chan entity.ExecutionEvent
	logger *zap.Logger
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewBroadcaster(params Params) *Broadcaster {
	return &Broadcaster{
		logger: params.Logger.With(zap.String(logg.Layer, notifierName)),
	}
}

func (b *Broadcaster) Subscribe() <-chan entity.ExecutionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan entity.ExecutionEvent, 16)
	b.subs = append(b.subs, ch)

	return ch
}

func (b *Broadcaster) ExecutionCompleted(event entity.ExecutionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Info("Execution completed",
		zap.String(logg.ExecutionID, event.ExecutionID),
		zap.String("status", string(event.Status)))

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Subscriber buffer full, dropping event",
				zap.String(logg.ExecutionID, event.ExecutionID))
		}
	}
}
