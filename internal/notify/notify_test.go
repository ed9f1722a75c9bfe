package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenably/internal/entity"
)

func TestBroadcasterFansOut(t *testing.T) {
	b := NewBroadcaster(Params{Logger: zap.NewNop()})

	first := b.Subscribe()
	second := b.Subscribe()

	b.ExecutionCompleted(entity.ExecutionEvent{ExecutionID: "exec-1", Status: entity.ExecutionSuccess})

	for _, ch := range []<-chan entity.ExecutionEvent{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, "exec-1", event.ExecutionID)
		default:
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroadcasterDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroadcaster(Params{Logger: zap.NewNop()})

	ch := b.Subscribe()
	for i := 0; i < 20; i++ {
		b.ExecutionCompleted(entity.ExecutionEvent{ExecutionID: "exec-1"})
	}

	require.Len(t, ch, 16)
}
