package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenably/internal/entity"
	"scenably/pkg/apperr"
)

func newSession(id string, kind entity.ActivityKind) *entity.Session {
	return &entity.Session{ID: id, Kind: kind, Status: entity.SessionStarting}
}

type stubHandle struct {
	pid int
}

func (h *stubHandle) PID() int                  { return h.pid }
func (h *stubHandle) Done() <-chan struct{}     { return nil }
func (h *stubHandle) Exit() entity.ProcessExit  { return entity.ProcessExit{} }
func (h *stubHandle) Stdout() string            { return "" }
func (h *stubHandle) Stderr() string            { return "" }
func (h *stubHandle) Terminate() error          { return nil }
func (h *stubHandle) Kill() error               { return nil }

func TestPutRejectsDuplicate(t *testing.T) {
	s := NewStore(zap.NewNop())

	require.NoError(t, s.Put(newSession("s1", entity.ActivityRecord)))

	err := s.Put(newSession("s1", entity.ActivityRecord))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeSessionActive, apperr.CodeOf(err))
	assert.Equal(t, 1, s.Len())
}

func TestIDReusableAfterRemoval(t *testing.T) {
	s := NewStore(zap.NewNop())

	require.NoError(t, s.Put(newSession("s1", entity.ActivityRecord)))
	s.Remove("s1")
	require.NoError(t, s.Put(newSession("s1", entity.ActivityRecord)))
}

func TestAttachSetsHandleAndStatus(t *testing.T) {
	s := NewStore(zap.NewNop())
	require.NoError(t, s.Put(newSession("s1", entity.ActivityExecute)))

	require.NoError(t, s.Attach("s1", &stubHandle{pid: 77}, entity.SessionRunning))

	entry, ok := s.Get("s1")
	require.True(t, ok)
	assert.Equal(t, entity.SessionRunning, entry.Session.Status)
	assert.Equal(t, 77, entry.Session.PID)
	assert.NotNil(t, entry.Handle)
}

func TestAttachMissingSession(t *testing.T) {
	s := NewStore(zap.NewNop())

	err := s.Attach("nope", &stubHandle{}, entity.SessionRunning)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestTransitionOrdering(t *testing.T) {
	s := NewStore(zap.NewNop())
	require.NoError(t, s.Put(newSession("s1", entity.ActivityRecord)))

	require.NoError(t, s.UpdateStatus("s1", entity.SessionRecording))
	require.NoError(t, s.UpdateStatus("s1", entity.SessionStopping))
	require.NoError(t, s.UpdateStatus("s1", entity.SessionCompleted))

	// terminal states accept no further transitions
	err := s.UpdateStatus("s1", entity.SessionRunning)
	require.Error(t, err)
}

func TestTransitionCannotGoBackwards(t *testing.T) {
	s := NewStore(zap.NewNop())
	require.NoError(t, s.Put(newSession("s1", entity.ActivityDebug)))
	require.NoError(t, s.UpdateStatus("s1", entity.SessionRunning))

	err := s.UpdateStatus("s1", entity.SessionStarting)
	require.Error(t, err)
}

func TestStoppingFromStarting(t *testing.T) {
	s := NewStore(zap.NewNop())
	require.NoError(t, s.Put(newSession("s1", entity.ActivityRecord)))

	// stop can land before spawn confirms
	require.NoError(t, s.UpdateStatus("s1", entity.SessionStopping))
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := NewStore(zap.NewNop())
	require.NoError(t, s.Put(newSession("s1", entity.ActivityRecord)))

	s.Remove("s1")
	s.Remove("s1")

	assert.Equal(t, 0, s.Len())
}

func TestActiveFiltersByKind(t *testing.T) {
	s := NewStore(zap.NewNop())
	require.NoError(t, s.Put(newSession("r1", entity.ActivityRecord)))
	require.NoError(t, s.Put(newSession("e1", entity.ActivityExecute)))
	require.NoError(t, s.Put(newSession("e2", entity.ActivityExecute)))

	assert.Len(t, s.Active(entity.ActivityExecute), 2)
	assert.Len(t, s.Active(entity.ActivityRecord), 1)
	assert.Len(t, s.Active(""), 3)
	assert.Empty(t, s.Active(entity.ActivityDebug))
}
