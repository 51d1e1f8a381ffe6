package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
)

// AttendanceStore persists the records of an attendance session.
type AttendanceStore interface {
	SaveRecords(ctx context.Context, session uuid.UUID, records []attendance.Record) error
}

// State is the processor shared by all handlers. Every access goes through mu
// because the recognition components are not safe for concurrent use.
type State struct {
	mu             *sync.Mutex
	proc           *pipeline.Processor
	attendancePath string
	store          AttendanceStore
	session        uuid.UUID
	frames         int
	now            func() time.Time
}

// NewState wraps proc. mu is shared with any background pipeline.Run using the
// same processor; nil allocates a private mutex.
func NewState(proc *pipeline.Processor, mu *sync.Mutex, attendancePath string) *State {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &State{
		mu:             mu,
		proc:           proc,
		attendancePath: attendancePath,
		now:            time.Now,
	}
}

// UseStore makes attendance exports also save to store under session.
func (s *State) UseStore(store AttendanceStore, session uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.session = session
}
