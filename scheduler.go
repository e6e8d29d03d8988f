package backdrop

// FrameID identifies a pending frame request so it can be cancelled.
type FrameID uint64

// FrameCallback runs once when the scheduler fires the frame it was
// registered for. Callbacks that want to keep animating request the next
// frame themselves.
type FrameCallback func()

// FrameScheduler is the host's per-frame callback source. Requests are
// one-shot: a callback fires at most once, on the first Tick after it was
// requested, unless cancelled first.
type FrameScheduler interface {
	RequestFrame(cb FrameCallback) FrameID
	CancelFrame(id FrameID)
	// Tick fires every callback that was pending when Tick was entered and
	// not cancelled since, and returns how many ran.
	Tick() int
}

type frameRequest struct {
	id FrameID
	cb FrameCallback
}

// TickScheduler is the default FrameScheduler. Stage.Update ticks it once per
// Ebitengine update, so a Stage animates at the game's TPS.
type TickScheduler struct {
	nextID  FrameID
	pending []frameRequest
	running []frameRequest
}

// NewTickScheduler creates an empty scheduler.
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

// RequestFrame queues cb for the next Tick.
func (s *TickScheduler) RequestFrame(cb FrameCallback) FrameID {
	s.nextID++
	s.pending = append(s.pending, frameRequest{id: s.nextID, cb: cb})
	return s.nextID
}

// CancelFrame removes a pending request. A request in the batch the current
// Tick is running is skipped if it has not fired yet. Unknown or
// already-fired IDs are ignored.
func (s *TickScheduler) CancelFrame(id FrameID) {
	for i, r := range s.pending {
		if r.id == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
	for i := range s.running {
		if s.running[i].id == id {
			s.running[i].cb = nil
			return
		}
	}
}

// Pending returns the number of queued requests.
func (s *TickScheduler) Pending() int {
	return len(s.pending)
}

// Tick swaps the pending queue out before running it, so callbacks that
// request another frame land in the next Tick rather than this one.
func (s *TickScheduler) Tick() int {
	if len(s.pending) == 0 {
		return 0
	}
	s.running, s.pending = s.pending, s.running[:0]
	n := 0
	for i := range s.running {
		cb := s.running[i].cb
		if cb == nil {
			continue
		}
		s.running[i].cb = nil
		cb()
		n++
	}
	clear(s.running)
	s.running = s.running[:0]
	return n
}
