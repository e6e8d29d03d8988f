package backdrop

import "testing"

func TestTickSchedulerRunsOnce(t *testing.T) {
	s := NewTickScheduler()
	calls := 0
	s.RequestFrame(func() { calls++ })

	if n := s.Tick(); n != 1 {
		t.Errorf("Tick() = %d, want 1", n)
	}
	if n := s.Tick(); n != 0 {
		t.Errorf("second Tick() = %d, want 0", n)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTickSchedulerCancel(t *testing.T) {
	s := NewTickScheduler()
	var got []int
	a := s.RequestFrame(func() { got = append(got, 1) })
	s.RequestFrame(func() { got = append(got, 2) })
	s.CancelFrame(a)
	s.CancelFrame(a)
	s.CancelFrame(999)

	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}
	s.Tick()
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("ran %v, want [2]", got)
	}
}

func TestTickSchedulerRearmLandsNextTick(t *testing.T) {
	s := NewTickScheduler()
	calls := 0
	var cb FrameCallback
	cb = func() {
		calls++
		s.RequestFrame(cb)
	}
	s.RequestFrame(cb)

	for i := 1; i <= 3; i++ {
		if n := s.Tick(); n != 1 {
			t.Fatalf("tick %d ran %d callbacks, want 1", i, n)
		}
		if calls != i {
			t.Fatalf("calls = %d after tick %d", calls, i)
		}
	}
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", s.Pending())
	}
}

func TestTickSchedulerOrder(t *testing.T) {
	s := NewTickScheduler()
	var got []int
	for i := range 4 {
		s.RequestFrame(func() { got = append(got, i) })
	}
	s.Tick()
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v, want request order", got)
		}
	}
}

func TestTickSchedulerUniqueIDs(t *testing.T) {
	s := NewTickScheduler()
	seen := map[FrameID]bool{}
	for range 10 {
		id := s.RequestFrame(func() {})
		if seen[id] {
			t.Fatalf("duplicate FrameID %d", id)
		}
		seen[id] = true
	}
}

func TestTickSchedulerCancelSiblingInSameTick(t *testing.T) {
	s := NewTickScheduler()
	var idB FrameID
	ranB := false
	s.RequestFrame(func() { s.CancelFrame(idB) })
	idB = s.RequestFrame(func() { ranB = true })

	if n := s.Tick(); n != 1 {
		t.Errorf("Tick() = %d, want 1", n)
	}
	if ranB {
		t.Error("callback ran after being cancelled earlier in the same tick")
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
}
