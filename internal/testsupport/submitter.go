package testsupport

import (
	"context"
	"strconv"
	"sync"

	"passlaunch/internal/scheduler"
)

// RecordingSubmitter records requests and hands out sequential job ids
// starting at 1001. FailAt makes the n-th submission (1-based) return Err.
type RecordingSubmitter struct {
	mu       sync.Mutex
	Requests []scheduler.Request
	FailAt   int
	Err      error
}

// Submit implements scheduler.Submitter.
func (s *RecordingSubmitter) Submit(_ context.Context, req scheduler.Request) (scheduler.JobID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	n := len(s.Requests)
	if s.FailAt == n {
		return "", s.Err
	}
	return scheduler.JobID(strconv.Itoa(1000 + n)), nil
}

// Submitted returns a copy of the recorded requests.
func (s *RecordingSubmitter) Submitted() []scheduler.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scheduler.Request(nil), s.Requests...)
}
