package ssdp

import (
	"net"
	"time"
)

// PendingResponse is a deferred reply to an accepted search
type PendingResponse struct {
	Target TargetKind
	Remote *net.UDPAddr
	DueAt  time.Time
}

// Action is what the scheduler decided for one tick
type Action int

const (
	ActionNone Action = iota
	ActionRespond
	ActionNotify
)

func (a Action) String() string {
	switch a {
	case ActionRespond:
		return "respond"
	case ActionNotify:
		return "notify"
	default:
		return "none"
	}
}

// Scheduler owns the single pending response slot and the notify timer.
// It is not safe for concurrent use; the Engine serializes access.
type Scheduler struct {
	interval   time.Duration
	pending    *PendingResponse
	lastNotify time.Time
}

// NewScheduler creates a scheduler announcing every interval
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{interval: interval}
}

// Schedule stores p as the pending response. A response that is still
// pending is replaced: only the most recently accepted search is answered.
func (s *Scheduler) Schedule(p PendingResponse) {
	s.pending = &p
}

// Pending returns the pending response, if any
func (s *Scheduler) Pending() (PendingResponse, bool) {
	if s.pending == nil {
		return PendingResponse{}, false
	}
	return *s.pending, true
}

// LastNotify returns the time of the last announcement (zero before the first)
func (s *Scheduler) LastNotify() time.Time {
	return s.lastNotify
}

// Next evaluates both timed duties for now. A due response takes priority
// and is consumed; otherwise a notify fires when none has been sent yet or
// more than one interval has elapsed since the last one.
func (s *Scheduler) Next(now time.Time) (Action, PendingResponse) {
	if s.pending != nil && !now.Before(s.pending.DueAt) {
		p := *s.pending
		s.pending = nil
		return ActionRespond, p
	}

	if s.lastNotify.IsZero() || now.Sub(s.lastNotify) > s.interval {
		s.lastNotify = now
		return ActionNotify, PendingResponse{}
	}

	return ActionNone, PendingResponse{}
}

// Reset discards the pending response and restarts the notify cycle
func (s *Scheduler) Reset() {
	s.pending = nil
	s.lastNotify = time.Time{}
}
