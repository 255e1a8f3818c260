package ssdp

import (
	"net"
	"testing"
	"time"
)

func TestScheduler_Next(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	remote := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 5000}

	tests := []struct {
		name       string
		lastNotify time.Time
		pending    *PendingResponse
		now        time.Time
		want       Action
	}{
		{
			name: "first tick notifies",
			now:  t0,
			want: ActionNotify,
		},
		{
			name:       "notify not yet due",
			lastNotify: t0,
			now:        t0.Add(10 * time.Second),
			want:       ActionNone,
		},
		{
			name:       "exactly one interval is not due",
			lastNotify: t0,
			now:        t0.Add(time.Minute),
			want:       ActionNone,
		},
		{
			name:       "past one interval notifies",
			lastNotify: t0,
			now:        t0.Add(time.Minute + time.Second),
			want:       ActionNotify,
		},
		{
			name:       "response due at deadline",
			lastNotify: t0,
			pending:    &PendingResponse{Remote: remote, DueAt: t0.Add(2 * time.Second)},
			now:        t0.Add(2 * time.Second),
			want:       ActionRespond,
		},
		{
			name:       "response not yet due",
			lastNotify: t0,
			pending:    &PendingResponse{Remote: remote, DueAt: t0.Add(2 * time.Second)},
			now:        t0.Add(time.Second),
			want:       ActionNone,
		},
		{
			name:    "response wins over notify",
			pending: &PendingResponse{Remote: remote, DueAt: t0},
			now:     t0,
			want:    ActionRespond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(time.Minute)
			s.lastNotify = tt.lastNotify
			if tt.pending != nil {
				s.Schedule(*tt.pending)
			}

			got, p := s.Next(tt.now)
			if got != tt.want {
				t.Fatalf("Next() = %v, want %v", got, tt.want)
			}
			if got == ActionRespond {
				if p.Remote != remote {
					t.Errorf("Next() remote = %v, want %v", p.Remote, remote)
				}
				if _, ok := s.Pending(); ok {
					t.Error("pending response not consumed")
				}
			}
			if got == ActionNotify && !s.LastNotify().Equal(tt.now) {
				t.Errorf("LastNotify() = %v, want %v", s.LastNotify(), tt.now)
			}
		})
	}
}

func TestScheduler_ScheduleOverwrites(t *testing.T) {
	s := NewScheduler(time.Minute)
	first := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1}
	second := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 2}

	s.Schedule(PendingResponse{Remote: first})
	s.Schedule(PendingResponse{Remote: second, Target: TargetUUID})

	p, ok := s.Pending()
	if !ok {
		t.Fatal("Pending() = false")
	}
	if p.Remote != second || p.Target != TargetUUID {
		t.Errorf("Pending() = %+v, want latest search", p)
	}
}

func TestScheduler_Reset(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(time.Minute)
	s.Next(t0)
	s.Schedule(PendingResponse{DueAt: t0.Add(time.Hour)})

	s.Reset()
	if _, ok := s.Pending(); ok {
		t.Error("Reset() kept the pending response")
	}
	if !s.LastNotify().IsZero() {
		t.Error("Reset() kept the notify timer")
	}
	if got, _ := s.Next(t0.Add(time.Second)); got != ActionNotify {
		t.Errorf("Next() after Reset = %v, want notify", got)
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionNone, "none"},
		{ActionRespond, "respond"},
		{ActionNotify, "notify"},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("%d.String() = %v, want %v", tt.action, got, tt.want)
		}
	}
}
