package ssdp

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/simplehome/internal/logging"
	"go.uber.org/zap"
)

// DefaultTickInterval is the tick period used by Run
const DefaultTickInterval = time.Second

// EventKind names an engine activity reported to observers
type EventKind string

const (
	EventStarted        EventKind = "started"
	EventStopped        EventKind = "stopped"
	EventSearchAccepted EventKind = "search_accepted"
	EventResponseSent   EventKind = "response_sent"
	EventNotifySent     EventKind = "notify_sent"
)

// Event describes one engine activity
type Event struct {
	Kind    EventKind `json:"kind"`
	Time    time.Time `json:"time"`
	Remote  string    `json:"remote,omitempty"`
	Target  string    `json:"target,omitempty"`
	DelayMS int64     `json:"delay_ms,omitempty"`
}

// Options configures an Engine. Only Transport is required.
type Options struct {
	Transport Transport

	// Interface names the network interface to advertise on (empty = auto)
	Interface string

	// Resolve returns the advertised local address and the hardware address
	// used for UUID generation. Defaults to ResolveInterface(Interface).
	Resolve func() (net.IP, net.HardwareAddr, error)

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// RandN returns a uniform integer in [0, n). Defaults to math/rand/v2.IntN.
	RandN func(n int) int

	// OnEvent is called synchronously from Begin, End and Tick. It must not block.
	OnEvent func(Event)

	// TickInterval is the period used by Run. Defaults to DefaultTickInterval.
	TickInterval time.Duration
}

// Status is a snapshot of the engine state
type Status struct {
	Running      bool      `json:"running"`
	UUID         string    `json:"uuid"`
	DeviceType   string    `json:"device_type"`
	FriendlyName string    `json:"friendly_name"`
	LocalIP      string    `json:"local_ip,omitempty"`
	Location     string    `json:"location,omitempty"`
	LastNotify   time.Time `json:"last_notify,omitempty"`
	Pending      bool      `json:"pending"`
}

// Engine wires Transport, Parser, Scheduler and the packet builders into
// the Begin/End/Tick lifecycle.
type Engine struct {
	desc *Descriptor
	opts Options

	ticking atomic.Bool

	mu        sync.Mutex
	running   bool
	localIP   net.IP
	parser    *Parser
	scheduler *Scheduler
}

// NewEngine creates an engine advertising desc
func NewEngine(desc *Descriptor, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RandN == nil {
		opts.RandN = rand.IntN
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Resolve == nil {
		name := opts.Interface
		opts.Resolve = func() (net.IP, net.HardwareAddr, error) {
			ifi, ip, err := ResolveInterface(name)
			if err != nil {
				return nil, nil, err
			}
			return ip, ifi.HardwareAddr, nil
		}
	}
	return &Engine{desc: desc, opts: opts}
}

// Descriptor returns the advertised descriptor
func (e *Engine) Descriptor() *Descriptor {
	return e.desc
}

// Begin starts a discovery session. A running session is torn down first.
// On error the engine stays stopped; the caller may call Begin again.
func (e *Engine) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.endLocked()
	}

	localIP, hw, err := e.opts.Resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve local address: %w", err)
	}

	e.desc.Normalize()
	if e.desc.UUID == "" {
		e.desc.UUID = UUIDFromChipID(ChipID(hw))
	}
	logging.Info("SSDP device identity",
		zap.String("uuid", e.desc.UUID),
		zap.String("device_type", e.desc.DeviceType),
		zap.String("friendly_name", e.desc.FriendlyName),
	)

	if err := e.opts.Transport.Begin(localIP, e.desc.TTL); err != nil {
		return err
	}

	e.localIP = localIP
	e.parser = NewParser(e.desc.DeviceType, e.desc.UUID)
	e.scheduler = NewScheduler(e.desc.NotifyInterval())
	e.running = true

	e.emit(Event{Kind: EventStarted, Target: e.desc.Location(localIP)})
	return nil
}

// End stops the session. Pending responses are discarded and no further
// datagrams are sent. Safe to call repeatedly or before Begin.
func (e *Engine) End() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endLocked()
}

func (e *Engine) endLocked() {
	if !e.running {
		return
	}
	e.running = false
	e.scheduler.Reset()

	if err := e.opts.Transport.End(); err != nil {
		logging.Warn("SSDP transport shutdown error", zap.Error(err))
	}
	e.emit(Event{Kind: EventStopped})
}

// Tick drains received datagrams, then sends at most one due datagram:
// the deferred search response if due, otherwise the periodic notify if due.
// A Tick that overlaps a running Tick returns immediately.
func (e *Engine) Tick() {
	if !e.ticking.CompareAndSwap(false, true) {
		logging.Debug("SSDP tick skipped, previous tick still running")
		return
	}
	defer e.ticking.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	now := e.opts.Now()
	for {
		dg, ok := e.opts.Transport.ReceiveNext()
		if !ok {
			break
		}
		e.handleDatagram(dg, now)
	}

	action, pending := e.scheduler.Next(now)
	switch action {
	case ActionRespond:
		e.respond(pending)
	case ActionNotify:
		e.notify()
	}
}

func (e *Engine) handleDatagram(dg Datagram, now time.Time) {
	req, ok := e.parser.Parse(dg.Data)
	if !ok {
		return
	}

	var delay time.Duration
	if req.MX > 0 {
		delay = time.Duration(e.opts.RandN(req.MX)) * time.Second
	}

	e.scheduler.Schedule(PendingResponse{
		Target: req.Target,
		Remote: dg.Remote,
		DueAt:  now.Add(delay),
	})

	logging.Debug("SSDP search accepted",
		zap.String("remote_addr", dg.Remote.String()),
		zap.String("st", req.ST),
		zap.Int("mx", req.MX),
		zap.Duration("delay", delay),
	)
	e.emit(Event{
		Kind:    EventSearchAccepted,
		Remote:  dg.Remote.String(),
		Target:  req.ST,
		DelayMS: delay.Milliseconds(),
	})
}

func (e *Engine) respond(p PendingResponse) {
	packet := BuildSearchResponse(e.desc, e.localIP, p.Target)
	if err := e.opts.Transport.SendUnicast(packet, p.Remote); err != nil {
		logging.Warn("Failed to send search response",
			zap.String("remote_addr", p.Remote.String()),
			zap.Error(err),
		)
		return
	}

	target := e.desc.DeviceType
	if p.Target == TargetUUID {
		target = e.desc.UUID
	}
	e.emit(Event{Kind: EventResponseSent, Remote: p.Remote.String(), Target: target})
}

func (e *Engine) notify() {
	packet := BuildNotify(e.desc, e.localIP)
	if err := e.opts.Transport.SendMulticast(packet); err != nil {
		logging.Warn("Failed to send notify", zap.Error(err))
		return
	}
	e.emit(Event{Kind: EventNotifySent, Target: e.desc.DeviceType})
}

func (e *Engine) emit(ev Event) {
	ev.Time = e.opts.Now()
	logging.LogEngineEvent(string(ev.Kind), ev.Remote, ev.Target)
	if e.opts.OnEvent != nil {
		e.opts.OnEvent(ev)
	}
}

// Run begins a session, ticks every TickInterval until ctx is done, then
// ends the session.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Begin(); err != nil {
		return err
	}
	defer e.End()

	e.TickLoop(ctx)
	return nil
}

// TickLoop calls Tick every TickInterval until ctx is done. The first tick
// happens immediately. It does not begin or end the session.
func (e *Engine) TickLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	e.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Running reports whether a session is active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// LocalIP returns the advertised address of the current session, or nil
func (e *Engine) LocalIP() net.IP {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localIP
}

// Description renders the XML device description for the current session
func (e *Engine) Description() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil, ErrNotStarted
	}
	return BuildDescription(e.desc, e.localIP)
}

// Status returns a snapshot of the engine state
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Running:      e.running,
		UUID:         e.desc.UUID,
		DeviceType:   e.desc.DeviceType,
		FriendlyName: e.desc.FriendlyName,
	}
	if e.running {
		st.LocalIP = e.localIP.String()
		st.Location = e.desc.Location(e.localIP)
		st.LastNotify = e.scheduler.LastNotify()
		_, st.Pending = e.scheduler.Pending()
	}
	return st
}
