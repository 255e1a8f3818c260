package ssdp

import (
	"errors"
	"net"
	"time"
)

// sentPacket is one datagram captured by fakeTransport
type sentPacket struct {
	data      []byte
	remote    *net.UDPAddr // nil for multicast
	multicast bool
}

// fakeTransport is an in-memory Transport for engine tests
type fakeTransport struct {
	beginErr error
	begun    bool
	begins   int
	ends     int
	localIP  net.IP
	ttl      int

	inbox []Datagram
	sent  []sentPacket
}

func (f *fakeTransport) Begin(localIP net.IP, ttl int) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.begun = true
	f.begins++
	f.localIP = localIP
	f.ttl = ttl
	return nil
}

func (f *fakeTransport) End() error {
	if f.begun {
		f.ends++
	}
	f.begun = false
	f.inbox = nil
	return nil
}

func (f *fakeTransport) ReceiveNext() (Datagram, bool) {
	if !f.begun || len(f.inbox) == 0 {
		return Datagram{}, false
	}
	dg := f.inbox[0]
	f.inbox = f.inbox[1:]
	return dg, true
}

func (f *fakeTransport) SendMulticast(data []byte) error {
	if !f.begun {
		return errors.New("transport not started")
	}
	f.sent = append(f.sent, sentPacket{data: data, multicast: true})
	return nil
}

func (f *fakeTransport) SendUnicast(data []byte, addr *net.UDPAddr) error {
	if !f.begun {
		return errors.New("transport not started")
	}
	f.sent = append(f.sent, sentPacket{data: data, remote: addr})
	return nil
}

func (f *fakeTransport) deliver(data []byte, remote string) {
	addr, err := net.ResolveUDPAddr("udp4", remote)
	if err != nil {
		panic(err)
	}
	f.inbox = append(f.inbox, Datagram{Data: data, Remote: addr})
}

func (f *fakeTransport) unicasts() []sentPacket {
	var out []sentPacket
	for _, p := range f.sent {
		if !p.multicast {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeTransport) multicasts() []sentPacket {
	var out []sentPacket
	for _, p := range f.sent {
		if p.multicast {
			out = append(out, p)
		}
	}
	return out
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var testLocalIP = net.IPv4(192, 168, 1, 50).To4()

func testResolve() (net.IP, net.HardwareAddr, error) {
	return testLocalIP, net.HardwareAddr{0x5c, 0xcf, 0x7f, 0x12, 0x34, 0x56}, nil
}
