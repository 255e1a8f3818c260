package ssdp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/muurk/simplehome/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
)

// Datagram is one received UDP payload and its origin
type Datagram struct {
	Data   []byte
	Remote *net.UDPAddr
}

// Transport is the UDP multicast capability the engine needs. Sends are
// fire-and-forget; a returned error is logged, never retried.
type Transport interface {
	// Begin binds the discovery port and joins the multicast group on the
	// interface owning localIP, with ttl as the outbound multicast TTL.
	Begin(localIP net.IP, ttl int) error
	// End leaves the group and releases the socket. It is idempotent.
	End() error
	// ReceiveNext returns at most one buffered datagram without blocking.
	ReceiveNext() (Datagram, bool)
	SendMulticast(data []byte) error
	SendUnicast(data []byte, addr *net.UDPAddr) error
}

// Receive queue and buffer sizing
const (
	receiveQueueSize = 16
	maxDatagramSize  = 1500
)

// UDPTransport is the production Transport backed by an IPv4 UDP socket
type UDPTransport struct {
	port  int
	group net.IP

	mu     sync.Mutex
	conn   net.PacketConn
	pconn  *ipv4.PacketConn
	ifi    *net.Interface
	inbox  chan Datagram
	wg     sync.WaitGroup
	closed chan struct{}
}

// NewUDPTransport creates a transport on the standard SSDP port and group
func NewUDPTransport() *UDPTransport {
	return &UDPTransport{
		port:  Port,
		group: net.ParseIP(MulticastGroup).To4(),
	}
}

// Begin implements Transport
func (t *UDPTransport) Begin(localIP net.IP, ttl int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.endLocked()
	}

	ifi, err := InterfaceByIP(localIP)
	if err != nil {
		return newError(ErrKindNoInterface, localIP.String(), err)
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", t.port))
	if err != nil {
		return newError(ErrKindBindFailed, fmt.Sprintf("bind udp4 :%d", t.port), err)
	}

	pconn := ipv4.NewPacketConn(conn)
	gaddr := &net.UDPAddr{IP: t.group}
	if err := pconn.JoinGroup(ifi, gaddr); err != nil {
		_ = conn.Close()
		return newError(ErrKindJoinFailed, fmt.Sprintf("join %s on %s", t.group, ifi.Name), err)
	}

	if err := pconn.SetMulticastInterface(ifi); err != nil {
		logging.Warn("Failed to set multicast interface",
			zap.String("interface", ifi.Name),
			zap.Error(err),
		)
	}
	if err := pconn.SetMulticastTTL(ttl); err != nil {
		logging.Warn("Failed to set multicast TTL",
			zap.Int("ttl", ttl),
			zap.Error(err),
		)
	}
	if err := pconn.SetMulticastLoopback(true); err != nil {
		logging.Debug("Failed to enable multicast loopback", zap.Error(err))
	}

	t.conn = conn
	t.pconn = pconn
	t.ifi = ifi
	t.inbox = make(chan Datagram, receiveQueueSize)
	t.closed = make(chan struct{})

	t.wg.Add(1)
	go t.readLoop(pconn, t.inbox, t.closed)

	logging.Info("SSDP transport started",
		zap.String("interface", ifi.Name),
		zap.String("local_ip", localIP.String()),
		zap.String("group", t.group.String()),
		zap.Int("port", t.port),
		zap.Int("ttl", ttl),
	)
	return nil
}

// readLoop feeds the receive queue until the socket is closed. Datagrams
// arriving while the queue is full are dropped.
func (t *UDPTransport) readLoop(pconn *ipv4.PacketConn, inbox chan<- Datagram, closed <-chan struct{}) {
	defer t.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, src, err := pconn.ReadFrom(buf)
		if err != nil {
			select {
			case <-closed:
			default:
				logging.Debug("SSDP read loop stopped", zap.Error(err))
			}
			return
		}

		remote, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		logging.LogDatagram("received", remote.String(), data)

		select {
		case inbox <- Datagram{Data: data, Remote: remote}:
		default:
			logging.Debug("SSDP receive queue full, dropping datagram",
				zap.String("remote_addr", remote.String()),
			)
		}
	}
}

// End implements Transport
func (t *UDPTransport) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endLocked()
}

func (t *UDPTransport) endLocked() error {
	if t.conn == nil {
		return nil
	}

	var errs []error
	if err := t.pconn.LeaveGroup(t.ifi, &net.UDPAddr{IP: t.group}); err != nil {
		errs = append(errs, fmt.Errorf("failed to leave multicast group: %w", err))
	}
	close(t.closed)
	if err := t.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close socket: %w", err))
	}
	t.wg.Wait()

	logging.Info("SSDP transport stopped", zap.String("interface", t.ifi.Name))

	t.conn = nil
	t.pconn = nil
	t.ifi = nil
	t.inbox = nil
	return errors.Join(errs...)
}

// ReceiveNext implements Transport
func (t *UDPTransport) ReceiveNext() (Datagram, bool) {
	t.mu.Lock()
	inbox := t.inbox
	t.mu.Unlock()

	if inbox == nil {
		return Datagram{}, false
	}
	select {
	case dg := <-inbox:
		return dg, true
	default:
		return Datagram{}, false
	}
}

// SendMulticast implements Transport
func (t *UDPTransport) SendMulticast(data []byte) error {
	return t.send(data, &net.UDPAddr{IP: t.group, Port: t.port})
}

// SendUnicast implements Transport
func (t *UDPTransport) SendUnicast(data []byte, addr *net.UDPAddr) error {
	return t.send(data, addr)
}

func (t *UDPTransport) send(data []byte, addr *net.UDPAddr) error {
	t.mu.Lock()
	pconn := t.pconn
	t.mu.Unlock()

	if pconn == nil {
		return ErrNotStarted
	}
	if _, err := pconn.WriteTo(data, nil, addr); err != nil {
		return fmt.Errorf("failed to send to %s: %w", addr, err)
	}
	logging.LogDatagram("sent", addr.String(), data)
	return nil
}

// InterfaceByIP returns the network interface that owns ip
func InterfaceByIP(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no interface owns %s", ip)
}

// ResolveInterface selects the interface to advertise on. With an empty
// name the first up, multicast-capable, non-loopback interface carrying an
// IPv4 address is used.
func ResolveInterface(name string) (*net.Interface, net.IP, error) {
	if name != "" {
		ifi, err := net.InterfaceByName(name)
		if err != nil {
			return nil, nil, newError(ErrKindNoInterface, name, err)
		}
		ip := interfaceIPv4(ifi)
		if ip == nil {
			return nil, nil, newError(ErrKindNoInterface, name, errors.New("no IPv4 address"))
		}
		return ifi, ip, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, newError(ErrKindNoInterface, "list interfaces", err)
	}
	for i := range ifaces {
		ifi := &ifaces[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ip := interfaceIPv4(ifi); ip != nil {
			return ifi, ip, nil
		}
	}
	return nil, nil, ErrNoInterface
}

func interfaceIPv4(ifi *net.Interface) net.IP {
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}
