package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/muurk/simplehome/internal/logging"
	"github.com/muurk/simplehome/internal/ssdp"
	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
)

const (
	// DefaultSearchTimeout is how long a search collects responses
	DefaultSearchTimeout = 5 * time.Second

	// DefaultMX is the MX value sent with searches
	DefaultMX = 3

	// DefaultFetchTimeout bounds each description fetch
	DefaultFetchTimeout = 2 * time.Second

	maxDescriptionSize = 64 << 10
)

// Searcher multicasts an M-SEARCH and collects the unique responders
type Searcher struct {
	// Target is the ST value (default ssdp:all)
	Target string

	// MX is the maximum response delay requested from devices
	MX int

	// Timeout bounds the collection window
	Timeout time.Duration

	// Interface is the outbound multicast interface (empty = system default)
	Interface string

	// TTL is the multicast TTL of the request
	TTL int

	// FetchDescriptions retrieves and decodes each LOCATION document
	FetchDescriptions bool

	// Client fetches descriptions
	Client *http.Client

	// Addr is the request destination (default 239.255.255.250:1900)
	Addr *net.UDPAddr
}

// NewSearcher creates a searcher with default settings
func NewSearcher() *Searcher {
	return &Searcher{
		Target:  ssdp.SearchTargetAll,
		MX:      DefaultMX,
		Timeout: DefaultSearchTimeout,
		TTL:     ssdp.DefaultTTL,
		Client:  &http.Client{Timeout: DefaultFetchTimeout},
		Addr:    &net.UDPAddr{IP: net.ParseIP(ssdp.MulticastGroup), Port: ssdp.Port},
	}
}

// Search sends one M-SEARCH and returns the devices that answered before the
// timeout or ctx expired, in arrival order.
func (s *Searcher) Search(ctx context.Context) ([]*Device, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	addr := s.Addr
	if addr == nil {
		addr = &net.UDPAddr{IP: net.ParseIP(ssdp.MulticastGroup), Port: ssdp.Port}
	}
	target := s.Target
	if target == "" {
		target = ssdp.SearchTargetAll
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open search socket: %w", err)
	}
	defer conn.Close()

	pconn := ipv4.NewPacketConn(conn)
	if s.TTL > 0 {
		if err := pconn.SetMulticastTTL(s.TTL); err != nil {
			logging.Debug("Failed to set multicast TTL", zap.Error(err))
		}
	}
	if s.Interface != "" {
		ifi, err := net.InterfaceByName(s.Interface)
		if err != nil {
			return nil, fmt.Errorf("failed to find interface %s: %w", s.Interface, err)
		}
		if err := pconn.SetMulticastInterface(ifi); err != nil {
			return nil, fmt.Errorf("failed to set multicast interface %s: %w", s.Interface, err)
		}
	}

	request := ssdp.BuildSearchRequest(target, s.MX)
	if _, err := pconn.WriteTo(request, nil, addr); err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	logging.LogDatagram("sent", addr.String(), request)

	// Unblock the read loop when ctx ends
	deadline, _ := ctx.Deadline()
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	devices := collect(conn)

	if s.FetchDescriptions {
		s.fetchAll(context.WithoutCancel(ctx), devices)
	}
	return devices, nil
}

// collect reads responses until the socket's read deadline, keeping the
// first response per device key
func collect(conn net.PacketConn) []*Device {
	var devices []*Device
	seen := make(map[string]bool)
	buf := make([]byte, 8192)

	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				logging.Debug("Search read stopped", zap.Error(err))
			}
			return devices
		}

		addr := src.String()
		if udp, ok := src.(*net.UDPAddr); ok {
			addr = udp.IP.String()
		}
		logging.LogDatagram("received", src.String(), buf[:n])

		dev := ParseResponse(buf[:n], addr)
		if dev == nil {
			continue
		}
		key := dev.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		devices = append(devices, dev)
	}
}

// fetchAll retrieves descriptions concurrently. Failures are logged and
// leave Description nil.
func (s *Searcher) fetchAll(ctx context.Context, devices []*Device) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	var wg sync.WaitGroup
	for _, dev := range devices {
		if dev.Location == "" {
			continue
		}
		wg.Add(1)
		go func(dev *Device) {
			defer wg.Done()
			desc, err := FetchDescription(ctx, client, dev.Location)
			if err != nil {
				logging.Debug("Failed to fetch device description",
					zap.String("location", dev.Location),
					zap.Error(err),
				)
				return
			}
			dev.Description = desc
		}(dev)
	}
	wg.Wait()
}

// FetchDescription downloads and decodes the description document at location
func FetchDescription(ctx context.Context, client *http.Client, location string) (*ssdp.Description, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", location, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", location, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return ssdp.ParseDescription(body)
}
