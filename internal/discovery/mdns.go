package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/simplehome/internal/logging"
	"github.com/muurk/simplehome/internal/ssdp"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type of the description endpoint
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// TXT record keys published alongside the service
	txtPath = "path"
	txtUSN  = "usn"
	txtST   = "st"
)

// Advertiser publishes the description HTTP service over mDNS
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers desc as an mDNS service. The instance name is the
// friendly name; TXT records carry the description path, USN and device
// type. With ifi nil every multicast interface is used.
func Advertise(desc *ssdp.Descriptor, ifi *net.Interface) (*Advertiser, error) {
	var ifaces []net.Interface
	if ifi != nil {
		ifaces = []net.Interface{*ifi}
	}

	instance := desc.FriendlyName
	if instance == "" {
		instance = desc.UUID
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, desc.Port, advertTXT(desc), ifaces)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS advertisement started",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", desc.Port),
	)
	return &Advertiser{server: server}, nil
}

func advertTXT(desc *ssdp.Descriptor) []string {
	return []string{
		txtPath + "=/" + desc.SchemaURL,
		txtUSN + "=" + desc.UUID,
		txtST + "=" + desc.DeviceType,
	}
}

// Shutdown withdraws the advertisement
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("mDNS advertisement stopped")
}

// Browse lists SimpleHome description services visible over mDNS until
// timeout or ctx expires. Only services publishing a usn TXT record match.
func Browse(ctx context.Context, timeout time.Duration) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		devices []*Device
		seen    = make(map[string]bool)
	)
	go func() {
		for entry := range entries {
			dev := parseServiceEntry(entry)
			if dev == nil {
				continue
			}
			mu.Lock()
			if !seen[dev.Key()] {
				seen[dev.Key()] = true
				devices = append(devices, dev)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Device(nil), devices...), nil
}

// parseServiceEntry converts a zeroconf entry to a Device.
// Returns nil if the entry is not a SimpleHome description service.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	txt := make(map[string]string)
	for _, record := range entry.Text {
		key, value, _ := strings.Cut(record, "=")
		txt[key] = value
	}

	usn := txt[txtUSN]
	if usn == "" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = ssdp.DefaultHTTPPort
	}

	return &Device{
		USN:          usn,
		ST:           txt[txtST],
		Location:     fmt.Sprintf("http://%s/%s", net.JoinHostPort(ip, strconv.Itoa(port)), strings.TrimPrefix(txt[txtPath], "/")),
		Addr:         ip,
		DiscoveredAt: time.Now(),
		Description: &ssdp.Description{
			Device: ssdp.DescriptionDevice{FriendlyName: entry.Instance},
		},
	}
}
