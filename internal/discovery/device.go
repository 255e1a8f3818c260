package discovery

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/simplehome/internal/ssdp"
)

// Device represents one SSDP responder found by a search
type Device struct {
	// USN is the unique service name as received (e.g., "uuid:38323636-...")
	USN string

	// ST is the search target echoed by the responder
	ST string

	// Server is the SERVER header (platform, UPnP version, product)
	Server string

	// Location is the URL of the device description document
	Location string

	// CacheControl is the CACHE-CONTROL header (e.g., "max-age=1200")
	CacheControl string

	// Addr is the IP address the response came from
	Addr string

	// Description is the decoded description document, when fetched
	Description *ssdp.Description

	// DiscoveredAt is when the first response was received
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	name := d.FriendlyName()
	if name == "" {
		name = d.USN
	}
	return fmt.Sprintf("%s at %s", name, d.Addr)
}

// FriendlyName returns the description's friendly name, or "" if not fetched
func (d *Device) FriendlyName() string {
	if d.Description == nil {
		return ""
	}
	return d.Description.Device.FriendlyName
}

// Key returns the identity used to collapse repeated responses: the
// normalized USN, else the LOCATION host, else the responder address.
func (d *Device) Key() string {
	if k := normalizeUSN(d.USN); k != "" {
		return "usn:" + k
	}
	if u, err := url.Parse(d.Location); err == nil && u.Hostname() != "" {
		return "loc:" + u.Hostname()
	}
	if d.Addr != "" {
		return "ip:" + d.Addr
	}
	return ""
}

// normalizeUSN lowercases the USN and strips the "uuid:" prefix and any
// "::" service suffix
func normalizeUSN(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "uuid:")
}

// ParseResponse decodes a search response or NOTIFY datagram. Returns nil
// when neither LOCATION nor USN is present.
func ParseResponse(data []byte, addr string) *Device {
	dev := &Device{Addr: addr, DiscoveredAt: time.Now()}

	for _, line := range strings.Split(string(data), "\r\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "LOCATION":
			dev.Location = value
		case "SERVER":
			dev.Server = value
		case "USN":
			dev.USN = value
		case "ST", "NT":
			dev.ST = value
		case "CACHE-CONTROL":
			dev.CacheControl = value
		}
	}

	if dev.Location == "" && dev.USN == "" {
		return nil
	}
	return dev
}
