package ssdp

import (
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"strings"
	"time"
)

// Protocol constants
const (
	MulticastGroup = "239.255.255.250"
	Port           = 1900

	// DefaultDeviceType is advertised when no device type is configured
	DefaultDeviceType = "urn:schemas-upnp-org:device:Basic:1"
	DefaultSchemaURL  = "ssdp/schema.xml"
	DefaultPlatform   = "SimpleHome/1.0"
	DefaultHTTPPort   = 80
	DefaultTTL        = 2
	DefaultInterval   = 1200 // seconds

	// uuidPrefix is the fixed part of generated identifiers. The last three
	// bytes come from the chip id.
	uuidPrefix = "uuid:38323636-4558-4dda-9188-cda0e6"
)

// Field size limits, counted in bytes.
const (
	maxUUIDLen            = 41
	maxSchemaURLLen       = 63
	maxDeviceTypeLen      = 63
	maxFriendlyNameLen    = 63
	maxSerialNumberLen    = 36
	maxPresentationURLLen = 127
	maxModelNameLen       = 63
	maxModelURLLen        = 127
	maxModelNumberLen     = 31
	maxManufacturerLen    = 63
	maxManufacturerURLLen = 127
)

// Descriptor is the identity and timing configuration of the advertised device.
// It must not be modified after Engine.Begin.
type Descriptor struct {
	UUID            string `yaml:"uuid,omitempty"`        // Generated from the chip id when empty
	DeviceType      string `yaml:"device_type,omitempty"` // URN, e.g. urn:schemas-upnp-org:device:Basic:1
	FriendlyName    string `yaml:"friendly_name,omitempty"`
	SerialNumber    string `yaml:"serial_number,omitempty"`
	PresentationURL string `yaml:"presentation_url,omitempty"`
	Manufacturer    string `yaml:"manufacturer,omitempty"`
	ManufacturerURL string `yaml:"manufacturer_url,omitempty"`
	ModelName       string `yaml:"model_name,omitempty"`
	ModelURL        string `yaml:"model_url,omitempty"`
	ModelNumber     string `yaml:"model_number,omitempty"`
	SchemaURL       string `yaml:"schema_url,omitempty"` // Path of the description document, without leading slash

	// Platform is the first product token of the SERVER header (e.g. "SimpleHome/1.0")
	Platform string `yaml:"platform,omitempty"`

	Port     int `yaml:"port,omitempty"`     // Advertised HTTP port
	TTL      int `yaml:"ttl,omitempty"`      // Multicast TTL
	Interval int `yaml:"interval,omitempty"` // Notify period in seconds
}

// NewDescriptor returns a descriptor populated with default values.
func NewDescriptor() *Descriptor {
	return &Descriptor{
		DeviceType: DefaultDeviceType,
		SchemaURL:  DefaultSchemaURL,
		Platform:   DefaultPlatform,
		Port:       DefaultHTTPPort,
		TTL:        DefaultTTL,
		Interval:   DefaultInterval,
	}
}

// Normalize fills empty fields with defaults and truncates strings that
// exceed their size limits.
func (d *Descriptor) Normalize() {
	if d.DeviceType == "" {
		d.DeviceType = DefaultDeviceType
	}
	if d.SchemaURL == "" {
		d.SchemaURL = DefaultSchemaURL
	}
	d.SchemaURL = strings.TrimPrefix(d.SchemaURL, "/")
	if d.Platform == "" {
		d.Platform = DefaultPlatform
	}
	if d.Port <= 0 {
		d.Port = DefaultHTTPPort
	}
	if d.TTL <= 0 {
		d.TTL = DefaultTTL
	}
	if d.Interval <= 0 {
		d.Interval = DefaultInterval
	}

	d.UUID = truncate(d.UUID, maxUUIDLen)
	d.DeviceType = truncate(d.DeviceType, maxDeviceTypeLen)
	d.FriendlyName = truncate(d.FriendlyName, maxFriendlyNameLen)
	d.SerialNumber = truncate(d.SerialNumber, maxSerialNumberLen)
	d.PresentationURL = truncate(d.PresentationURL, maxPresentationURLLen)
	d.Manufacturer = truncate(d.Manufacturer, maxManufacturerLen)
	d.ManufacturerURL = truncate(d.ManufacturerURL, maxManufacturerURLLen)
	d.ModelName = truncate(d.ModelName, maxModelNameLen)
	d.ModelURL = truncate(d.ModelURL, maxModelURLLen)
	d.ModelNumber = truncate(d.ModelNumber, maxModelNumberLen)
	d.SchemaURL = truncate(d.SchemaURL, maxSchemaURLLen)
}

// NotifyInterval returns the announcement period as a duration.
func (d *Descriptor) NotifyInterval() time.Duration {
	return time.Duration(d.Interval) * time.Second
}

// UDN returns the Unique Device Name used in the description document.
func (d *Descriptor) UDN() string {
	if strings.HasPrefix(d.UUID, "uuid:") {
		return d.UUID
	}
	return "uuid:" + d.UUID
}

// Location returns the URL of the description document as advertised to
// control points.
func (d *Descriptor) Location(localIP net.IP) string {
	return fmt.Sprintf("http://%s:%d/%s", localIP, d.Port, d.SchemaURL)
}

// UUIDFromChipID renders the device identifier for a 24-bit chip id.
func UUIDFromChipID(chipID uint32) string {
	return fmt.Sprintf("%s%02x%02x%02x", uuidPrefix,
		(chipID>>16)&0xff,
		(chipID>>8)&0xff,
		chipID&0xff,
	)
}

// ChipID derives a 24-bit hardware identifier. The low three bytes of the
// hardware address are used when available, otherwise a hash of the host name.
func ChipID(hw net.HardwareAddr) uint32 {
	if len(hw) >= 3 {
		n := len(hw)
		return uint32(hw[n-3])<<16 | uint32(hw[n-2])<<8 | uint32(hw[n-1])
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	return h.Sum32() & 0xffffff
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
