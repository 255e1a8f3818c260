package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/simplehome/internal/ssdp"
)

// CurrentVersion is the settings file format version
const CurrentVersion = 1

// Defaults for fields that are not set in the file
const (
	DefaultRoomName     = "Room"
	DefaultHTTPPort     = ssdp.DefaultHTTPPort
	DefaultTickInterval = time.Second
	DefaultModelName    = "SimpleHome"
	DefaultManufacturer = "SimpleHome"
)

// Settings represents the entire settings file.
// It is the persistent identity store of the advertised device.
type Settings struct {
	Version      int           `yaml:"version"`
	RoomName     string        `yaml:"room_name"`
	Interface    string        `yaml:"interface,omitempty"` // Empty selects the first multicast-capable interface
	HTTPPort     int           `yaml:"http_port"`
	TickInterval time.Duration `yaml:"tick_interval"`
	LogLevel     string        `yaml:"log_level,omitempty"`
	MDNS         bool          `yaml:"mdns"` // Advertise the description service over mDNS

	// Device holds descriptor overrides. Empty fields take computed defaults.
	Device *ssdp.Descriptor `yaml:"device,omitempty"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:      CurrentVersion,
		RoomName:     DefaultRoomName,
		HTTPPort:     DefaultHTTPPort,
		TickInterval: DefaultTickInterval,
		Device:       &ssdp.Descriptor{},
	}
}

// applyDefaults fills zero values left by a partial file
func (s *Settings) applyDefaults() {
	if s.RoomName == "" {
		s.RoomName = DefaultRoomName
	}
	if s.HTTPPort <= 0 {
		s.HTTPPort = DefaultHTTPPort
	}
	if s.TickInterval <= 0 {
		s.TickInterval = DefaultTickInterval
	}
	if s.Device == nil {
		s.Device = &ssdp.Descriptor{}
	}
}

// FriendlyName returns the configured friendly name, or one derived from the room.
func (s *Settings) FriendlyName() string {
	if s.Device != nil && s.Device.FriendlyName != "" {
		return s.Device.FriendlyName
	}
	return "SimpleHome " + s.RoomName
}

// Descriptor returns the effective device descriptor: the file's overrides
// on top of computed defaults. platform is the SERVER product token used
// when none is configured.
func (s *Settings) Descriptor(platform string) *ssdp.Descriptor {
	d := ssdp.NewDescriptor()
	if s.Device != nil {
		overlay(d, s.Device)
	}

	d.FriendlyName = s.FriendlyName()
	if s.Device == nil || s.Device.Port == 0 {
		d.Port = s.HTTPPort
	}
	if (s.Device == nil || s.Device.Platform == "") && platform != "" {
		d.Platform = platform
	}
	if d.ModelName == "" {
		d.ModelName = DefaultModelName
	}
	if d.Manufacturer == "" {
		d.Manufacturer = DefaultManufacturer
	}
	d.Normalize()
	return d
}

// overlay copies the non-zero fields of src onto dst
func overlay(dst, src *ssdp.Descriptor) {
	for _, f := range deviceFields {
		if v := *f.field(src); v != "" {
			*f.field(dst) = v
		}
	}
	if src.Port > 0 {
		dst.Port = src.Port
	}
	if src.TTL > 0 {
		dst.TTL = src.TTL
	}
	if src.Interval > 0 {
		dst.Interval = src.Interval
	}
}

// deviceField maps a settings key to a string field of the descriptor
type deviceField struct {
	key   string
	field func(*ssdp.Descriptor) *string
}

var deviceFields = []deviceField{
	{"uuid", func(d *ssdp.Descriptor) *string { return &d.UUID }},
	{"device_type", func(d *ssdp.Descriptor) *string { return &d.DeviceType }},
	{"friendly_name", func(d *ssdp.Descriptor) *string { return &d.FriendlyName }},
	{"serial_number", func(d *ssdp.Descriptor) *string { return &d.SerialNumber }},
	{"presentation_url", func(d *ssdp.Descriptor) *string { return &d.PresentationURL }},
	{"manufacturer", func(d *ssdp.Descriptor) *string { return &d.Manufacturer }},
	{"manufacturer_url", func(d *ssdp.Descriptor) *string { return &d.ManufacturerURL }},
	{"model_name", func(d *ssdp.Descriptor) *string { return &d.ModelName }},
	{"model_url", func(d *ssdp.Descriptor) *string { return &d.ModelURL }},
	{"model_number", func(d *ssdp.Descriptor) *string { return &d.ModelNumber }},
	{"schema_url", func(d *ssdp.Descriptor) *string { return &d.SchemaURL }},
	{"platform", func(d *ssdp.Descriptor) *string { return &d.Platform }},
}

// Keys returns every key accepted by Set, in display order.
func Keys() []string {
	keys := []string{"room_name", "interface", "http_port", "tick_interval", "log_level", "mdns"}
	for _, f := range deviceFields {
		keys = append(keys, "device."+f.key)
	}
	return append(keys, "device.port", "device.ttl", "device.interval")
}

// Set assigns a single setting from its textual form.
func (s *Settings) Set(key, value string) error {
	s.applyDefaults()

	switch key {
	case "room_name":
		if value == "" {
			return fmt.Errorf("room_name must not be empty")
		}
		s.RoomName = value
	case "interface":
		s.Interface = value
	case "http_port":
		port, err := parsePort(value)
		if err != nil {
			return err
		}
		s.HTTPPort = port
	case "tick_interval":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid tick_interval %q: must be a positive duration", value)
		}
		s.TickInterval = d
	case "log_level":
		s.LogLevel = value
	case "mdns":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid mdns value %q: %w", value, err)
		}
		s.MDNS = b
	case "device.port":
		port, err := parsePort(value)
		if err != nil {
			return err
		}
		s.Device.Port = port
	case "device.ttl":
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		s.Device.TTL = n
	case "device.interval":
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		s.Device.Interval = n
	default:
		name, ok := strings.CutPrefix(key, "device.")
		if ok {
			for _, f := range deviceFields {
				if f.key == name {
					*f.field(s.Device) = value
					return nil
				}
			}
		}
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func parsePort(value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q: must be 1-65535", value)
	}
	return port, nil
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, value)
	}
	return n, nil
}
