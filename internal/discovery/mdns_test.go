package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/simplehome/internal/ssdp"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantUSN      string
		wantLocation string
		wantName     string
	}{
		{
			name: "SimpleHome advertisement",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "SimpleHome Room"},
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/ssdp/schema.xml", "usn=uuid:aaaa", "st=" + ssdp.DefaultDeviceType},
			},
			wantUSN:      "uuid:aaaa",
			wantLocation: "http://192.168.4.16:80/ssdp/schema.xml",
			wantName:     "SimpleHome Room",
		},
		{
			name: "no port defaults to 80",
			entry: &zeroconf.ServiceEntry{
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{"path=desc.xml", "usn=uuid:bbbb"},
			},
			wantUSN:      "uuid:bbbb",
			wantLocation: "http://10.0.0.5:80/desc.xml",
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				Port:     8080,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"path=/x.xml", "usn=uuid:cccc"},
			},
			wantUSN:      "uuid:cccc",
			wantLocation: "http://[fe80::1]:8080/x.xml",
		},
		{
			name: "plain HTTP service without usn",
			entry: &zeroconf.ServiceEntry{
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
				Text:     []string{"path=/"},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				Text: []string{"usn=uuid:dddd"},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if dev != nil {
					t.Errorf("parseServiceEntry() = %+v, want nil", dev)
				}
				return
			}
			if dev == nil {
				t.Fatal("parseServiceEntry() = nil")
			}
			if dev.USN != tt.wantUSN {
				t.Errorf("USN = %v, want %v", dev.USN, tt.wantUSN)
			}
			if dev.Location != tt.wantLocation {
				t.Errorf("Location = %v, want %v", dev.Location, tt.wantLocation)
			}
			if dev.FriendlyName() != tt.wantName {
				t.Errorf("FriendlyName() = %v, want %v", dev.FriendlyName(), tt.wantName)
			}
		})
	}
}

func TestAdvertTXT(t *testing.T) {
	desc := ssdp.NewDescriptor()
	desc.UUID = "uuid:aaaa"

	got := advertTXT(desc)
	want := []string{"path=/ssdp/schema.xml", "usn=uuid:aaaa", "st=" + ssdp.DefaultDeviceType}
	if len(got) != len(want) {
		t.Fatalf("advertTXT() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("advertTXT()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAdvertiser_ShutdownNil(t *testing.T) {
	var a *Advertiser
	a.Shutdown()
}
