package ssdp

import (
	"net"
	"strings"
	"testing"
)

func builderDescriptor() *Descriptor {
	d := NewDescriptor()
	d.UUID = "uuid:38323636-4558-4dda-9188-cda0e6123456"
	d.FriendlyName = "SimpleHome Kitchen"
	d.SerialNumber = "123456"
	d.ModelName = "SimpleHome"
	d.ModelNumber = "2.1"
	d.Manufacturer = "SimpleHome"
	d.ManufacturerURL = "https://example.org"
	return d
}

func TestBuildSearchResponse(t *testing.T) {
	d := builderDescriptor()
	ip := net.IPv4(192, 168, 0, 10)

	tests := []struct {
		name   string
		target TargetKind
		wantST string
	}{
		{"device type", TargetDeviceType, "ST: " + DefaultDeviceType + "\r\n"},
		{"uuid", TargetUUID, "ST: " + d.UUID + "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := "HTTP/1.1 200 OK\r\n" +
				"EXT:\r\n" +
				"CACHE-CONTROL: max-age=1200\r\n" +
				"SERVER: SimpleHome/1.0 UPNP/1.1 SimpleHome/2.1\r\n" +
				"USN: " + d.UUID + "\r\n" +
				tt.wantST +
				"LOCATION: http://192.168.0.10:80/ssdp/schema.xml\r\n" +
				"\r\n"

			got := string(BuildSearchResponse(d, ip, tt.target))
			if got != want {
				t.Errorf("BuildSearchResponse() =\n%q\nwant\n%q", got, want)
			}
		})
	}
}

func TestBuildNotify(t *testing.T) {
	d := builderDescriptor()
	got := string(BuildNotify(d, net.IPv4(192, 168, 0, 10)))

	want := "NOTIFY * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"NTS: ssdp:alive\r\n" +
		"CACHE-CONTROL: max-age=1200\r\n" +
		"SERVER: SimpleHome/1.0 UPNP/1.1 SimpleHome/2.1\r\n" +
		"USN: " + d.UUID + "\r\n" +
		"NT: " + DefaultDeviceType + "\r\n" +
		"LOCATION: http://192.168.0.10:80/ssdp/schema.xml\r\n" +
		"\r\n"
	if got != want {
		t.Errorf("BuildNotify() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildSearchRequest_RoundTrip(t *testing.T) {
	p := NewParser(DefaultDeviceType, "uuid:aaaa")

	req, ok := p.Parse(BuildSearchRequest(SearchTargetAll, 4))
	if !ok {
		t.Fatal("Parse() rejected BuildSearchRequest output")
	}
	if req.MX != 4 {
		t.Errorf("MX = %v, want 4", req.MX)
	}
	if req.MAN != `"ssdp:discover"` {
		t.Errorf("MAN = %v, want \"ssdp:discover\"", req.MAN)
	}
}

func TestBuildDescription(t *testing.T) {
	d := builderDescriptor()
	doc, err := BuildDescription(d, net.IPv4(192, 168, 0, 10))
	if err != nil {
		t.Fatalf("BuildDescription() error = %v", err)
	}

	text := string(doc)
	if !strings.HasPrefix(text, `<?xml version="1.0"?><root xmlns="urn:schemas-upnp-org:device-1-0">`) {
		t.Errorf("unexpected document start: %q", text[:80])
	}
	if !strings.HasSuffix(text, "</root>\r\n") {
		t.Errorf("unexpected document end: %q", text[len(text)-20:])
	}
	for _, want := range []string{
		"<specVersion><major>1</major><minor>0</minor></specVersion>",
		"<URLBase>http://192.168.0.10:80/</URLBase>",
		"<deviceType>urn:schemas-upnp-org:device:Basic:1</deviceType>",
		"<friendlyName>SimpleHome Kitchen</friendlyName>",
		"<UDN>uuid:38323636-4558-4dda-9188-cda0e6123456</UDN>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("description missing %q", want)
		}
	}

	parsed, err := ParseDescription(doc)
	if err != nil {
		t.Fatalf("ParseDescription() error = %v", err)
	}
	if parsed.Device.SerialNumber != "123456" {
		t.Errorf("SerialNumber = %v, want 123456", parsed.Device.SerialNumber)
	}
}

func TestBuildDescription_EscapesMarkup(t *testing.T) {
	d := builderDescriptor()
	d.FriendlyName = "Kids <Room> & Hall"

	doc, err := BuildDescription(d, net.IPv4(10, 0, 0, 1))
	if err != nil {
		t.Fatalf("BuildDescription() error = %v", err)
	}
	if !strings.Contains(string(doc), "Kids &lt;Room&gt; &amp; Hall") {
		t.Errorf("friendlyName not escaped:\n%s", doc)
	}
}

func TestParseDescription_Invalid(t *testing.T) {
	if _, err := ParseDescription([]byte("<root><device>")); err == nil {
		t.Error("ParseDescription() error = nil, want error")
	}
}
