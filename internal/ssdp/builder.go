package ssdp

import (
	"encoding/xml"
	"fmt"
	"net"
	"strings"
)

// Start lines and fixed headers of the two outbound datagram kinds
const (
	responseHeader = "HTTP/1.1 200 OK\r\n" +
		"EXT:\r\n"

	notifyHeader = "NOTIFY * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"NTS: ssdp:alive\r\n"
)

// DescriptionNamespace is the XML namespace of the device description root
const DescriptionNamespace = "urn:schemas-upnp-org:device-1-0"

// BuildSearchResponse renders the unicast reply to an accepted M-SEARCH.
// The ST header carries the UUID when target is TargetUUID and the device
// type otherwise.
func BuildSearchResponse(d *Descriptor, localIP net.IP, target TargetKind) []byte {
	st := d.DeviceType
	if target == TargetUUID {
		st = d.UUID
	}
	return buildPacket(d, localIP, responseHeader, "ST", st)
}

// BuildNotify renders the periodic ssdp:alive announcement. Notifies always
// advertise the device type.
func BuildNotify(d *Descriptor, localIP net.IP) []byte {
	return buildPacket(d, localIP, notifyHeader, "NT", d.DeviceType)
}

func buildPacket(d *Descriptor, localIP net.IP, start, targetHeader, target string) []byte {
	var b strings.Builder
	b.WriteString(start)
	fmt.Fprintf(&b, "CACHE-CONTROL: max-age=%d\r\n", d.Interval)
	fmt.Fprintf(&b, "SERVER: %s\r\n", ServerToken(d))
	fmt.Fprintf(&b, "USN: %s\r\n", d.UUID)
	fmt.Fprintf(&b, "%s: %s\r\n", targetHeader, target)
	fmt.Fprintf(&b, "LOCATION: %s\r\n", d.Location(localIP))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// ServerToken returns the SERVER header value: platform, UPnP version and
// the model product token.
func ServerToken(d *Descriptor) string {
	return fmt.Sprintf("%s UPNP/1.1 %s/%s", d.Platform, d.ModelName, d.ModelNumber)
}

// BuildSearchRequest renders an M-SEARCH datagram for target with the given
// MX bound. Used by control points and tests.
func BuildSearchRequest(target string, mx int) []byte {
	return []byte(fmt.Sprintf("M-SEARCH * HTTP/1.1\r\n"+
		"HOST: %s:%d\r\n"+
		"MAN: \"ssdp:discover\"\r\n"+
		"ST: %s\r\n"+
		"MX: %d\r\n\r\n", MulticastGroup, Port, target, mx))
}

// Description is the root element of the device description document
type Description struct {
	XMLName     xml.Name          `xml:"urn:schemas-upnp-org:device-1-0 root"`
	SpecVersion SpecVersion       `xml:"specVersion"`
	URLBase     string            `xml:"URLBase"`
	Device      DescriptionDevice `xml:"device"`
}

// SpecVersion is the UPnP architecture version of the document
type SpecVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

// DescriptionDevice carries the device metadata fields
type DescriptionDevice struct {
	DeviceType      string `xml:"deviceType"`
	FriendlyName    string `xml:"friendlyName"`
	PresentationURL string `xml:"presentationURL"`
	SerialNumber    string `xml:"serialNumber"`
	ModelName       string `xml:"modelName"`
	ModelNumber     string `xml:"modelNumber"`
	ModelURL        string `xml:"modelURL"`
	Manufacturer    string `xml:"manufacturer"`
	ManufacturerURL string `xml:"manufacturerURL"`
	UDN             string `xml:"UDN"`
}

// NewDescription builds the description document model for d
func NewDescription(d *Descriptor, localIP net.IP) *Description {
	return &Description{
		SpecVersion: SpecVersion{Major: 1, Minor: 0},
		URLBase:     fmt.Sprintf("http://%s:%d/", localIP, d.Port),
		Device: DescriptionDevice{
			DeviceType:      d.DeviceType,
			FriendlyName:    d.FriendlyName,
			PresentationURL: d.PresentationURL,
			SerialNumber:    d.SerialNumber,
			ModelName:       d.ModelName,
			ModelNumber:     d.ModelNumber,
			ModelURL:        d.ModelURL,
			Manufacturer:    d.Manufacturer,
			ManufacturerURL: d.ManufacturerURL,
			UDN:             d.UDN(),
		},
	}
}

// BuildDescription renders the XML device description document served at
// the schema URL.
func BuildDescription(d *Descriptor, localIP net.IP) ([]byte, error) {
	body, err := xml.Marshal(NewDescription(d, localIP))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal device description: %w", err)
	}

	doc := make([]byte, 0, len(xmlDeclaration)+len(body)+2)
	doc = append(doc, xmlDeclaration...)
	doc = append(doc, body...)
	doc = append(doc, "\r\n"...)
	return doc, nil
}

const xmlDeclaration = `<?xml version="1.0"?>`

// ParseDescription decodes a device description document
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	if err := xml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse device description: %w", err)
	}
	return &desc, nil
}
