// Package ssdp implements the responder side of the Simple Service Discovery
// Protocol used by UPnP devices to announce themselves on the local network.
//
// The engine answers M-SEARCH discovery queries and periodically multicasts
// NOTIFY (ssdp:alive) announcements. It also renders the XML device
// description document that control points fetch from the LOCATION URL.
//
// # Wire Protocol
//
// SSDP carries HTTP-like headers over UDP datagrams on port 1900, multicast
// group 239.255.255.250 (IPv4 only). A discovery query looks like:
//
//	M-SEARCH * HTTP/1.1\r\n
//	HOST: 239.255.255.250:1900\r\n
//	MAN: "ssdp:discover"\r\n
//	MX: 3\r\n
//	ST: ssdp:all\r\n
//	\r\n
//
// Only the request line and the MAN, ST and MX headers are interpreted.
// Everything else on the segment (NOTIFY traffic from other devices, HTTP
// responses, garbage) is dropped silently.
//
// # Components
//
//   - Descriptor: the static identity of the advertised device
//   - Parser: byte-level state machine classifying one inbound datagram
//   - Scheduler: single-slot deferred response plus the periodic notify timer
//   - Build* functions: render search responses, notifies and the description
//   - Transport: UDP multicast socket abstraction (UDPTransport in production)
//   - Engine: composition root with Begin/End/Tick lifecycle
//
// # Usage Example
//
//	desc := ssdp.NewDescriptor()
//	desc.FriendlyName = "SimpleHome Kitchen"
//	desc.Port = 8080
//
//	engine := ssdp.NewEngine(desc, ssdp.Options{
//	    Transport: ssdp.NewUDPTransport(),
//	})
//
//	// Run blocks, ticking once per second until ctx is cancelled.
//	if err := engine.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Timing
//
// A search with MX = m is answered after a delay drawn uniformly from
// [0, m) whole seconds. Announcements repeat every Descriptor.Interval
// seconds; the first one goes out on the first tick after Begin. When a
// response and a notify are due on the same tick, only the response is sent.
//
// # Thread Safety
//
// Tick is non-reentrant: a call that arrives while another tick is still
// running returns immediately without touching state. Begin, End, Tick and
// Status may be called from different goroutines.
package ssdp
