// Package server runs a SimpleHome device: the SSDP discovery engine and
// the HTTP surface control points use after discovering it.
//
// # HTTP Routes
//
//	GET|HEAD /<schemaURL>   UPnP device description (text/xml, Connection: close)
//	GET      /status        JSON snapshot of the engine
//	GET      /events        WebSocket stream of engine events (JSON text frames)
//
// The description document is served only while a discovery session is
// running; otherwise the route answers 503. Other methods get 405.
//
// # Event Stream
//
// Every engine event (started, stopped, search_accepted, response_sent,
// notify_sent) is fanned out to /events subscribers. Publishing never
// blocks the engine tick: a subscriber that falls behind by more than its
// buffer is disconnected.
//
// # Usage Example
//
//	srv := server.New(&server.Config{MDNS: true}, desc, ssdp.Options{})
//
//	// Blocks until SIGINT/SIGTERM
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Embedders that own their own lifecycle call Run(ctx) instead.
package server
