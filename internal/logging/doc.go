// Package logging provides structured logging for the SimpleHome discovery daemon.
//
// This package wraps a global zap logger with convenience functions used
// throughout the daemon, plus helpers for SSDP datagram and engine logging.
//
// # Log Levels
//
//   - Debug: datagram hex dumps, dropped datagrams, MAN headers, notifies
//   - Info: session start/stop, accepted searches, responses, HTTP requests
//   - Warn: send failures, socket option failures
//   - Error: startup failures
//
// # Configuration
//
// Initialize logging at startup. An empty level falls back to the
// SIMPLEHOME_LOG_LEVEL environment variable; if that is empty too, logging
// is silent.
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has run.
package logging
