// Package ui provides terminal output components for the simplehome CLI.
//
// Components follow a "render once and print" pattern built on Lipgloss:
//
//   - Header: Command banner showing operation name and parameters
//   - Result: Success/failure boxes with styled details
//   - RenderDevices: Table of devices found by an SSDP search
//   - RenderDescription: Fields of a device description document
//   - RenderEvent: One-line rendering of an engine event
//
// # Logging Integration
//
// This package expects logging to be controlled via the SIMPLEHOME_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set SIMPLEHOME_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
package ui
