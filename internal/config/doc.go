// Package config manages the SimpleHome settings file.
//
// The settings file is YAML and holds the persistent identity of the
// advertised device: room name, network interface, HTTP port, log level and
// overrides for every device descriptor field. Fields left empty take
// computed defaults, so a missing file is a valid configuration.
//
// # File Location
//
//   - Linux: $XDG_CONFIG_HOME/simplehome/config.yaml or $HOME/.config/simplehome/config.yaml
//   - macOS: $HOME/.config/simplehome/config.yaml
//   - Windows: %LOCALAPPDATA%\simplehome\config.yaml
//
// Every function taking a path treats an empty path as the default location.
//
// # Usage Example
//
//	settings, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := settings.Set("room_name", "Kitchen"); err != nil {
//	    log.Fatal(err)
//	}
//	desc := settings.Descriptor(version.Product())
//
//	if err := settings.Save(""); err != nil {
//	    log.Fatal(err)
//	}
//
// Saves are atomic (temporary file and rename) and serialized by a mutex.
package config
