package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "simplehome") {
		t.Errorf("GetConfigDir() = %v, should contain 'simplehome'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" {
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	want := filepath.Join(dir, "simplehome", "config.yaml")
	if got != want {
		t.Errorf("GetConfigPath() = %v, want %v", got, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.RoomName != DefaultRoomName {
		t.Errorf("RoomName = %v, want %v", s.RoomName, DefaultRoomName)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	s := NewSettings()
	s.RoomName = "Garage"
	s.TickInterval = 500 * time.Millisecond
	s.MDNS = true
	s.Device.UUID = "uuid:saved"
	s.Device.Interval = 90

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# SimpleHome Configuration File") {
		t.Error("header comment missing")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RoomName != "Garage" {
		t.Errorf("RoomName = %v, want Garage", loaded.RoomName)
	}
	if loaded.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v, want 500ms", loaded.TickInterval)
	}
	if !loaded.MDNS {
		t.Error("MDNS = false, want true")
	}
	if loaded.Device.UUID != "uuid:saved" || loaded.Device.Interval != 90 {
		t.Errorf("Device = %+v", loaded.Device)
	}
	if !Exists(path) {
		t.Error("Exists() = false after Save")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(*Settings) bool
	}{
		{
			name:  "partial file keeps defaults",
			data:  "version: 1\nroom_name: Attic\n",
			check: func(s *Settings) bool { return s.RoomName == "Attic" && s.HTTPPort == 80 && s.Device != nil },
		},
		{
			name:  "device block",
			data:  "version: 1\ndevice:\n  friendly_name: Porch\n  ttl: 4\n",
			check: func(s *Settings) bool { return s.Device.FriendlyName == "Porch" && s.Device.TTL == 4 },
		},
		{
			name:  "duration",
			data:  "version: 1\ntick_interval: 2s\n",
			check: func(s *Settings) bool { return s.TickInterval == 2*time.Second },
		},
		{
			name:    "future version",
			data:    "version: 2\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			data:    "room_name: [unterminated\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(s) {
				t.Errorf("Parse() = %+v", s)
			}
		})
	}
}
