package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { logger = prev })
	return logs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitializeSilent(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	prev := logger
	defer func() { logger = prev }()

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("empty level should produce a silent logger")
	}
}

func TestLogDatagram(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogDatagram("received", "10.0.0.5:5000", []byte("M-SEARCH *\r\n"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["direction"] != "received" {
		t.Errorf("direction = %v, want received", fields["direction"])
	}
	if fields["ascii"] != "M-SEARCH *.." {
		t.Errorf("ascii = %q, want %q", fields["ascii"], "M-SEARCH *..")
	}
	if fields["length"] != int64(12) {
		t.Errorf("length = %v, want 12", fields["length"])
	}
}

func TestLogDatagramSkippedAboveDebug(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)
	LogDatagram("sent", "239.255.255.250:1900", []byte("NOTIFY"))
	if logs.Len() != 0 {
		t.Errorf("entries = %d, want 0", logs.Len())
	}
}

func TestLogEngineEventLevels(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogEngineEvent("notify_sent", "", "urn:schemas-upnp-org:device:Basic:1")
	LogEngineEvent("response_sent", "10.0.0.5:5000", "")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("notify level = %v, want debug", entries[0].Level)
	}
	if entries[1].Level != zapcore.InfoLevel {
		t.Errorf("response level = %v, want info", entries[1].Level)
	}
	if _, ok := entries[1].ContextMap()["target"]; ok {
		t.Error("empty target should be omitted")
	}
}

func TestDumpBounds(t *testing.T) {
	data := []byte(strings.Repeat("a", maxDumpBytes+10))

	if got := hexDump(data); !strings.HasSuffix(got, "...") || len(got) != 2*maxDumpBytes+3 {
		t.Errorf("hexDump length = %d, want %d", len(got), 2*maxDumpBytes+3)
	}
	if got := asciiDump(data); len(got) != maxDumpBytes {
		t.Errorf("asciiDump length = %d, want %d", len(got), maxDumpBytes)
	}
	if hexDump(nil) != "" || asciiDump(nil) != "" {
		t.Error("empty input should produce empty dumps")
	}
}
