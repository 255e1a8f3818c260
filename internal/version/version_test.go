package version

import (
	"strings"
	"testing"
)

func TestProduct(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	tests := []struct {
		version string
		want    string
	}{
		{"v1.2.3", "SimpleHome/1.2.3"},
		{"1.0", "SimpleHome/1.0"},
		{"dev", "SimpleHome/dev"},
	}
	for _, tt := range tests {
		Version = tt.version
		if got := Product(); got != tt.want {
			t.Errorf("Product() with %q = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestFull(t *testing.T) {
	if !strings.Contains(Full(), "commit: ") {
		t.Errorf("Full() = %v, missing commit", Full())
	}
	if Version == "" || Commit == "" {
		t.Error("init() left Version or Commit empty")
	}
}
