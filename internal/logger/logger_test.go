package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	defer atom.SetLevel(atom.Level())

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"Warning", false},
		{"error", false},
		{"", false},
		{"chatty", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := SetLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestConfigure_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlsvhost.log")

	if err := Configure("info", path); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	defer Configure("info", "")

	Info("selected %s", "example.com")
	Debug("hidden %s", "detail")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "selected example.com") {
		t.Errorf("log file missing info line, got %q", data)
	}
	if strings.Contains(string(data), "hidden detail") {
		t.Errorf("debug line written at info level")
	}
}
