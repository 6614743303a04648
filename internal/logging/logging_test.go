// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.Level)
	}
	if cfg.JSON {
		t.Error("Default should be text output")
	}
	if cfg.Output == nil {
		t.Error("Default output should be set")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("--set-src option deprecated, please use --match-set-src")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "--set-src option deprecated, please use --match-set-src") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNoticeIgnoresLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelError, Output: &buf})

	logger.Warn("filtered")
	logger.Notice("--dset option deprecated, please use --match-dset")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("warn line should be filtered at error level: %q", out)
	}
	if !strings.Contains(out, "--dset option deprecated, please use --match-dset") {
		t.Errorf("notice missing at error level: %q", out)
	}
}

func TestJSONComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf, JSON: true}).WithComponent("sets")

	logger.WithError(errors.New("boom")).Debug("registry request", "op", 8)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["component"] != "sets" {
		t.Errorf("Expected component sets, got %v", line["component"])
	}
	if line["msg"] != "registry request" {
		t.Errorf("Expected msg, got %v", line["msg"])
	}
	if line["error"] != "boom" {
		t.Errorf("Expected error boom, got %v", line["error"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"chatty", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(New(Config{Level: LevelInfo, Output: &buf}))
	WithComponent("cli").Info("hello")

	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "component=cli") {
		t.Errorf("unexpected default output %q", buf.String())
	}

	SetDefault(nil)
	if Default() == nil {
		t.Error("SetDefault(nil) must not clear the logger")
	}
}
