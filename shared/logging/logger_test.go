package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"station-relay/shared/config"
)

func TestNewLoggerProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{AppEnv: "prod"}, "1.2.3", "weather-relay")

	logger.Info("cycle finished", "outcome", "uploaded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"msg":     "cycle finished",
		"app":     "weather-relay",
		"version": "1.2.3",
		"env":     "prod",
		"outcome": "uploaded",
	} {
		if entry[key] != want {
			t.Errorf("Expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestNewLoggerDevIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{AppEnv: "dev"}, "dev", "weather-relay")

	logger.Info("starting")

	out := buf.String()
	if !strings.Contains(out, "starting") || !strings.Contains(out, "weather-relay") {
		t.Errorf("Expected message and app name in output, got %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("Expected non-JSON output in dev, got %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	// Zero-value level is info, so debug lines are dropped.
	logger := newLogger(&buf, config.LoggingConfig{AppEnv: "prod"}, "1.0.0", "weather-relay")

	logger.Debug("noisy")

	if buf.Len() != 0 {
		t.Errorf("Expected debug line to be filtered, got %q", buf.String())
	}
}
