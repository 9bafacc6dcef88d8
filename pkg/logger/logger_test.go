package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/blackswan/backend/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "info level",
			cfg:       &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:      "warn level",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "json"},
			wantLevel: zerolog.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(tt.cfg, &buf)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v (%s)", err, buf.String())
	}
	return entry
}

func TestServiceAndEnvFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{Env: "staging", LogLevel: "debug", LogFormat: "json"}, &buf)

	logger.Info("started")

	entry := decodeEntry(t, &buf)
	if entry["service"] != "blackswan" {
		t.Errorf("Expected service=blackswan, got %v", entry["service"])
	}
	if entry["env"] != "staging" {
		t.Errorf("Expected env=staging, got %v", entry["env"])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.WithFields(map[string]interface{}{
		"keyword": "covid",
		"date":    "2020-03-16",
		"score":   2,
	}).Info("signal scored")

	entry := decodeEntry(t, &buf)
	if entry["keyword"] != "covid" {
		t.Errorf("Expected keyword=covid, got %v", entry["keyword"])
	}
	if entry["date"] != "2020-03-16" {
		t.Errorf("Expected date=2020-03-16, got %v", entry["date"])
	}
	if entry["score"] != float64(2) {
		t.Errorf("Expected score=2, got %v", entry["score"])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.WithComponent("trends").Warn("throttled")

	entry := decodeEntry(t, &buf)
	if entry["component"] != "trends" {
		t.Errorf("Expected component=trends, got %v", entry["component"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected level=warn, got %v", entry["level"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.WithError(errors.New("gamma timeout")).Error("listing failed")

	entry := decodeEntry(t, &buf)
	if entry["error"] != "gamma timeout" {
		t.Errorf("Expected error='gamma timeout', got %v", entry["error"])
	}
	if entry["message"] != "listing failed" {
		t.Errorf("Expected message 'listing failed', got %v", entry["message"])
	}
}

func TestConsoleFormat(t *testing.T) {
	for _, format := range []string{"console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: format}, &buf)
			logger.Info("test message")

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
			}
		})
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.WithField("k", "v").Info("discarded")
	logger.Errorf("also %s", "discarded")
}
