package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/jhleee/geo-search-api/internal/config"
)

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogFormatJSON, slog.LevelInfo)

	logger.Info("index trained", "centroids", 100)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "index trained" {
		t.Errorf("expected msg %q, got %v", "index trained", record["msg"])
	}
	if record["centroids"] != float64(100) {
		t.Errorf("expected centroids 100, got %v", record["centroids"])
	}
}

func TestNewWithWriter_PrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogFormatPretty, slog.LevelInfo)

	logger.Info("server started", "addr", ":8080")

	output := buf.String()
	if !strings.Contains(output, "server started") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "INF") {
		t.Errorf("expected level marker in output, got: %s", output)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogFormatJSON, slog.LevelWarn)

	logger.Info("filtered out")
	logger.Warn("kept")

	output := buf.String()
	if strings.Contains(output, "filtered out") {
		t.Errorf("info record should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "kept") {
		t.Errorf("warn record should be kept, got: %s", output)
	}
}

func TestNew_UsesConfig(t *testing.T) {
	logger := New(config.NewAppConfig())
	if logger == nil {
		t.Fatal("New should not return nil")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default level should enable info")
	}
}
