package rflog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf})

	logger.Debug("debug msg")
	if !strings.Contains(buf.String(), "debug msg") {
		t.Error("debug logging failed")
	}

	buf.Reset()
	logger.Info("info msg")
	if !strings.Contains(buf.String(), "info msg") {
		t.Error("info logging failed")
	}

	buf.Reset()
	logger.Warn("warn msg")
	if !strings.Contains(buf.String(), "[warn]") {
		t.Error("warn logging failed")
	}
}

func TestLoggerComponentTag(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf})

	logger.Component("gateway").Info("resolved route", "key", "10.0.0.0/24")
	out := buf.String()
	if !strings.Contains(out, "[gateway]") {
		t.Errorf("expected component tag in output, got %q", out)
	}
	if !strings.Contains(out, "key=10.0.0.0/24") {
		t.Errorf("expected attr in output, got %q", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output below configured level, got %q", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("expected output at configured level")
	}
}
