package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"bogus":    defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewCore_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(newCore(zapcore.InfoLevel, FormatJSON, zapcore.AddSync(&buf))).Sugar()

	log.Debugw("hidden")
	log.Infow("users_list", "count", 3)
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "users_list" || entry["level"] != "info" || entry["count"] != float64(3) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewCore_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(newCore(zapcore.DebugLevel, FormatConsole, zapcore.AddSync(&buf))).Sugar()

	log.Warnw("users_get_denied", "username", "bob")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "users_get_denied") || !strings.Contains(out, "bob") {
		t.Fatalf("unexpected console output: %q", out)
	}
}

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get(InfoLevel)
	b := Get(DebugLevel)
	if a != b {
		t.Fatalf("Get should return the same instance")
	}
}
