package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")

	log, err := New(&Config{Level: LevelInfo, OutputPath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	log.Info("counter viewed", zap.String("counter", "warnings"))
	log.Debug("filtered out")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"counter":"warnings"`) {
		t.Fatalf("expected structured field in log file, got:\n%s", content)
	}
	if strings.Contains(content, "filtered out") {
		t.Fatalf("debug entry should be filtered at info level, got:\n%s", content)
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if got := ParseLevel("warn"); got != LevelWarn {
		t.Fatalf("expected warn, got %s", got)
	}
	if got := ParseLevel("loud"); got != LevelInfo {
		t.Fatalf("expected info fallback, got %s", got)
	}
}

func TestWithFields_KeepsConfig(t *testing.T) {
	log := NewNop()
	child := log.WithFields(zap.String("invocation_id", "abc"))
	if child.config != log.config {
		t.Fatal("child logger should share config")
	}
	if child.Sugar() == nil {
		t.Fatal("child logger should have sugared logger")
	}
}
