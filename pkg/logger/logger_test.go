package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func withObserver(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := current()
	SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestLogLevels(t *testing.T) {
	logs := withObserver(t)

	Debug("debug msg")
	Infof("info %s", "formatted")
	Warnw("warn kv", "key", "val")
	Error("error msg")

	if logs.Len() != 4 {
		t.Fatalf("expected 4 log entries, got %d", logs.Len())
	}
	messages := []string{logs.All()[0].Message, logs.All()[1].Message, logs.All()[2].Message, logs.All()[3].Message}
	want := []string{"debug msg", "info formatted", "warn kv", "error msg"}
	for i, w := range want {
		if messages[i] != w {
			t.Errorf("entry %d: got %q, want %q", i, messages[i], w)
		}
	}
}

func TestUnstructuredLogsEnvDefault(t *testing.T) {
	t.Setenv("MCPGW_UNSTRUCTURED_LOGS", "")
	if unstructuredLogs() {
		t.Error("expected unstructuredLogs() false by default")
	}
	t.Setenv("MCPGW_UNSTRUCTURED_LOGS", "true")
	if !unstructuredLogs() {
		t.Error("expected unstructuredLogs() true when env var set")
	}
}
