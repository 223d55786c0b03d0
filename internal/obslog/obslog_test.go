package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogInvocationWritesSuccessRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger := New(DefaultConfig(path))

	LogInvocation(logger, "market-structure.py", 12*time.Millisecond, true, "", "")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `"script_path":"market-structure.py"`) {
		t.Fatalf("expected script_path field in log line, got %s", got)
	}
	if !strings.Contains(got, `"ok":true`) {
		t.Fatalf("expected ok:true in log line, got %s", got)
	}
}

func TestLogInvocationWritesErrorFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger := New(DefaultConfig(path))

	LogInvocation(logger, "bad.py", time.Millisecond, false, "ExecutionError", "boom")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `"error_type":"ExecutionError"`) {
		t.Fatalf("expected error_type field, got %s", got)
	}
	if !strings.Contains(got, `"error_message":"boom"`) {
		t.Fatalf("expected error_message field, got %s", got)
	}
}
