package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLoggerWith(&buf, "production")

	log.Debugf("hidden %d", 1)
	log.Errorf(errors.New("boom"), "failed to create product %d", 5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record (debug suppressed), got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "failed to create product 5" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["error"] != "boom" {
		t.Errorf("error = %v", rec["error"])
	}
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLoggerWith(&buf, "development").With("request_id", "abc")

	log.Infof("hello")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("expected attribute in %q", buf.String())
	}
}
