package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLoggerWritesServiceAndWeek(t *testing.T) {
	var buf bytes.Buffer
	logger := WithWeek(newLogger(&buf, "study-tracker"), "W3")
	logger.Info("week saved", "fields", []string{"progress"})

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["service"] != "study-tracker" {
		t.Errorf("service = %v", record["service"])
	}
	if record["week_id"] != "W3" {
		t.Errorf("week_id = %v", record["week_id"])
	}
	if record["msg"] != "week saved" {
		t.Errorf("msg = %v", record["msg"])
	}
	if _, ok := record["source"]; !ok {
		t.Error("expected source location in record")
	}
}
