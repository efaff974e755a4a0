package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
)

func decodeOne(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogErrorTagsTypeAndOperation(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf, Component: ComponentMovement}))

	sl.LogError(context.Background(), "Failed to publish movement event", errors.New("channel closed"),
		ErrorTypeNetwork, OpPublish, LogFields{FieldMovementID: 3})

	entry := decodeOne(t, &buf)
	if entry["level"] != "ERROR" || entry["component"] != ComponentMovement {
		t.Fatalf("entry = %v", entry)
	}
	if entry[FieldErrorType] != ErrorTypeNetwork || entry[FieldOperation] != OpPublish {
		t.Fatalf("error_type/operation = %v/%v", entry[FieldErrorType], entry[FieldOperation])
	}
	if entry[FieldError] != "channel closed" || entry[FieldMovementID] != float64(3) {
		t.Fatalf("entry = %v", entry)
	}
}

func TestLogMovement(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	sl.LogMovement(context.Background(), OpCreate, 9, "GASTO", 1250, "Comida", "Banco")

	entry := decodeOne(t, &buf)
	if entry["msg"] != "Movement create completed" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry[FieldAmountCents] != float64(1250) || entry[FieldCategory] != "Comida" || entry[FieldAccount] != "Banco" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{503, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
		r := httptest.NewRequest("GET", "/api/movimientos?limit=5", nil)

		sl.LogHTTPEnd(context.Background(), r, tt.status, 12, "10.0.0.1")

		entry := decodeOne(t, &buf)
		if entry["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.level)
		}
		if entry[FieldQuery] != "limit=5" || entry[FieldSuccess] != (tt.status < 400) {
			t.Errorf("status %d: entry = %v", tt.status, entry)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("component = %q", got.Component())
	}
	want := New(Config{Output: &bytes.Buffer{}}).With(NewFields().WithRequestID("abc").ToSlice()...)
	ctx := context.WithValue(context.Background(), LoggerContextKey, want)
	if got := FromContext(ctx); got != want {
		t.Fatal("logger from context not returned")
	}
}
