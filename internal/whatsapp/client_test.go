package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finanzas/internal/core"
)

func TestNewPayload(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	p := NewPayload("+34912345678", "GASTO 15 Transporte", now)
	if p.MessageID != "test_1717236000000" {
		t.Fatalf("message id = %q", p.MessageID)
	}
	if p.Timestamp != "2024-06-01T10:00:00Z" {
		t.Fatalf("timestamp = %q", p.Timestamp)
	}
}

func TestClientSend(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":9,"estado":"COMPLETADO","respuestaBot":"Gasto registrado"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	reply, err := c.Send(context.Background(), Payload{From: "+34912345678", Text: "GASTO 15 Transporte", MessageID: "test_1"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.From != "+34912345678" || got.MessageID != "test_1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if reply.Status != "COMPLETADO" || reply.BotReply != "Gasto registrado" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if replyStatus(reply) != core.StatusCompleted {
		t.Fatalf("status = %s", replyStatus(reply))
	}
}

func TestClientSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Send(context.Background(), Payload{})
	if err == nil || !IsWebhookError(err) {
		t.Fatalf("expected webhook error, got %v", err)
	}
}

func TestClientSendPlainTextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Workflow was started"))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second).Send(context.Background(), Payload{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.BotReply != "Workflow was started" || replyStatus(reply) != core.StatusReceived {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestFormatsReturnsCopy(t *testing.T) {
	f := Formats()
	if len(f) != 3 {
		t.Fatalf("formats = %d, want 3", len(f))
	}
	f[0].Kind = "X"
	if Formats()[0].Kind != "GASTO" {
		t.Fatal("Formats must return a copy")
	}
}
