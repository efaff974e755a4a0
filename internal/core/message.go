package core

import (
	"strings"
	"time"
)

// MessageStatus tracks a webhook message through external processing.
type MessageStatus string

const (
	StatusReceived          MessageStatus = "RECIBIDO"
	StatusProcessing        MessageStatus = "PROCESANDO"
	StatusCompleted         MessageStatus = "COMPLETADO"
	StatusError             MessageStatus = "ERROR"
	StatusNeedsIntervention MessageStatus = "REQUIERE_INTERVENCION"
)

func ParseMessageStatus(s string) (MessageStatus, bool) {
	switch st := MessageStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusReceived, StatusProcessing, StatusCompleted, StatusError, StatusNeedsIntervention:
		return st, true
	}
	return "", false
}

// WhatsAppMessage records one message sent to the webhook and what came back.
type WhatsAppMessage struct {
	ID          int64         `json:"id"`
	MessageID   string        `json:"messageId"`
	Phone       string        `json:"numeroTelefonico"`
	Text        string        `json:"mensajeOriginal"`
	Status      MessageStatus `json:"estado"`
	BotReply    string        `json:"respuestaBot,omitempty"`
	Error       string        `json:"errorMensaje,omitempty"`
	ReceivedAt  time.Time     `json:"fechaRecepcion"`
	ProcessedAt *time.Time    `json:"fechaProcesamiento,omitempty"`
}

func (m WhatsAppMessage) Key() int64 { return m.ID }
