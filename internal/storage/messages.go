package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finanzas/internal/core"
)

// SaveMessage records a webhook test message and returns it with its id.
func (r *SQLiteRepository) SaveMessage(ctx context.Context, m core.WhatsAppMessage) (core.WhatsAppMessage, error) {
	var processed sql.NullString
	if m.ProcessedAt != nil {
		processed = sql.NullString{String: formatTimestamp(*m.ProcessedAt), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO whatsapp_mensaje (message_id, numero_telefonico, mensaje_original, estado, respuesta_bot, error_mensaje, fecha_recepcion, fecha_procesamiento)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MessageID, m.Phone, m.Text, string(m.Status), m.BotReply, m.Error, formatTimestamp(m.ReceivedAt), processed)
	if err != nil {
		return core.WhatsAppMessage{}, fmt.Errorf("save whatsapp message: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return core.WhatsAppMessage{}, fmt.Errorf("save whatsapp message: %w", err)
	}
	return m, nil
}

// ListMessages returns recorded messages newest first, optionally only those
// in status.
func (r *SQLiteRepository) ListMessages(ctx context.Context, status core.MessageStatus, limit int) ([]core.WhatsAppMessage, error) {
	query := `SELECT id, message_id, numero_telefonico, mensaje_original, estado, respuesta_bot, error_mensaje, fecha_recepcion, fecha_procesamiento
FROM whatsapp_mensaje`
	var args []any
	if status != "" {
		query += " WHERE estado = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY fecha_recepcion DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list whatsapp messages: %w", err)
	}
	defer rows.Close()

	out := []core.WhatsAppMessage{}
	for rows.Next() {
		var (
			m         core.WhatsAppMessage
			st        string
			received  string
			processed sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.MessageID, &m.Phone, &m.Text, &st, &m.BotReply, &m.Error, &received, &processed); err != nil {
			return nil, fmt.Errorf("scan whatsapp message: %w", err)
		}
		m.Status = core.MessageStatus(st)
		if m.ReceivedAt, err = parseTimestamp(received); err != nil {
			return nil, err
		}
		if m.ProcessedAt, err = parseOptionalTimestamp(processed); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
