package http

import (
	"net/http"
	"strconv"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/whatsapp"
)

func (s *Server) requireConsole(w http.ResponseWriter) bool {
	if s.deps.Console == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "WhatsApp test console is not configured")
		return false
	}
	return true
}

func (s *Server) handleWhatsAppFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, whatsapp.Formats())
}

func (s *Server) handleWhatsAppConfig(w http.ResponseWriter, r *http.Request) {
	if !s.requireConsole(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Console.Config())
}

// handleWhatsAppTest returns the recorded outcome, including webhook failures
// which are stored with status ERROR.
func (s *Server) handleWhatsAppTest(w http.ResponseWriter, r *http.Request) {
	if !s.requireConsole(w) {
		return
	}
	var req whatsapp.TestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	msg, err := s.deps.Console.Send(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleWhatsAppMessages(w http.ResponseWriter, r *http.Request) {
	if !s.requireConsole(w) {
		return
	}
	query := r.URL.Query()
	var status core.MessageStatus
	if v := strings.TrimSpace(query.Get("estado")); v != "" {
		st, ok := core.ParseMessageStatus(v)
		if !ok {
			badRequest(w, "invalid estado "+strconv.Quote(v))
			return
		}
		status = st
	}
	limit := 0
	if v := strings.TrimSpace(query.Get("limite")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "invalid limite "+strconv.Quote(v))
			return
		}
		limit = n
	}
	msgs, err := s.deps.Console.Messages(r.Context(), status, limit)
	writeList(w, r, msgs, err)
}
