package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseMovementFilter(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	movs, err := s.deps.Movements.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if movs == nil {
		movs = []core.Movement{}
	}
	writeJSON(w, http.StatusOK, movs)
}

func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Movements.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, ok := lookup.Get()
	if !ok {
		notFound(w, "movement", id)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var form core.MovementForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := s.deps.Movements.Create(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	w.Header().Set("Location", fmt.Sprintf("/api/movimientos/%d", m.ID))
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var form core.MovementForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := s.deps.Movements.Update(r.Context(), id, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handlePatchMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var patch core.MovementPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := s.deps.Movements.Patch(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Movements.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type registerResponse struct {
	Movement        core.Movement `json:"movimiento"`
	CategoryCreated bool          `json:"categoriaCreada"`
}

func (s *Server) handleRegisterMovement(w http.ResponseWriter, r *http.Request) {
	var form core.QuickForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, created, err := s.deps.Movements.Register(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	w.Header().Set("Location", fmt.Sprintf("/api/movimientos/%d", m.ID))
	writeJSON(w, http.StatusCreated, registerResponse{Movement: m, CategoryCreated: created})
}

// handleExportMovements streams the filtered movements and their summary as
// an xlsx workbook.
func (s *Server) handleExportMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseMovementFilter(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	movs, err := s.deps.Movements.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.summary(r, services.SummaryQuery{AccountID: filter.AccountID, Range: filter.Range})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Kind != "" || filter.CategoryID != 0 || filter.Limit != 0 {
		// The sheet must agree with the rows it sits next to.
		sum = core.ComputeSummary(movs, sum.OpeningBalance)
	}

	var buf bytes.Buffer
	if err := services.WriteMovementsXLSX(&buf, movs, sum); err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("movimientos-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
