package http

import (
	"net/http"
	"strconv"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

func summaryKey(q services.SummaryQuery) string {
	return strconv.FormatInt(q.AccountID, 10) + "|" + q.Range.From.String() + "|" + q.Range.To.String()
}

// summary serves from the cache when it can.
func (s *Server) summary(r *http.Request, q services.SummaryQuery) (core.Summary, error) {
	key := summaryKey(q)
	if sum, ok := s.summaryCache.Get(key); ok {
		s.logger.DebugContext(r.Context(), "Summary cache hit", "key", key)
		return sum, nil
	}
	gen := s.summaryCache.Generation()
	sum, err := s.loadSummary(r.Context(), q)
	if err != nil {
		return core.Summary{}, err
	}
	// A write purged the cache while we were reading; sum may predate it.
	if !s.summaryCache.SetIfGeneration(gen, key, sum) {
		s.logger.DebugContext(r.Context(), "Summary not cached, reports invalidated during read", "key", key)
	}
	return sum, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	account, err := queryID(query, "cuenta")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rng, err := ParseDateRange(query)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sum, err := s.summary(r, services.SummaryQuery{AccountID: account, Range: rng})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Reports.AccountBalance(r.Context(), id, rng)
	writeLookup(w, r, lookup, err, "account", id)
}

func (s *Server) handleCategoryBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Reports.CategoryBalance(r.Context(), id, rng)
	writeLookup(w, r, lookup, err, "category", id)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Reports.BudgetStatus(r.Context(), id)
	writeLookup(w, r, lookup, err, "budget", id)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
