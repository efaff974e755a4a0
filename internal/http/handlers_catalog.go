package http

import (
	"fmt"
	"net/http"

	"finanzas/internal/core"
)

// writeLookup answers 200 with the found value or a 404 naming what was missing.
func writeLookup[T any](w http.ResponseWriter, r *http.Request, lookup core.Lookup[T], err error, what string, id int64) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, ok := lookup.Get()
	if !ok {
		notFound(w, what, id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeList[T any](w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.ListCategories(r.Context())
	writeList(w, r, items, err)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Catalog.GetCategory(r.Context(), id)
	writeLookup(w, r, lookup, err, "category", id)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var form core.CategoryForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := s.deps.Catalog.CreateCategory(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/categorias/%d", c.ID))
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var form core.CategoryForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := s.deps.Catalog.UpdateCategory(r.Context(), id, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Catalog.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Accounts

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.ListAccounts(r.Context())
	writeList(w, r, items, err)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Catalog.GetAccount(r.Context(), id)
	writeLookup(w, r, lookup, err, "account", id)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var form core.AccountForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	a, err := s.deps.Catalog.CreateAccount(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	w.Header().Set("Location", fmt.Sprintf("/api/cuentas/%d", a.ID))
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var form core.AccountForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	a, err := s.deps.Catalog.UpdateAccount(r.Context(), id, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Catalog.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Budgets

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.ListBudgets(r.Context())
	writeList(w, r, items, err)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lookup, err := s.deps.Catalog.GetBudget(r.Context(), id)
	writeLookup(w, r, lookup, err, "budget", id)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var form core.BudgetForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := s.deps.Catalog.CreateBudget(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/presupuestos/%d", b.ID))
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var form core.BudgetForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := s.deps.Catalog.UpdateBudget(r.Context(), id, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Catalog.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
