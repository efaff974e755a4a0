package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/storage"
	"finanzas/internal/whatsapp"

	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	srv     *Server
	repo    *storage.SQLiteRepository
	food    core.Category
	salary  core.Category
	bank    core.Account
	webhook *httptest.Server
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"), nil)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"estado":"COMPLETADO","respuestaBot":"Gasto registrado"}`))
	}))
	t.Cleanup(webhook.Close)

	catalog := services.NewCatalogService(repo, nil)
	console := whatsapp.NewConsole(whatsapp.NewClient(webhook.URL, time.Second), repo,
		whatsapp.DisplayConfig{WebhookURL: webhook.URL, Phone: "+5491122334455"}, nil)

	srv := NewServer(":0", Deps{
		Movements: services.NewMovementService(repo, nil, nil),
		Catalog:   catalog,
		Reports:   services.NewReportService(repo, nil),
		Console:   console,
		Store:     repo,
	}, opts, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	env := &testEnv{srv: srv, repo: repo, webhook: webhook}
	ctx := context.Background()
	if env.food, err = catalog.CreateCategory(ctx, core.CategoryForm{Name: "Comida", Type: "GASTO"}); err != nil {
		t.Fatal(err)
	}
	if env.salary, err = catalog.CreateCategory(ctx, core.CategoryForm{Name: "Salario", Type: "INGRESO"}); err != nil {
		t.Fatal(err)
	}
	if env.bank, err = catalog.CreateAccount(ctx, core.AccountForm{Name: "Banco", OpeningBalance: "1000"}); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func (e *testEnv) movementJSON(kind string, amount string, cat core.Category, date string) string {
	b, _ := json.Marshal(map[string]any{
		"tipo": kind, "monto": amount, "categoriaId": cat.ID, "cuentaId": e.bank.ID, "fecha": date,
	})
	return string(b)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing request id", path)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/nada", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", rr.Code)
	}
	if p := decode[Problem](t, rr); p.Status != http.StatusNotFound {
		t.Fatalf("unexpected problem: %+v", p)
	}
}

func TestMovementCRUD(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "250", env.food, "2024-04-10"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[core.Movement](t, rr)
	if created.ID == 0 || created.Amount.Cents != 25000 || created.CategoryName != "Comida" {
		t.Fatalf("unexpected movement: %+v", created)
	}
	if !strings.Contains(rr.Body.String(), `"monto":250.00`) {
		t.Fatalf("amount should be a JSON number: %s", rr.Body.String())
	}
	path := "/api/movimientos/" + itoa(created.ID)
	if rr.Header().Get("Location") != path {
		t.Fatalf("location = %q", rr.Header().Get("Location"))
	}

	rr = env.do(t, http.MethodGet, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, path, env.movementJSON("GASTO", "300.5", env.food, "2024-04-11"))
	if rr.Code != http.StatusOK || decode[core.Movement](t, rr).Amount.Cents != 30050 {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPatch, path, `{"descripcion":"almuerzo"}`)
	patched := decode[core.Movement](t, rr)
	if rr.Code != http.StatusOK || patched.Description != "almuerzo" || patched.Amount.Cents != 30050 {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/movimientos?tipo=GASTO&desde=2024-04-01", "")
	if list := decode[[]core.Movement](t, rr); len(list) != 1 {
		t.Fatalf("list = %d items", len(list))
	}

	rr = env.do(t, http.MethodDelete, path, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, path, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rr.Code)
	}
	if p := decode[Problem](t, rr); p.Title != "Not found" || p.Detail == "" {
		t.Fatalf("unexpected problem: %+v", p)
	}
}

func TestMovementErrors(t *testing.T) {
	env := newTestEnv(t, Options{})
	missing := core.Category{ID: 999}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/movimientos", `{"tipo":`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/movimientos", "", http.StatusBadRequest},
		{"invalid kind", http.MethodPost, "/api/movimientos", env.movementJSON("OTRO", "10", env.food, "2024-01-01"), http.StatusUnprocessableEntity},
		{"negative amount", http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "-5", env.food, "2024-01-01"), http.StatusUnprocessableEntity},
		{"unknown category", http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "5", missing, "2024-01-01"), http.StatusUnprocessableEntity},
		{"update unknown id", http.MethodPut, "/api/movimientos/4242", env.movementJSON("GASTO", "5", env.food, "2024-01-01"), http.StatusNotFound},
		{"patch unknown id", http.MethodPatch, "/api/movimientos/4242", `{"descripcion":"x"}`, http.StatusNotFound},
		{"delete unknown id", http.MethodDelete, "/api/movimientos/4242", "", http.StatusNotFound},
		{"non numeric id", http.MethodGet, "/api/movimientos/abc", "", http.StatusNotFound},
		{"bad filter", http.MethodGet, "/api/movimientos?cuenta=x", "", http.StatusBadRequest},
		{"inverted range", http.MethodGet, "/api/movimientos?desde=2024-05-01&hasta=2024-04-01", "", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/api/movimientos/1", "{}", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Fatalf("content type %q", ct)
			}
		})
	}
}

func TestSummaryReflectsWrites(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodGet, "/api/movimientos/resumen", "")
	sum := decode[core.Summary](t, rr)
	if rr.Code != http.StatusOK || sum.CurrentBalance.Cents != 100000 || sum.Count != 0 {
		t.Fatalf("initial summary: %d %+v", rr.Code, sum)
	}

	env.do(t, http.MethodPost, "/api/movimientos", env.movementJSON("INGRESO", "500", env.salary, "2024-02-01"))
	env.do(t, http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "120.25", env.food, "2024-02-03"))

	sum = decode[core.Summary](t, env.do(t, http.MethodGet, "/api/movimientos/resumen", ""))
	if sum.TotalIncome.Cents != 50000 || sum.TotalExpense.Cents != 12025 ||
		sum.NetBalance.Cents != 37975 || sum.CurrentBalance.Cents != 137975 || sum.Count != 2 {
		t.Fatalf("summary after writes: %+v", sum)
	}

	sum = decode[core.Summary](t, env.do(t, http.MethodGet,
		"/api/movimientos/resumen?cuenta="+itoa(env.bank.ID)+"&desde=2024-02-02", ""))
	if sum.Count != 1 || sum.OpeningBalance.Cents != 100000 || sum.CurrentBalance.Cents != 87975 {
		t.Fatalf("scoped summary: %+v", sum)
	}

	if rr := env.do(t, http.MethodGet, "/api/movimientos/resumen?cuenta=999", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown account status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/movimientos/resumen?desde=2024-03-01&hasta=2024-01-01", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status=%d", rr.Code)
	}
}

func TestRegisterCreatesCategory(t *testing.T) {
	env := newTestEnv(t, Options{})
	body := `{"tipo":"GASTO","monto":42,"categoria":"Transporte","cuentaId":` + itoa(env.bank.ID) + `,"fecha":"2024-01-05"}`

	rr := env.do(t, http.MethodPost, "/api/movimientos/registrar", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	resp := decode[registerResponse](t, rr)
	if !resp.CategoryCreated || resp.Movement.CategoryName != "Transporte" || resp.Movement.Amount.Cents != 4200 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	future := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	rr = env.do(t, http.MethodPost, "/api/movimientos/registrar",
		`{"tipo":"GASTO","monto":1,"categoria":"Transporte","cuentaId":`+itoa(env.bank.ID)+`,"fecha":"`+future+`"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("future date status=%d", rr.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodPost, "/api/categorias", `{"nombre":"comida","tipo":"GASTO"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate category status=%d body=%s", rr.Code, rr.Body.String())
	}

	env.do(t, http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "80", env.food, "2024-06-02"))
	rr = env.do(t, http.MethodDelete, "/api/categorias/"+itoa(env.food.ID), "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("delete used category status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/presupuestos",
		`{"monto":"100","periodo":"MENSUAL","fechaInicio":"2024-06-01","fechaFin":"2024-06-30","categoriaId":`+itoa(env.food.ID)+`}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	budget := decode[core.Budget](t, rr)

	rr = env.do(t, http.MethodGet, "/api/presupuestos/"+itoa(budget.ID)+"/estado", "")
	status := decode[core.BudgetStatus](t, rr)
	if rr.Code != http.StatusOK || status.Spent.Cents != 8000 {
		t.Fatalf("budget status %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/cuentas/"+itoa(env.bank.ID)+"/balance", "")
	balance := decode[services.AccountBalance](t, rr)
	if rr.Code != http.StatusOK || balance.Balance.Cents != 92000 {
		t.Fatalf("account balance %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/categorias/"+itoa(env.food.ID)+"/balance?desde=2024-06-01&hasta=2024-06-30", "")
	if rr.Code != http.StatusOK || decode[services.CategoryBalance](t, rr).Net.Cents != -8000 {
		t.Fatalf("category balance %d: %s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/api/cuentas/999", "/api/categorias/999", "/api/presupuestos/999", "/api/presupuestos/999/estado", "/api/cuentas/999/balance"} {
		if rr := env.do(t, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr = env.do(t, http.MethodGet, "/api/dashboard", "")
	dash := decode[services.Dashboard](t, rr)
	if rr.Code != http.StatusOK || len(dash.Budgets) != 1 || len(dash.Recent) != 1 {
		t.Fatalf("dashboard %d: %s", rr.Code, rr.Body.String())
	}
}

func TestExportXLSX(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "15", env.food, "2024-01-10"))

	rr := env.do(t, http.MethodGet, "/api/movimientos/export.xlsx", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("content disposition %q", rr.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Movimientos")
	if err != nil || len(rows) != 2 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
}

func TestWhatsAppConsole(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(t, http.MethodGet, "/api/whatsapp/formatos", "")
	if formats := decode[[]whatsapp.Format](t, rr); len(formats) != 3 {
		t.Fatalf("formats = %d", len(formats))
	}
	rr = env.do(t, http.MethodGet, "/api/whatsapp/config", "")
	if cfg := decode[whatsapp.DisplayConfig](t, rr); cfg.WebhookURL != env.webhook.URL {
		t.Fatalf("config = %+v", cfg)
	}

	rr = env.do(t, http.MethodPost, "/api/whatsapp/test", `{"numeroTelefonico":"123","mensaje":"hola"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid phone status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/whatsapp/test", `{"numeroTelefonico":"+5491122334455","mensaje":"GASTO 100 comida banco"}`)
	msg := decode[core.WhatsAppMessage](t, rr)
	if rr.Code != http.StatusOK || msg.Status != core.StatusCompleted || msg.BotReply != "Gasto registrado" {
		t.Fatalf("send %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(msg.MessageID, "test_") {
		t.Fatalf("message id %q", msg.MessageID)
	}

	if list := decode[[]core.WhatsAppMessage](t, env.do(t, http.MethodGet, "/api/whatsapp/mensajes?estado=completado", "")); len(list) != 1 {
		t.Fatalf("completed messages = %d", len(list))
	}
	if list := decode[[]core.WhatsAppMessage](t, env.do(t, http.MethodGet, "/api/whatsapp/mensajes?estado=ERROR", "")); len(list) != 0 {
		t.Fatalf("error messages = %d", len(list))
	}
	if rr := env.do(t, http.MethodGet, "/api/whatsapp/mensajes?estado=perdido", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad estado status=%d", rr.Code)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitPerMinute: 2})
	body := env.movementJSON("GASTO", "1", env.food, "2024-01-01")

	for i := 0; i < 2; i++ {
		if rr := env.do(t, http.MethodPost, "/api/movimientos", body); rr.Code != http.StatusCreated {
			t.Fatalf("write %d status=%d", i, rr.Code)
		}
	}
	rr := env.do(t, http.MethodPost, "/api/movimientos", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third write status=%d", rr.Code)
	}
	if p := decode[Problem](t, rr); p.Status != http.StatusTooManyRequests {
		t.Fatalf("problem = %+v", p)
	}
	if rr := env.do(t, http.MethodGet, "/api/movimientos", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", rr.Code)
	}
}

func TestProbeRequestsAreRejected(t *testing.T) {
	env := newTestEnv(t, Options{})
	if rr := env.do(t, http.MethodGet, "/.env", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("probe status=%d", rr.Code)
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestSummaryReadRacingWriteIsNotCached(t *testing.T) {
	env := newTestEnv(t, Options{})
	load := env.srv.loadSummary
	wrote := false
	env.srv.loadSummary = func(ctx context.Context, q services.SummaryQuery) (core.Summary, error) {
		sum, err := load(ctx, q)
		if !wrote {
			wrote = true
			// a write lands after the read but before the result is cached
			rr := env.do(t, http.MethodPost, "/api/movimientos", env.movementJSON("GASTO", "80", env.food, "2024-03-01"))
			if rr.Code != http.StatusCreated {
				t.Errorf("create status=%d body=%s", rr.Code, rr.Body.String())
			}
		}
		return sum, err
	}

	first := decode[core.Summary](t, env.do(t, http.MethodGet, "/api/movimientos/resumen", ""))
	if first.TotalExpense.Cents != 0 {
		t.Fatalf("first read should predate the write: %+v", first)
	}
	if env.srv.summaryCache.Size() != 0 {
		t.Fatal("summary read before the purge must not be cached")
	}

	second := decode[core.Summary](t, env.do(t, http.MethodGet, "/api/movimientos/resumen", ""))
	if second.TotalExpense.Cents != 8000 || second.Count != 1 {
		t.Fatalf("second read must see the write: %+v", second)
	}
	if env.srv.summaryCache.Size() != 1 {
		t.Fatal("fresh summary should be cached")
	}
}
