package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const storedMovement = `{"id":5,"tipo":"GASTO","monto":250.00,"categoriaId":1,"categoria":"Comida","cuentaId":2,"cuenta":"Banco","fecha":"2024-03-01","descripcion":"almuerzo"}`

type recorded struct {
	method, path, query string
	body                map[string]any
}

type fakeServer struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/movimientos/resumen":
		_, _ = io.WriteString(w, `{"totalIngresos":1000.00,"totalGastos":250.00,"balanceNeto":750.00,"saldoInicial":100.00,"saldoTotal":850.00,"cantidad":2}`)
	case r.URL.Path == "/api/movimientos" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, "["+storedMovement+`,{"id":6,"tipo":"INGRESO","monto":1000,"categoriaId":3,"cuentaId":2,"fecha":"2024-02-28"}]`)
	case r.URL.Path == "/api/cuentas":
		_, _ = io.WriteString(w, `[{"id":2,"nombre":"Banco","saldoInicial":100.00}]`)
	case r.URL.Path == "/api/categorias":
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"Comida","tipo":"GASTO"},{"id":3,"nombre":"Salario","tipo":"INGRESO"}]`)
	case r.URL.Path == "/api/movimientos" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, storedMovement)
	case r.URL.Path == "/api/movimientos/5" && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/movimientos/5":
		_, _ = io.WriteString(w, storedMovement)
	case r.URL.Path == "/api/whatsapp/test":
		_, _ = io.WriteString(w, `{"id":9,"numeroTelefonico":"+5491122334455","mensajeOriginal":"gasto 10","estado":"COMPLETADO","respuestaBot":"Gasto registrado"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status":404,"title":"Not found","detail":"nothing here"}`)
	}
}

func (f *fakeServer) find(method, path string) (recorded, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.method == method && c.path == path {
			return c, true
		}
	}
	return recorded{}, false
}

func run(t *testing.T, stdin string, args ...string) (*fakeServer, string, error) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	var out, errOut bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(append([]string{"--api-url", srv.URL, "--no-color"}, args...))
	err := root.Execute()
	return fake, out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	fake, out, err := run(t, "", "resumen", "--cuenta", "2", "--desde", "2024-01-01")
	if err != nil {
		t.Fatalf("resumen: %v", err)
	}
	if !strings.Contains(out, "850.00") || !strings.Contains(out, "Movimientos") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	call, ok := fake.find(http.MethodGet, "/api/movimientos/resumen")
	if !ok || call.query != "cuenta=2&desde=2024-01-01" {
		t.Fatalf("summary call = %+v", call)
	}

	if _, _, err := run(t, "", "resumen", "--hasta", "mañana"); err == nil {
		t.Fatal("expected error for bad --hasta")
	}
}

func TestMovementsList(t *testing.T) {
	_, out, err := run(t, "", "movimientos", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Comida", "-250.00", "almuerzo", "Salario", "+1000.00", "Saldo total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// opening 100 from the account, +1000 income, -250 expense
	if !strings.Contains(out, "850.00") {
		t.Errorf("expected local balance 850.00:\n%s", out)
	}
}

func TestMovementsAdd(t *testing.T) {
	fake, out, err := run(t, "", "mov", "add", "--tipo", "gasto", "--monto", "250", "--categoria", "1", "--cuenta", "2", "--fecha", "2024-03-01")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.HasPrefix(out, "#5 2024-03-01") {
		t.Fatalf("unexpected output: %q", out)
	}
	call, _ := fake.find(http.MethodPost, "/api/movimientos")
	if call.body["monto"] != "250.00" || call.body["tipo"] != "GASTO" {
		t.Fatalf("posted body = %v", call.body)
	}

	if _, _, err := run(t, "", "mov", "add", "--tipo", "GASTO", "--monto", "-3", "--categoria", "1", "--cuenta", "1"); err == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestMovementsEditKeepsUnsetFields(t *testing.T) {
	fake, _, err := run(t, "", "mov", "edit", "5", "--monto", "300")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	call, ok := fake.find(http.MethodPut, "/api/movimientos/5")
	if !ok {
		t.Fatal("no PUT issued")
	}
	if call.body["monto"] != "300.00" || call.body["descripcion"] != "almuerzo" || call.body["cuentaId"] != float64(2) {
		t.Fatalf("put body = %v", call.body)
	}
}

func TestMovementsRemove(t *testing.T) {
	fake, out, err := run(t, "n\n", "mov", "rm", "5")
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	if !strings.Contains(out, "Cancelado") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, ok := fake.find(http.MethodDelete, "/api/movimientos/5"); ok {
		t.Fatal("declined delete must not reach the server")
	}

	fake, out, err = run(t, "", "mov", "rm", "5", "--yes")
	if err != nil {
		t.Fatalf("rm --yes: %v", err)
	}
	if _, ok := fake.find(http.MethodDelete, "/api/movimientos/5"); !ok || !strings.Contains(out, "eliminado") {
		t.Fatalf("delete not issued, output %q", out)
	}

	if _, _, err := run(t, "", "mov", "rm", "abc", "--yes"); err == nil {
		t.Fatal("expected error for invalid id")
	}
}

func TestWhatsAppTestCommand(t *testing.T) {
	_, out, err := run(t, "", "whatsapp", "test", "--telefono", "+5491122334455", "--mensaje", "gasto 10")
	if err != nil {
		t.Fatalf("whatsapp test: %v", err)
	}
	if !strings.Contains(out, "COMPLETADO") || !strings.Contains(out, "Gasto registrado") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInvalidAPIURL(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(strings.NewReader(""), &out, &errOut)
	root.SetArgs([]string{"--api-url", "ftp://nowhere", "resumen"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected configuration error")
	}
}
