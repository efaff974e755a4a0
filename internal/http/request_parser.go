package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/storage"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// pathID reads the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryID reads an optional positive integer parameter; absent means 0.
func queryID(query url.Values, key string) (int64, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return id, nil
}

// ParseDateRange reads desde/hasta (YYYY-MM-DD). Either may be omitted.
// Ordering is not checked here so the services report it uniformly.
func ParseDateRange(query url.Values) (core.DateRange, error) {
	var r core.DateRange
	for key, dst := range map[string]*core.Date{"desde": &r.From, "hasta": &r.To} {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", key, v)
		}
		*dst = d
	}
	return r, nil
}

// ParseMovementFilter reads tipo, cuenta, categoria, desde, hasta and limite.
func ParseMovementFilter(query url.Values) (storage.MovementFilter, error) {
	var f storage.MovementFilter
	if v := strings.TrimSpace(query.Get("tipo")); v != "" {
		kind, err := core.ParseKind(v)
		if err != nil {
			return f, fmt.Errorf("invalid tipo %q", v)
		}
		f.Kind = kind
	}
	var err error
	if f.AccountID, err = queryID(query, "cuenta"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryID(query, "categoria"); err != nil {
		return f, err
	}
	if f.Range, err = ParseDateRange(query); err != nil {
		return f, err
	}
	if v := strings.TrimSpace(query.Get("limite")); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return f, fmt.Errorf("invalid limite %q", v)
		}
		f.Limit = n
	}
	return f, nil
}

// decodeJSON reads a single JSON document into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}
