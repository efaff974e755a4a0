// Package client talks to the finanzas REST API. Client satisfies
// ledger.MovementStore so the CLI can drive a MovementList against a server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
	"finanzas/internal/whatsapp"
)

// APIError is any non-2xx answer.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.WithComponent(log.ComponentCLI),
	}
}

// movementBody is the wire form of a movement write.
type movementBody struct {
	Kind        core.Kind `json:"tipo"`
	Amount      string    `json:"monto"`
	CategoryID  int64     `json:"categoriaId"`
	AccountID   int64     `json:"cuentaId"`
	Date        string    `json:"fecha"`
	Description string    `json:"descripcion,omitempty"`
}

func bodyOf(m core.Movement) movementBody {
	return movementBody{
		Kind:        m.Kind,
		Amount:      m.Amount.String(),
		CategoryID:  m.CategoryID,
		AccountID:   m.AccountID,
		Date:        m.OccurredAt.String(),
		Description: m.Description,
	}
}

func (c *Client) List(ctx context.Context) ([]core.Movement, error) {
	var out []core.Movement
	if err := c.do(ctx, http.MethodGet, "/api/movimientos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns NotFound for a 404 instead of an error.
func (c *Client) Get(ctx context.Context, id int64) (core.Lookup[core.Movement], error) {
	var m core.Movement
	err := c.do(ctx, http.MethodGet, "/api/movimientos/"+strconv.FormatInt(id, 10), nil, &m)
	if IsNotFound(err) {
		return core.NotFound[core.Movement](), nil
	}
	if err != nil {
		return core.Lookup[core.Movement]{}, err
	}
	return core.Found(m), nil
}

func (c *Client) Create(ctx context.Context, m core.Movement) (core.Movement, error) {
	var out core.Movement
	if err := c.do(ctx, http.MethodPost, "/api/movimientos", bodyOf(m), &out); err != nil {
		return core.Movement{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, m core.Movement) (core.Movement, error) {
	var out core.Movement
	if err := c.do(ctx, http.MethodPut, "/api/movimientos/"+strconv.FormatInt(m.ID, 10), bodyOf(m), &out); err != nil {
		return core.Movement{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/movimientos/"+strconv.FormatInt(id, 10), nil, nil)
}

// Summary asks the server for a summary; zero fields of q are left out.
func (c *Client) Summary(ctx context.Context, q services.SummaryQuery) (core.Summary, error) {
	v := url.Values{}
	if q.AccountID != 0 {
		v.Set("cuenta", strconv.FormatInt(q.AccountID, 10))
	}
	if !q.Range.From.IsZero() {
		v.Set("desde", q.Range.From.String())
	}
	if !q.Range.To.IsZero() {
		v.Set("hasta", q.Range.To.String())
	}
	path := "/api/movimientos/resumen"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out core.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return core.Summary{}, err
	}
	return out, nil
}

func (c *Client) Accounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	if err := c.do(ctx, http.MethodGet, "/api/cuentas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.do(ctx, http.MethodGet, "/api/categorias", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WhatsAppFormats(ctx context.Context) ([]whatsapp.Format, error) {
	var out []whatsapp.Format
	if err := c.do(ctx, http.MethodGet, "/api/whatsapp/formatos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendWhatsAppTest(ctx context.Context, req whatsapp.TestRequest) (core.WhatsAppMessage, error) {
	var out core.WhatsAppMessage
	if err := c.do(ctx, http.MethodPost, "/api/whatsapp/test", req, &out); err != nil {
		return core.WhatsAppMessage{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := trace.GetRequestID(ctx); id != "" {
		req.Header.Set(trace.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.DebugContext(ctx, "API call failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldStatusCode, resp.StatusCode)
		return &APIError{Status: resp.StatusCode, Message: problemMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// problemMessage pulls the detail out of an error body, falling back to the
// raw text.
func problemMessage(raw []byte) string {
	var p struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &p); err == nil && (p.Title != "" || p.Detail != "") {
		if p.Detail == "" {
			return p.Title
		}
		return p.Detail
	}
	return strings.TrimSpace(string(raw))
}
