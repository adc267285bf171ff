package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Spok95/catalog-agent/internal/infra/metrics"
)

type Options struct {
	BaseURL  string
	Username string
	Password string
	Token    string
	Timeout  time.Duration

	// Retries — сколько раз повторять GET/PUT/DELETE при сетевой ошибке или 5xx/429.
	Retries   int
	RetryWait time.Duration

	// Paths переопределяет сегмент пути коллекции для вида ресурса.
	Paths map[Kind]string
	Log   *slog.Logger
}

// Client ходит в REST API каталога.
type Client struct {
	baseURL string
	opts    Options
	http    *retryablehttp.Client
}

func NewClient(opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	rc.RetryMax = max(opts.Retries, 0)
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 4 * opts.RetryWait
	}
	rc.Logger = &slogRetryLogger{log: log.With("component", "gateway")}
	rc.CheckRetry = checkRetry
	// статус разбираем сами, поэтому ответ после последней попытки нужен как есть
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		opts:    opts,
		http:    rc,
	}
}

type methodKey struct{}

// checkRetry повторяет только идемпотентные запросы; POST уходит ровно один раз.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	switch ctx.Value(methodKey{}) {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return false, nil
}

// slogRetryLogger адаптирует slog к retryablehttp.LeveledLogger.
type slogRetryLogger struct {
	log *slog.Logger
}

func (l *slogRetryLogger) Error(msg string, kv ...interface{}) { l.log.Error(msg, kv...) }
func (l *slogRetryLogger) Info(msg string, kv ...interface{})  { l.log.Info(msg, kv...) }
func (l *slogRetryLogger) Debug(msg string, kv ...interface{}) { l.log.Debug(msg, kv...) }
func (l *slogRetryLogger) Warn(msg string, kv ...interface{})  { l.log.Warn(msg, kv...) }

func (c *Client) path(kind Kind, id string) string {
	seg := string(kind)
	if p, ok := c.opts.Paths[kind]; ok && p != "" {
		seg = strings.Trim(p, "/")
	}
	if id == "" {
		return "/" + seg
	}
	return "/" + seg + "/" + url.PathEscape(id)
}

func (c *Client) List(ctx context.Context, kind Kind) ([]Record, error) {
	var out []Record
	if err := c.do(ctx, kind, "list", http.MethodGet, c.path(kind, ""), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, kind Kind, id string) (Record, error) {
	var out Record
	if err := c.do(ctx, kind, "get", http.MethodGet, c.path(kind, id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, kind Kind, fields map[string]any) (Record, error) {
	var out Record
	if err := c.do(ctx, kind, "create", http.MethodPost, c.path(kind, ""), fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, kind Kind, id string, fields map[string]any) (Record, error) {
	var out Record
	if err := c.do(ctx, kind, "update", http.MethodPut, c.path(kind, id), fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, kind Kind, id string) error {
	return c.do(ctx, kind, "delete", http.MethodDelete, c.path(kind, id), nil, nil)
}

func (c *Client) do(ctx context.Context, kind Kind, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveGateway(string(kind), op, time.Since(start), err)
	}()

	// nil-интерфейс, а не пустой []byte: у GET/DELETE тела нет
	var body any
	if in != nil {
		raw, mErr := json.Marshal(in)
		if mErr != nil {
			return fmt.Errorf("encode body: %w", mErr)
		}
		body = raw
	}

	ctx = context.WithValue(ctx, methodKey{}, method)
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.opts.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	case c.opts.Username != "":
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapResult(data), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// unwrapResult снимает конверт {"result": ...}, если он есть.
func unwrapResult(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if res, ok := env["result"]; ok && len(env) == 1 {
		return res
	}
	return trimmed
}
