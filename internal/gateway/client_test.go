package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientListUnwrapsResultEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/specification", r.URL.Path)
		_, _ = io.WriteString(w, `{"result":[{"sys_id":"a1","u_name":"Widget"},{"sys_id":"b2","u_name":"Gadget"}]}`)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/"})
	recs, err := c.List(context.Background(), KindSpecification)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a1", recs[0].ID())
	assert.Equal(t, "Gadget", recs[1].Name())
}

func TestClientCreateSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/offers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Basic", body["u_name"])
		assert.Equal(t, 9.5, body["u_price"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sys_id":"new1","u_name":"Basic","u_price":9.5}`)
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL: srv.URL,
		Token:   "secret",
		Paths:   map[Kind]string{KindOffering: "/offers/"},
	})
	rec, err := c.Create(context.Background(), KindOffering, map[string]any{"u_name": "Basic", "u_price": 9.5})
	require.NoError(t, err)
	assert.Equal(t, "new1", rec.ID())
	assert.Equal(t, "9.5", rec.String("u_price"))
}

func TestClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Username: "admin", Password: "pw"})
	err := c.Delete(context.Background(), KindSpecification, "x/y")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "/specification/x%2Fy", se.Path)
	assert.Equal(t, "boom", se.Body)
}

func TestClientGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Get(context.Background(), KindOffering, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachedGetServesFromCacheUntilEvicted(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			_, _ = io.WriteString(w, `{"sys_id":"a1","u_name":"Widget"}`)
		case http.MethodPut:
			_, _ = io.WriteString(w, `{"sys_id":"a1","u_name":"Renamed"}`)
		}
	}))
	defer srv.Close()

	c, err := NewCached(NewClient(Options{BaseURL: srv.URL}), 8)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec, err := c.Get(ctx, KindSpecification, "a1")
		require.NoError(t, err)
		assert.Equal(t, "Widget", rec.Name())
	}
	assert.Equal(t, int32(1), gets.Load())

	_, err = c.Update(ctx, KindSpecification, "a1", map[string]any{"u_name": "Renamed"})
	require.NoError(t, err)
	_, err = c.Get(ctx, KindSpecification, "a1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())
}

func TestRecordStringReferenceField(t *testing.T) {
	r := Record{
		"u_product_specification": map[string]any{"value": "a1", "display_value": "Widget"},
		"u_active":                true,
	}
	assert.Equal(t, "Widget", r.String("u_product_specification"))
	assert.Equal(t, "true", r.String("u_active"))
	assert.Equal(t, "", r.String("missing"))
}

func TestClientRetriesIdempotentRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"sys_id":"a1","u_name":"Widget"}`)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retries: 2, RetryWait: time.Millisecond})
	rec, err := c.Get(context.Background(), KindSpecification, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", rec.Name())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetryCreate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retries: 3, RetryWait: time.Millisecond})
	_, err := c.Create(context.Background(), KindSpecification, map[string]any{"u_name": "Widget"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retries: 2, RetryWait: time.Millisecond})
	err := c.Delete(context.Background(), KindOffering, "o1")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "down", se.Body)
	assert.Equal(t, int32(3), calls.Load())
}
