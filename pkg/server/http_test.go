package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/shopcart/pkg/web"
	"github.com/stretchr/testify/assert"
)

func Test_NewHTTPServer(t *testing.T) {
	// given
	cfg := HTTPConfig{
		Port:           8080,
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second,
		WriteTimeout:   2 * time.Second,
		IdleTimeout:    3 * time.Second,
		ReadHeader:     4 * time.Second,
	}

	// when
	srv := NewHTTPServer(cfg, "test", http.NotFoundHandler())

	// then
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
	assert.NotNil(t, srv.Handler)
}

func Test_NewChiRouter(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := NewChiRouter(logger)
	var reqID string
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		reqID, _ = web.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	// when
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	rrPanic := httptest.NewRecorder()
	mux.ServeHTTP(rrPanic, httptest.NewRequest(http.MethodGet, "/panic", nil))

	// then
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotEmpty(t, reqID)
	assert.Equal(t, http.StatusInternalServerError, rrPanic.Code)
}
