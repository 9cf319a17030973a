package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yunhan0/recall/internal/log"
)

func testServer() *Server {
	return NewServer(Deps{
		Agent:     &mockAgent{},
		Pipeline:  &mockIngestor{},
		Documents: &mockDocStore{},
		Entries:   &mockEntryStore{},
		Quizzes:   &mockQuizStore{},
		Generator: &mockGenerator{},
		Logger:    log.NewNop(),
	})
}

func TestServer_HealthEndpoints(t *testing.T) {
	handler := testServer().Handler()

	t.Run("GET /health returns 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("GET /ready returns 503 when pool is nil", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestServer_RoutesRegistered(t *testing.T) {
	handler := testServer().Handler()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/agent/query"},
		{http.MethodPost, "/agent/documents"},
		{http.MethodGet, "/agent/documents"},
		{http.MethodGet, "/agent/entries"},
		{http.MethodPost, "/agent/entries"},
		{http.MethodGet, "/quiz"},
		{http.MethodPost, "/quiz/generate"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			// A registered route never 404s on method+path match.
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestServer_Run_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := testServer()
	ctx, cancel := context.WithCancel(context.Background())

	// Find an available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
	}()

	// Poll for server readiness instead of fixed sleep
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		// Should return nil on graceful shutdown
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_DefaultAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:3400", DefaultAddr)
}
