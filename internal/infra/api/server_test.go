//go:build !integration

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"portfolio-ai-chat/internal/infra/metrics"
)

func TestDebugServerRoutes(t *testing.T) {
	nop := zerolog.Nop()
	metrics.MustRegister()
	srv := NewServer(0, &nop)

	t.Run("health returns OK", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.srv.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if rec.Body.String() != "OK" {
			t.Fatalf("want OK body, got %q", rec.Body.String())
		}
	})

	t.Run("metrics endpoint serves the registry", func(t *testing.T) {
		metrics.ObserveStream("/api/chat", "ok", 3, 0.5)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.srv.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "chat_requests_total") {
			t.Error("expected chat_requests_total in metrics output")
		}
	})
}
