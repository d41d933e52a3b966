package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/mcdev12/wordquest/go/internal/modes"
	"github.com/mcdev12/wordquest/go/internal/session"
	"github.com/mcdev12/wordquest/go/internal/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticWords []models.Word

func (s staticWords) GetRandomWords(_ context.Context, _ models.Level, limit int) ([]models.Word, error) {
	if limit < len(s) {
		return s[:limit], nil
	}
	return s, nil
}

func newTestServices(t *testing.T, cfg *Config) *Services {
	t.Helper()
	catalog, err := modes.Default()
	require.NoError(t, err)

	connections := session.NewConnectionManager(connectionConfig(cfg.Server.AllowedOrigins))
	manager := session.NewManager(cfg.Session.managerConfig(), clockwork.NewFakeClock(), session.LogPublisher{}, connections)
	services := &Services{
		Words: words.NewHandler(words.NewApp(staticWords{
			{ID: 1, Word: "apple", Type: "noun", Meaning: "แอปเปิ้ล", Level: "a1"},
		}, words.Config{})),
		Modes:       modes.NewHandler(catalog),
		SessionAPI:  session.NewHandler(manager, connections),
		Sessions:    manager,
		Connections: connections,
		publisher:   session.LogPublisher{},
	}
	t.Cleanup(services.Close)
	return services
}

func TestSetupServer_Routes(t *testing.T) {
	cfg := defaultConfig()
	server := setupServer(cfg, newTestServices(t, cfg))
	assert.Equal(t, ":8080", server.Addr)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/words?level=a1", http.StatusOK},
		{http.MethodGet, "/api/words?level=z9", http.StatusBadRequest},
		{http.MethodGet, "/api/modes", http.StatusOK},
		{http.MethodGet, "/api/modes/echo", http.StatusOK},
		{http.MethodGet, "/api/sessions/6f1c1b0e-1f6e-4a47-9a59-2f1f8b8f9f10", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSetupServer_CORS(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.AllowedOrigins = []string{"https://wordquest.app"}
	server := setupServer(cfg, newTestServices(t, cfg))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://wordquest.app")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://wordquest.app", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConnectionConfig_CheckOrigin(t *testing.T) {
	open := connectionConfig([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/ws/session", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, open.CheckOrigin(req))

	restricted := connectionConfig([]string{"https://wordquest.app"})
	assert.False(t, restricted.CheckOrigin(req))

	req.Header.Set("Origin", "https://wordquest.app")
	assert.True(t, restricted.CheckOrigin(req))

	req.Header.Del("Origin")
	assert.True(t, restricted.CheckOrigin(req))
}
