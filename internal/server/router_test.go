package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/construtora/agenda-api/internal/handler"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/service"
	"github.com/construtora/agenda-api/pkg/config"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type viewerTokens struct{}

func (viewerTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "viewer-token" {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: "pedro", Permission: models.PermissionViewer}, nil
}

type noAudit struct{}

func (noAudit) CreateAuditLog(context.Context, *models.AuditLog) error { return nil }

func newTestRouter() http.Handler {
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"}
	h := Handlers{
		Auth:        handler.NewAuthHandler(nil),
		Users:       handler.NewUserHandler(nil),
		Departments: handler.NewDepartmentHandler(nil),
		Events:      handler.NewEventHandler(nil),
		Tasks:       handler.NewTaskHandler(nil),
		Calendar:    handler.NewCalendarHandler(nil),
		Agenda:      handler.NewAgendaHandler(nil, nil),
		Admin:       handler.NewAdminHandler(nil),
		Metrics:     handler.NewMetricsHandler(service.NewMetricsService(), nil),
	}
	return NewRouter(Options{Config: cfg, Metrics: service.NewMetricsService(), Tokens: viewerTokens{}, Audit: noAudit{}}, h)
}

func TestRouterProbes(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterEnforcesAuthAndPermissions(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		method string
		path   string
		token  string
		want   int
	}{
		{http.MethodGet, "/api/v1/events", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/events", "viewer-token", http.StatusForbidden},
		{http.MethodDelete, "/api/v1/tasks/t1", "viewer-token", http.StatusForbidden},
		{http.MethodGet, "/api/v1/users", "viewer-token", http.StatusForbidden},
		{http.MethodGet, "/api/v1/admin/diagnostics", "viewer-token", http.StatusForbidden},
		{http.MethodPost, "/api/v1/admin/sync", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}
