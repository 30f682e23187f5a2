package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type fakeDiagnosticsSrv struct {
	syncErr error
}

func (f *fakeDiagnosticsSrv) Report(context.Context) (*dto.DiagnosticsReport, error) {
	return &dto.DiagnosticsReport{Status: "ok", Primary: "postgres"}, nil
}

func (f *fakeDiagnosticsSrv) Sync(context.Context) (models.SyncReport, error) {
	return models.SyncReport{Pending: 2}, f.syncErr
}

func (f *fakeDiagnosticsSrv) ClearCache(context.Context) (dto.CacheClearResult, error) {
	return dto.CacheClearResult{Removed: 3}, nil
}

type fakeBackendHealth struct {
	statuses []models.BackendStatus
}

func (f fakeBackendHealth) Health(context.Context) []models.BackendStatus { return f.statuses }

func TestAdminHandlerSyncUnavailable(t *testing.T) {
	handler := NewAdminHandler(&fakeDiagnosticsSrv{syncErr: appErrors.Clone(appErrors.ErrBackendUnavailable, "primary still unreachable")})

	c, rec := newTestContext(http.MethodPost, "/admin/sync", nil, nil)
	handler.Sync(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminHandlerDiagnosticsAndCache(t *testing.T) {
	handler := NewAdminHandler(&fakeDiagnosticsSrv{})

	c, rec := newTestContext(http.MethodGet, "/admin/diagnostics", nil, nil)
	handler.Diagnostics(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"primario":"postgres"`)

	c, rec = newTestContext(http.MethodPost, "/admin/cache/clear", nil, nil)
	handler.ClearCache(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removidos":3`)
}

func TestMetricsHandlerReady(t *testing.T) {
	down := fakeBackendHealth{statuses: []models.BackendStatus{{Name: "postgres", Healthy: false}, {Name: "local", Healthy: false}}}
	handler := NewMetricsHandler(nil, down)

	c, rec := newTestContext(http.MethodGet, "/ready", nil, nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	up := fakeBackendHealth{statuses: []models.BackendStatus{{Name: "postgres", Healthy: false}, {Name: "local", Healthy: true}}}
	handler = NewMetricsHandler(nil, up)
	c, rec = newTestContext(http.MethodGet, "/ready", nil, nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}
