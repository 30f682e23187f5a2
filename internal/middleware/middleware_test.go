package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type staticValidator struct {
	claims *models.JWTClaims
}

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.ErrUnauthorized
	}
	return v.claims, nil
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func newProtectedRouter(perms ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	validator := staticValidator{claims: &models.JWTClaims{UserID: "joao", Permission: models.PermissionEditor}}
	router.Use(JWT(validator))
	router.GET("/users/:id", RBAC(perms...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, path, token string) int {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	router := newProtectedRouter(string(models.PermissionEditor))

	if code := serve(router, "/users/joao", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := serve(router, "/users/joao", "bad"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", code)
	}
	if code := serve(router, "/users/joao", "good"); code != http.StatusNoContent {
		t.Fatalf("expected 204 with good token, got %d", code)
	}
}

func TestRBACAllowsSelf(t *testing.T) {
	router := newProtectedRouter(string(models.PermissionAdmin), Self)

	if code := serve(router, "/users/joao", "good"); code != http.StatusNoContent {
		t.Fatalf("expected self access, got %d", code)
	}
	if code := serve(router, "/users/ana", "good"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user, got %d", code)
	}
}

func TestAuditRecordsSuccessfulWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &recordingAudit{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.DELETE("/events/:id", Audit(audit, models.AuditActionAgendaWrite, "eventos"), func(c *gin.Context) {
		SetSource(c, "postgres")
		c.Status(http.StatusNoContent)
	})
	router.DELETE("/tasks/:id", Audit(audit, models.AuditActionAgendaWrite, "tarefas"), func(c *gin.Context) {
		c.Status(http.StatusForbidden)
	})

	for _, path := range []string{"/events/e1", "/tasks/t1"} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, path, nil))
	}

	if len(audit.logs) != 1 {
		t.Fatalf("expected one audit log, got %d", len(audit.logs))
	}
	if got := *audit.logs[0].ResourceID; got != "e1" {
		t.Fatalf("unexpected resource id: %s", got)
	}
}

func TestResponseMetaFlags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	SetSource(c, "local")
	SetDegraded(c, false)
	meta := ExtractMeta(c)
	if meta["source"] != "local" {
		t.Fatalf("unexpected source: %v", meta["source"])
	}
	if _, ok := meta["degraded"]; ok {
		t.Fatalf("degraded must be omitted for healthy writes")
	}
	SetDegraded(c, true)
	if meta["degraded"] != true {
		t.Fatalf("expected degraded flag")
	}
}

type recordedRequest struct {
	route  string
	status int
}

type fakeRecorder struct {
	requests []recordedRequest
	sources  []string
}

func (f *fakeRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	f.requests = append(f.requests, recordedRequest{route: route, status: status})
}

func (f *fakeRecorder) ObserveResponseSource(source string, degraded bool) {
	if degraded {
		source += "/degraded"
	}
	f.sources = append(f.sources, source)
}

func TestMetricsLabelsRouteAndSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeRecorder{}
	router := gin.New()
	router.Use(Metrics(recorder), WithResponseMeta())
	router.POST("/events/:id", func(c *gin.Context) {
		SetSource(c, "local")
		SetDegraded(c, true)
		c.Status(http.StatusCreated)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/events/e1", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/events/e1/unknown", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []recordedRequest{
		{route: "/events/:id", status: http.StatusCreated},
		{route: "/health", status: http.StatusOK},
		{route: unmatchedRoute, status: http.StatusNotFound},
	}
	if len(recorder.requests) != len(want) {
		t.Fatalf("expected %d observations, got %d", len(want), len(recorder.requests))
	}
	for i := range want {
		if recorder.requests[i] != want[i] {
			t.Fatalf("observation %d: got %+v want %+v", i, recorder.requests[i], want[i])
		}
	}
	if len(recorder.sources) != 1 || recorder.sources[0] != "local/degraded" {
		t.Fatalf("unexpected sources: %v", recorder.sources)
	}
}

func TestResponseMetaHoldsOnlyHandlerValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var meta map[string]interface{}
	router.Use(func(c *gin.Context) {
		c.Next()
		meta = ExtractMeta(c)
	}, WithResponseMeta())
	router.GET("/events", func(c *gin.Context) {
		SetSource(c, "postgres")
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))
	if len(meta) != 1 || meta["source"] != "postgres" {
		t.Fatalf("unexpected meta after response: %v", meta)
	}
}
