// Package server assembles the HTTP router.
package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/construtora/agenda-api/api/swagger"
	"github.com/construtora/agenda-api/internal/handler"
	"github.com/construtora/agenda-api/internal/middleware"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/service"
	"github.com/construtora/agenda-api/pkg/config"
	"github.com/construtora/agenda-api/pkg/logger"
	corsmiddleware "github.com/construtora/agenda-api/pkg/middleware/cors"
	reqidmiddleware "github.com/construtora/agenda-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Departments *handler.DepartmentHandler
	Events      *handler.EventHandler
	Tasks       *handler.TaskHandler
	Calendar    *handler.CalendarHandler
	Agenda      *handler.AgendaHandler
	Admin       *handler.AdminHandler
	Metrics     *handler.MetricsHandler
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditWriter
}

// NewRouter builds the gin engine with middlewares and routes.
func NewRouter(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	if opts.Logger != nil {
		r.Use(logger.GinMiddleware(opts.Logger))
	}
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)
	secured.GET("/auth/me", h.Auth.Me)

	admin := middleware.RequirePermissions(models.PermissionAdmin)
	writers := middleware.RequirePermissions(models.PermissionAdmin, models.PermissionEditor)

	users := secured.Group("/users")
	users.GET("", admin, h.Users.List)
	users.GET("/:id", middleware.RBAC(string(models.PermissionAdmin), middleware.Self), h.Users.Get)
	users.POST("", admin, h.Users.Create)
	users.PUT("/:id", admin, h.Users.Update)
	users.DELETE("/:id", admin, h.Users.Delete)

	departments := secured.Group("/departments")
	departments.GET("", h.Departments.List)
	departments.POST("", admin, h.Departments.Create)
	departments.PUT("/:id", admin, h.Departments.Update)
	departments.DELETE("/:id", admin, h.Departments.Delete)

	eventAudit := middleware.Audit(opts.Audit, models.AuditActionAgendaWrite, string(models.CollectionEvents))
	events := secured.Group("/events")
	events.GET("", h.Events.List)
	events.GET("/:id", h.Events.Get)
	events.POST("", writers, eventAudit, h.Events.Create)
	events.PUT("/:id", writers, eventAudit, h.Events.Update)
	events.PATCH("/:id/status", writers, eventAudit, h.Events.UpdateStatus)
	events.DELETE("/:id", writers, eventAudit, h.Events.Delete)

	taskAudit := middleware.Audit(opts.Audit, models.AuditActionAgendaWrite, string(models.CollectionTasks))
	tasks := secured.Group("/tasks")
	tasks.GET("", h.Tasks.List)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.POST("", writers, taskAudit, h.Tasks.Create)
	tasks.PUT("/:id", writers, taskAudit, h.Tasks.Update)
	tasks.PATCH("/:id/progress", writers, taskAudit, h.Tasks.UpdateProgress)
	tasks.DELETE("/:id", writers, taskAudit, h.Tasks.Delete)

	secured.GET("/calendar/month", h.Calendar.Month)
	secured.GET("/calendar/day", h.Calendar.Day)
	secured.GET("/agenda", h.Agenda.Personal)
	secured.GET("/export/agenda", h.Agenda.Export)

	adminGroup := secured.Group("/admin", admin)
	adminGroup.GET("/diagnostics", h.Admin.Diagnostics)
	adminGroup.POST("/sync", middleware.Audit(opts.Audit, models.AuditActionSync, "persistence"), h.Admin.Sync)
	adminGroup.POST("/cache/clear", h.Admin.ClearCache)

	return r
}
