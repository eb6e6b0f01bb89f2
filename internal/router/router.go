package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminh "github.com/campusware/gatepass/internal/handler/admin"
	appointmenth "github.com/campusware/gatepass/internal/handler/appointment"
	audith "github.com/campusware/gatepass/internal/handler/audit"
	authh "github.com/campusware/gatepass/internal/handler/auth"
	departmenth "github.com/campusware/gatepass/internal/handler/department"
	permissionh "github.com/campusware/gatepass/internal/handler/permission"

	"github.com/campusware/gatepass/internal/config"
	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/middleware"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/pkg/metrics"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authh.Handler
	adminH       *adminh.Handler
	permissionH  *permissionh.Handler
	auditH       *audith.Handler
	appointmentH *appointmenth.Handler
	departmentH  *departmenth.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authh.Handler,
	adminH *adminh.Handler,
	permissionH *permissionh.Handler,
	auditH *audith.Handler,
	appointmentH *appointmenth.Handler,
	departmentH *departmenth.Handler,
	m *metrics.Metrics,
	rl config.RateLimitConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidators()
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
	)

	if rl.Enabled {
		limiter := middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst)
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		adminH:       adminH,
		permissionH:  permissionH,
		auditH:       auditH,
		appointmentH: appointmentH,
		departmentH:  departmentH,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health", handler.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// Public surface: login and the visitor-facing appointment entry.
	r.authH.RegisterRoutes(api)
	r.appointmentH.RegisterPublicRoutes(api)

	// Staff surface.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.authH.RegisterProtectedRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)
	r.departmentH.RegisterRoutes(protected)

	// Account and grant administration is system-admin only.
	sysadmin := protected.Group("")
	sysadmin.Use(r.auth.RequireRole(model.RoleSystemAdmin))
	r.adminH.RegisterRoutes(sysadmin)
	r.permissionH.RegisterRoutes(sysadmin)

	// Ledger queries are for auditors and system admins.
	auditors := protected.Group("")
	auditors.Use(r.auth.RequireRole(model.RoleAuditAdmin, model.RoleSystemAdmin))
	r.auditH.RegisterRoutes(auditors)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
