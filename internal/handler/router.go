package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/middleware"
	"github.com/noah-isme/music-school-api/internal/models"
)

// Handlers bundles every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Availability *AvailabilityHandler
	Trials       *TrialHandler
	Enrollments  *EnrollmentHandler
	Payments     *PaymentHandler
	System       *MetricsHandler
}

// RouteOptions carries the cross-cutting middleware for the API group.
type RouteOptions struct {
	Prefix    string
	Auth      gin.HandlerFunc
	RateLimit gin.HandlerFunc
	Logger    *zap.Logger
}

// RegisterRoutes mounts the probes at the root and the API under opts.Prefix (default /api/v1).
func RegisterRoutes(r gin.IRouter, h Handlers, opts RouteOptions) {
	r.GET("/health", h.System.Health)
	r.GET("/ready", h.System.Ready)
	r.GET("/metrics", h.System.Prometheus)

	auth := opts.Auth
	if auth == nil {
		auth = func(c *gin.Context) { c.Next() }
	}
	limit := opts.RateLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	staffOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.RoleSelf)

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix, middleware.WithResponseMeta(), auth)

	availability := api.Group("/availability")
	availability.GET("/:userId", h.Availability.List)
	availability.POST("/:userId", limit, middleware.Audit(opts.Logger, "availability.add"), h.Availability.Add)
	availability.POST("/:userId/copy", limit, middleware.Audit(opts.Logger, "availability.copy"), h.Availability.Copy)
	availability.PUT("/slots/:slotId", limit, middleware.Audit(opts.Logger, "availability.update"), h.Availability.Update)
	availability.DELETE("/slots/:slotId", limit, middleware.Audit(opts.Logger, "availability.delete"), h.Availability.Delete)

	api.GET("/courses/:id/slots", h.Enrollments.Slots)

	api.POST("/trials", staff, limit, middleware.Audit(opts.Logger, "trial.record"), h.Trials.Record)
	api.GET("/students/:id/trials", staffOrSelf, h.Trials.List)

	enrollments := api.Group("/enrollments")
	enrollments.POST("", admin, limit, middleware.Audit(opts.Logger, "enrollment.begin"), h.Enrollments.Begin)
	enrollments.POST("/intents/:token", admin, limit, middleware.Audit(opts.Logger, "enrollment.continue"), h.Enrollments.Continue)
	enrollments.GET("/:id/sessions", staff, h.Enrollments.Sessions)
	enrollments.GET("/:id/sessions/export", staff, h.Enrollments.Export)

	api.POST("/payment-links", admin, limit, middleware.Audit(opts.Logger, "payment_link.create"), h.Payments.Create)
}
