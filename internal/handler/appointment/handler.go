package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/middleware"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/appointment"
	"github.com/campusware/gatepass/internal/service/pass"
	"github.com/campusware/gatepass/pkg/metrics"
)

type Handler struct {
	svc     *appointment.Service
	passes  *pass.Service
	metrics *metrics.Metrics
}

func NewHandler(svc *appointment.Service, passes *pass.Service, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, passes: passes, metrics: m}
}

// RegisterPublicRoutes mounts the unauthenticated visitor surface.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	grp := r.Group("/appointments")
	{
		grp.POST("", h.Create)
		grp.GET("/:id/pass", h.Pass)
	}
}

// RegisterRoutes mounts the authenticated staff surface.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/appointments")
	{
		grp.GET("", h.List)
		grp.GET("/:id", h.Get)
		grp.GET("/:id/pii", h.Reveal)
		grp.POST("/:id/approve", h.Approve)
		grp.POST("/:id/reject", h.Reject)
		grp.POST("/:id/complete", h.Complete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appt, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appt))
}

func (h *Handler) List(c *gin.Context) {
	filter := model.AppointmentFilter{
		Type:   model.AppointmentType(c.Query("type")),
		Status: model.AppointmentStatus(c.Query("status")),
		Limit:  50,
	}

	appts, err := h.svc.List(c.Request.Context(), middleware.AdminID(c), filter)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appts))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	appt, err := h.svc.Detail(c.Request.Context(), middleware.AdminID(c), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appt))
}

// Reveal returns the decrypted PII for an authorized viewer.
func (h *Handler) Reveal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	appt, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	pii, err := h.svc.Reveal(c.Request.Context(), middleware.AdminID(c), appt)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(pii))
}

// Pass renders the QR entry pass for an appointment. The pass carries
// only masked fields, so the endpoint is safe to expose to visitors.
func (h *Handler) Pass(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	appt, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	p, err := h.passes.ForAppointment(appt)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	result := "invalid"
	if p.Valid {
		result = "valid"
	}
	h.metrics.PassChecks.WithLabelValues(result).Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.svc.Reject)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.svc.Complete)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actorID int64, comment, origin string) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	// The review comment is optional, an empty body is fine.
	var req model.ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	if err := fn(c.Request.Context(), id, middleware.AdminID(c), req.Comment, c.ClientIP()); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
