package permission

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/middleware"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/permission"
	"github.com/campusware/gatepass/pkg/metrics"
)

type Handler struct {
	resolver *permission.Service
	metrics  *metrics.Metrics
}

func NewHandler(resolver *permission.Service, m *metrics.Metrics) *Handler {
	return &Handler{resolver: resolver, metrics: m}
}

// RegisterRoutes mounts delegated-permission management. The group is
// expected to already require the system admin role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/permissions")
	{
		grp.POST("/grant", h.Grant)
		grp.POST("/revoke", h.Revoke)
		grp.GET("/admins/:id", h.ListGrants)
	}
}

func (h *Handler) Grant(c *gin.Context) {
	var req model.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown permission type"))
		return
	}

	grantedBy := middleware.AdminID(c)
	if err := h.resolver.Grant(c.Request.Context(), req.AdminID, req.Type, grantedBy, c.ClientIP()); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	h.metrics.GrantsIssued.Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Revoke(c *gin.Context) {
	var req model.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown permission type"))
		return
	}

	revokedBy := middleware.AdminID(c)
	if err := h.resolver.Revoke(c.Request.Context(), req.AdminID, req.Type, revokedBy, c.ClientIP()); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	h.metrics.GrantsRevoked.Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListGrants(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid admin id"))
		return
	}

	grants, err := h.resolver.ListGrants(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(grants))
}
