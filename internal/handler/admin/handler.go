package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/middleware"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/credential"
)

type Handler struct {
	credentials *credential.Service
}

func NewHandler(credentials *credential.Service) *Handler {
	return &Handler{credentials: credentials}
}

// RegisterRoutes mounts account administration. The group is expected
// to already require the system admin role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/admins")
	{
		grp.GET("/:id", h.Get)
		grp.POST("/:id/reset-password", h.ResetPassword)
		grp.PUT("/:id/status", h.SetStatus)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid admin id"))
		return
	}

	admin, err := h.credentials.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(admin))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid admin id"))
		return
	}

	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	operatorID := middleware.AdminID(c)
	if err := h.credentials.ResetPassword(c.Request.Context(), id, req.NewPassword, operatorID, c.ClientIP()); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid admin id"))
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	operatorID := middleware.AdminID(c)
	if err := h.credentials.SetEnabled(c.Request.Context(), id, *req.Enabled, operatorID, c.ClientIP()); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
