package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/middleware"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/internal/service/credential"
	"github.com/campusware/gatepass/pkg/auth"
	"github.com/campusware/gatepass/pkg/errors"
	"github.com/campusware/gatepass/pkg/logger"
	"github.com/campusware/gatepass/pkg/metrics"
)

type Handler struct {
	credentials *credential.Service
	auditor     *audit.Service
	tokens      auth.TokenService
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewHandler(credentials *credential.Service, auditor *audit.Service, tokens auth.TokenService, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		credentials: credentials,
		auditor:     auditor,
		tokens:      tokens,
		metrics:     m,
		log:         log.WithComponent("auth_handler"),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/auth")
	{
		grp.POST("/login", h.Login)
		grp.POST("/refresh", h.RefreshToken)
	}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	grp := r.Group("/auth")
	{
		grp.POST("/change-password", h.ChangePassword)
	}
}

// Login verifies the credential and records one audit entry per
// verdict. Failed attempts against an unknown login name are recorded
// with no actor.
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	origin := c.ClientIP()
	result, err := h.credentials.Verify(c.Request.Context(), req.LoginName, req.Password, origin)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	if !result.Authenticated() {
		h.metrics.LoginAttempts.WithLabelValues(string(result.Reason)).Inc()
		desc := fmt.Sprintf("login failed for %q: %s", req.LoginName, result.Reason)
		h.appendEntry(c, result.SubjectID, model.OpLoginFailed, desc, origin)

		failure := loginFailure(result.Reason)
		c.JSON(handler.StatusOf(failure), handler.NewAppErrorResponse(failure))
		return
	}

	admin := result.Admin
	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.appendEntry(c, &admin.ID, model.OpLogin, fmt.Sprintf("login succeeded for %q", admin.LoginName), origin)

	accessToken, err := h.tokens.GenerateAccessToken(admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to issue token"))
		return
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to issue token"))
		return
	}

	now := time.Now()
	h.credentials.CheckExpiryWarning(c.Request.Context(), admin)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(&model.TokenResponse{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		PasswordExpired:       credential.IsPasswordExpired(admin, now),
		PasswordExpiryWarning: credential.NeedsExpiryWarning(admin, now),
		PasswordRemainingDays: credential.PasswordRemainingDays(admin, now),
	}))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid refresh token"))
		return
	}

	admin, err := h.credentials.Get(c.Request.Context(), claims.AdminID)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	if !admin.Enabled {
		c.JSON(http.StatusForbidden, handler.NewAppErrorResponse(errors.Disabled()))
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"access_token": accessToken}))
}

// ChangePassword is the authenticated self-service change.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	adminID := middleware.AdminID(c)
	err := h.credentials.ChangePassword(c.Request.Context(), adminID, req.OldPassword, req.NewPassword, c.ClientIP())
	if err != nil {
		h.metrics.PasswordChanges.WithLabelValues("failure").Inc()
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	h.metrics.PasswordChanges.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// loginFailure maps the verdict to a client error. Unknown names and
// wrong passwords share one message; locked and disabled states are
// explicit.
func loginFailure(reason errors.ErrorCode) *errors.AppError {
	switch reason {
	case errors.CodeLocked:
		return errors.Locked()
	case errors.CodeDisabled:
		return errors.Disabled()
	case errors.CodeUnknownIdentifier:
		return errors.UnknownIdentifier()
	default:
		return errors.WrongPassword()
	}
}

func (h *Handler) appendEntry(c *gin.Context, actorID *int64, operation, description, origin string) {
	if _, err := h.auditor.Append(c.Request.Context(), actorID, operation, description, origin, time.Now()); err != nil {
		h.log.Error(err, "failed to record login outcome", "operation", operation)
	}
}
