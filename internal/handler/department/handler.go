package department

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/repository"
)

// Handler serves the department directory. Read-only, no service layer
// needed.
type Handler struct {
	repo repository.DepartmentRepository
}

func NewHandler(repo repository.DepartmentRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/departments")
	{
		grp.GET("", h.List)
		grp.GET("/:id", h.Get)
	}
}

func (h *Handler) List(c *gin.Context) {
	depts, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(depts))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department id"))
		return
	}

	dept, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(dept))
}
