package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusware/gatepass/internal/handler"
	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/pkg/metrics"
)

type Handler struct {
	ledger  *audit.Service
	metrics *metrics.Metrics
}

func NewHandler(ledger *audit.Service, m *metrics.Metrics) *Handler {
	return &Handler{ledger: ledger, metrics: m}
}

// RegisterRoutes mounts ledger queries. The group is expected to
// already require the audit or system admin role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/audit")
	{
		grp.GET("/entries", h.Query)
		grp.GET("/entries/:id", h.Get)
		grp.GET("/entries/:id/verify", h.VerifyOne)
		grp.POST("/verify", h.VerifyRecent)
		grp.GET("/stats", h.Stats)
	}
}

func (h *Handler) Query(c *gin.Context) {
	filter := model.AuditFilter{
		Operation: c.Query("operation"),
		Limit:     50,
	}
	if v := c.Query("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid actor id"))
			return
		}
		filter.ActorID = &id
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
			return
		}
		filter.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid offset"))
			return
		}
		filter.Offset = n
	}
	var err error
	if filter.Range, err = parseRange(c); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entries, err := h.ledger.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry id"))
		return
	}

	entry, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

// VerifyOne recomputes one entry's integrity tag.
func (h *Handler) VerifyOne(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry id"))
		return
	}

	entry, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	valid := h.ledger.Verify(entry)
	if !valid {
		h.metrics.IntegrityFailures.Inc()
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"id": id, "valid": valid}))
}

// VerifyRecent recomputes tags for the last N days of entries and
// returns the ids that failed.
func (h *Handler) VerifyRecent(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid days"))
			return
		}
		days = n
	}

	entries, err := h.ledger.RecentEntries(c.Request.Context(), days)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}

	failed := make([]int64, 0)
	for id, ok := range h.ledger.VerifyBatch(entries) {
		if !ok {
			failed = append(failed, id)
		}
	}
	if n := len(failed); n > 0 {
		h.metrics.IntegrityFailures.Add(float64(n))
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"checked": len(entries),
		"failed":  failed,
	}))
}

func (h *Handler) Stats(c *gin.Context) {
	tr, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	counts, err := h.ledger.CountByOperation(c.Request.Context(), tr)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewAppErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(counts))
}

func parseRange(c *gin.Context) (model.TimeRange, error) {
	var tr model.TimeRange
	for _, q := range []struct {
		key string
		dst *time.Time
	}{
		{"start", &tr.Start},
		{"end", &tr.End},
	} {
		v := c.Query(q.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return model.TimeRange{}, err
		}
		*q.dst = t
	}
	return tr, nil
}
