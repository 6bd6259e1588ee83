package audit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/handler"
	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc *audit.Service
}

func NewHandler(svc *audit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/audit-logs", middleware.RequireRole(model.RoleAdmin), h.List)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.AuditFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	if raw := c.Query("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid actor_id", err))
			return
		}
		filters.ActorID = &id
	}

	logs, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondWithList(c, logs, filters.Page)
}
