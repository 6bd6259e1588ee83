package moderation

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/moderation"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc *moderation.Service
}

func NewHandler(svc *moderation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/moderation", h.Get)
	protected.PUT("/moderation", middleware.RequireRole(model.RoleAdmin), h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	cfg, err := h.svc.Update(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}
