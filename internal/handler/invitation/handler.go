package invitation

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/handler"
	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/invitation"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc *invitation.Service
}

func NewHandler(svc *invitation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	invitations := protected.Group("/invitations", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		invitations.POST("", h.Create)
		invitations.GET("", h.List)
		invitations.DELETE("/:code", h.Revoke)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	inv, err := h.svc.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, inv)
}

func (h *Handler) List(c *gin.Context) {
	invitations, err := h.svc.List(c.Request.Context(), handler.QueryBool(c, "include_used"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if invitations == nil {
		invitations = []*model.Invitation{}
	}
	httputil.RespondWithSuccess(c, invitations)
}

func (h *Handler) Revoke(c *gin.Context) {
	if err := h.svc.Revoke(c.Request.Context(), middleware.GetActor(c), c.Param("code")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "invitation revoked"})
}
