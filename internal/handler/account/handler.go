package account

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/account"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	service account.AccountServicer
}

func NewHandler(service account.AccountServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, _ *gin.RouterGroup) {
	register := public.Group("/register")
	{
		register.POST("", h.Register)
		register.GET("/invitations/:code", h.GetInvitationRole)
	}
}

// GetInvitationRole lets the sign-up form show which role a code grants
// before the user fills it in.
func (h *Handler) GetInvitationRole(c *gin.Context) {
	role, err := h.service.GetRoleForInvitationCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"role": role})
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}
