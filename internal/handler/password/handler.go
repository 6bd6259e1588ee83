package password

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/password"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc *password.Service
}

func NewHandler(svc *password.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, _ *gin.RouterGroup) {
	passwords := public.Group("/password")
	{
		passwords.POST("/validate", h.Validate)
		passwords.GET("/policy", h.Policy)
	}
}

// Validate reports every policy violation of the candidate. A weak password
// is a normal answer here, not an error.
func (h *Handler) Validate(c *gin.Context) {
	var req model.ValidatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, h.svc.Validate(req.Password))
}

func (h *Handler) Policy(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.svc.Policy())
}
