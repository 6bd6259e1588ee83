package message

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/handler"
	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/message"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc *message.Service
}

func NewHandler(svc *message.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	messages := protected.Group("/messages")
	{
		messages.GET("", h.Inbox)
		messages.GET("/sent", h.Sent)
		messages.GET("/unread-count", h.UnreadCount)
		messages.POST("", h.Send)
		messages.GET("/:id", h.Get)
		messages.PUT("/:id/read", h.MarkRead)
		messages.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Inbox(c *gin.Context) {
	var filters model.MessageFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	filters.Page = filters.Page.Normalize()

	messages, err := h.svc.Inbox(c.Request.Context(), middleware.GetActor(c), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondWithList(c, messages, filters.Page)
}

func (h *Handler) Sent(c *gin.Context) {
	page, ok := handler.BindPage(c)
	if !ok {
		return
	}

	messages, err := h.svc.Sent(c.Request.Context(), middleware.GetActor(c), page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondWithList(c, messages, page)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"unread": count})
}

func (h *Handler) Send(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, msg)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	msg, err := h.svc.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, msg)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "message deleted"})
}
