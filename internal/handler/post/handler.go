package post

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/handler"
	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/post"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc *post.Service
}

func NewHandler(svc *post.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	posts := protected.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", h.CreatePost)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", h.UpdatePost)
		posts.DELETE("/:id", h.DeletePost)
		posts.PUT("/:id/hidden", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.SetHidden)
		posts.GET("/:id/replies", h.ListReplies)
		posts.POST("/:id/replies", h.CreateReply)
	}

	replies := protected.Group("/replies")
	{
		replies.PUT("/:id", h.UpdateReply)
		replies.DELETE("/:id", h.DeleteReply)
	}
}

func (h *Handler) ListPosts(c *gin.Context) {
	page, ok := handler.BindPage(c)
	if !ok {
		return
	}
	filters := &model.PostFilters{
		Page:          page,
		IncludeHidden: handler.QueryBool(c, "include_hidden"),
	}
	if raw := c.Query("author_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid author_id", err))
			return
		}
		filters.AuthorID = &id
	}

	posts, err := h.svc.ListPosts(c.Request.Context(), middleware.GetActor(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondWithList(c, posts, page)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req model.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.svc.CreatePost(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetPost(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPost(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.svc.UpdatePost(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeletePost(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "post deleted"})
}

func (h *Handler) SetHidden(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.HidePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.SetPostHidden(c.Request.Context(), middleware.GetActor(c), id, req.Hidden); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"hidden": req.Hidden})
}

func (h *Handler) ListReplies(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	page, ok := handler.BindPage(c)
	if !ok {
		return
	}

	replies, err := h.svc.ListReplies(c.Request.Context(), middleware.GetActor(c), id, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondWithList(c, replies, page)
}

func (h *Handler) CreateReply(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	reply, err := h.svc.CreateReply(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, reply)
}

func (h *Handler) UpdateReply(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	reply, err := h.svc.UpdateReply(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, reply)
}

func (h *Handler) DeleteReply(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteReply(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "reply deleted"})
}
