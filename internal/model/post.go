package model

import (
	"github.com/google/uuid"
)

// Content kinds checked by moderation
const (
	ContentPost    = "post"
	ContentReply   = "reply"
	ContentMessage = "message"
	ContentTitle   = "title"
)

// Post is a top-level discussion thread
type Post struct {
	Base
	AuthorID       uuid.UUID `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Title          string    `json:"title" db:"title"`
	Body           string    `json:"body" db:"body"`
	Hidden         bool      `json:"hidden" db:"hidden"`
	ReplyCount     int       `json:"reply_count" db:"reply_count"`
}

// Reply is a response to a post
type Reply struct {
	Base
	PostID         uuid.UUID `json:"post_id" db:"post_id"`
	AuthorID       uuid.UUID `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Body           string    `json:"body" db:"body"`
}

// PostFilters represents post listing parameters
type PostFilters struct {
	Page
	IncludeHidden bool       `form:"-"`
	AuthorID      *uuid.UUID `form:"-"`
}

type CreatePostRequest struct {
	Title string `json:"title" binding:"required,max=200"`
	Body  string `json:"body" binding:"required"`
}

type UpdatePostRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=200"`
	Body  *string `json:"body" binding:"omitempty,min=1"`
}

type CreateReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

type UpdateReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

type HidePostRequest struct {
	Hidden bool `json:"hidden"`
}
