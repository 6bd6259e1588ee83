package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

// Handler registers its routes on the public and the authenticated group
type Handler interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// ParseID reads the uuid path parameter name, answering 400 when it is
// malformed.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// BindPage reads limit and offset from the query string
func BindPage(c *gin.Context) (model.Page, bool) {
	var page model.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithBindError(c, err)
		return page, false
	}
	return page.Normalize(), true
}

// QueryBool reads a boolean query flag; anything unparsable is false.
func QueryBool(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

// RespondWithList writes items with the normalized page as pagination
func RespondWithList[T any](c *gin.Context, items []T, page model.Page) {
	if items == nil {
		items = []T{}
	}
	page = page.Normalize()
	httputil.RespondWithPagination(c, items, page.Limit, page.Offset, len(items))
}
