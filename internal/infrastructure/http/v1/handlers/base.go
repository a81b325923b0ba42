// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"portraits/internal/core/apperror"
	"portraits/internal/domain/directory"
)

// DirectoryProvider yields the loaded directory; *directory.Once satisfies it.
type DirectoryProvider interface {
	Get(ctx context.Context) (*directory.Store, error)
}

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	directory DirectoryProvider
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler(dir DirectoryProvider) *BaseHandler {
	return &BaseHandler{directory: dir}
}

// Store returns the directory or registers the load error and returns false.
func (h *BaseHandler) Store(c *gin.Context) (*directory.Store, bool) {
	store, err := h.directory.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return store, true
}

// Error registers err on the gin context and aborts the request. The
// response body is rendered by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// QueryList collects a repeatable query parameter. Each value may also hold
// a comma-separated list; blanks are dropped.
func (h *BaseHandler) QueryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// RequireList is QueryList that fails with VALIDATION_ERROR when empty.
func (h *BaseHandler) RequireList(c *gin.Context, key string) ([]string, bool) {
	values := h.QueryList(c, key)
	if len(values) == 0 {
		h.Error(c, apperror.NewValidation("missing query parameter").WithDetail("parameter", key))
		return nil, false
	}
	return values, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
