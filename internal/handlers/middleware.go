package handlers

import (
	"github.com/gin-gonic/gin"

	"conduit/internal/models"
)

const currentUserKey = "currentUser"

// requireUser rejects the request unless a valid "Token <jwt>" header is sent.
func (h *Handler) requireUser(c *gin.Context) {
	h.resolveUser(c, true)
}

// optionalUser lets anonymous requests through, but still rejects a header
// that is present and invalid.
func (h *Handler) optionalUser(c *gin.Context) {
	h.resolveUser(c, false)
}

func (h *Handler) resolveUser(c *gin.Context, required bool) {
	user, err := h.identity.Resolve(c.Request.Context(), c.GetHeader("Authorization"), required)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	// store in Gin context
	if user != nil {
		c.Set(currentUserKey, user)
	}
	c.Next()
}

// currentUser returns the caller set by the identity middleware, or nil when anonymous.
func currentUser(c *gin.Context) *models.LoggedInUser {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.LoggedInUser)
	return u
}
