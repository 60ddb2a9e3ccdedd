package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type tagsResponse struct {
	Tags []string `json:"tags"`
}

// listTags godoc
// @Summary      List tags in use
// @Tags         tags
// @Produce      json
// @Success      200  {object}  tagsResponse
// @Router       /api/tags [get]
func (h *Handler) listTags(c *gin.Context) {
	tags, err := h.services.Tags.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, tagsResponse{Tags: tags})
}
