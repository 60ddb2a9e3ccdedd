package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"conduit/internal/apperr"
	"conduit/internal/models"
)

const reasonCommentNotFound = "comment not found"

type commentRequest struct {
	Comment *struct {
		Body string `json:"body"`
	} `json:"comment" binding:"required"`
}

type commentResponse struct {
	Comment *models.Comment `json:"comment"`
}

type commentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

// listComments godoc
// @Summary      Comments on an article
// @Tags         comments
// @Produce      json
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  commentsResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/articles/{slug}/comments [get]
func (h *Handler) listComments(c *gin.Context) {
	comments, err := h.services.Comments.List(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, commentsResponse{Comments: comments})
}

// addComment godoc
// @Summary      Comment on an article
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        slug  path      string          true  "Article slug"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  commentResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/articles/{slug}/comments [post]
// @Security     TokenAuth
func (h *Handler) addComment(c *gin.Context) {
	var input commentRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	comment, err := h.services.Comments.Add(c.Request.Context(), currentUser(c), c.Param("slug"), input.Comment.Body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentResponse{Comment: comment})
}

// deleteComment godoc
// @Summary      Delete a comment (comment author only)
// @Tags         comments
// @Param        slug  path  string  true  "Article slug"
// @Param        id    path  string  true  "Comment id"
// @Success      204
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/articles/{slug}/comments/{id} [delete]
// @Security     TokenAuth
func (h *Handler) deleteComment(c *gin.Context) {
	// A malformed id cannot name an existing comment.
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.writeError(c, apperr.NotFound(reasonCommentNotFound))
		return
	}

	if err := h.services.Comments.Delete(c.Request.Context(), currentUser(c), c.Param("slug"), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
