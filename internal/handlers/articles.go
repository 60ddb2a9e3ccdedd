package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conduit/internal/models"
	"conduit/internal/service"
)

type articleQuery struct {
	Tag       string `form:"tag"`
	Author    string `form:"author"`
	Favorited string `form:"favorited"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

type articleInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Body        *string  `json:"body"`
	TagList     []string `json:"tagList"`
}

type articleRequest struct {
	Article *articleInput `json:"article" binding:"required"`
}

type articleResponse struct {
	Article *models.Article `json:"article"`
}

type articlesResponse struct {
	Articles      []models.Article `json:"articles"`
	ArticlesCount int              `json:"articlesCount"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newArticlesResponse(articles []models.Article, total int) articlesResponse {
	if articles == nil {
		articles = []models.Article{}
	}
	return articlesResponse{Articles: articles, ArticlesCount: total}
}

// bindQueryOrBadRequest binds query parameters; a non-numeric limit or offset is a 400.
func (h *Handler) bindQueryOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		h.log.Infow("http_bad_query", "route", c.FullPath(), "err", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid query parameters"})
		return false
	}
	return true
}

// listArticles godoc
// @Summary      List articles, newest first
// @Tags         articles
// @Produce      json
// @Param        tag        query     string  false  "Filter by tag"
// @Param        author     query     string  false  "Filter by author username"
// @Param        favorited  query     string  false  "Filter by username who favorited"
// @Param        limit      query     int     false  "Page size (default 20, max 50)"
// @Param        offset     query     int     false  "Items to skip"
// @Success      200        {object}  articlesResponse
// @Failure      400        {object}  errorResponse
// @Router       /api/articles [get]
func (h *Handler) listArticles(c *gin.Context) {
	var q articleQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}

	articles, total, err := h.services.Articles.List(c.Request.Context(), currentUser(c), models.ArticleFilter{
		Tag:         q.Tag,
		Author:      q.Author,
		FavoritedBy: q.Favorited,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticlesResponse(articles, total))
}

// feedArticles godoc
// @Summary      Articles by followed authors
// @Tags         articles
// @Produce      json
// @Param        limit   query     int  false  "Page size (default 20, max 50)"
// @Param        offset  query     int  false  "Items to skip"
// @Success      200     {object}  articlesResponse
// @Failure      401     {object}  errorResponse
// @Router       /api/articles/feed [get]
// @Security     TokenAuth
func (h *Handler) feedArticles(c *gin.Context) {
	var q articleQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}

	articles, total, err := h.services.Articles.Feed(c.Request.Context(), currentUser(c), q.Limit, q.Offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticlesResponse(articles, total))
}

// getArticle godoc
// @Summary      Get an article
// @Tags         articles
// @Produce      json
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  articleResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/articles/{slug} [get]
func (h *Handler) getArticle(c *gin.Context) {
	a, err := h.services.Articles.Get(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: a})
}

// createArticle godoc
// @Summary      Create an article
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body  body      articleRequest  true  "Article"
// @Success      201   {object}  articleResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/articles [post]
// @Security     TokenAuth
func (h *Handler) createArticle(c *gin.Context) {
	var input articleRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	a, err := h.services.Articles.Create(c.Request.Context(), currentUser(c), service.NewArticle{
		Title:       deref(input.Article.Title),
		Description: deref(input.Article.Description),
		Body:        deref(input.Article.Body),
		TagList:     input.Article.TagList,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, articleResponse{Article: a})
}

// updateArticle godoc
// @Summary      Update an article (author only)
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        slug  path      string          true  "Article slug"
// @Param        body  body      articleRequest  true  "Fields to change"
// @Success      200   {object}  articleResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/articles/{slug} [put]
// @Security     TokenAuth
func (h *Handler) updateArticle(c *gin.Context) {
	var input articleRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	a, err := h.services.Articles.Update(c.Request.Context(), currentUser(c), c.Param("slug"), models.ArticleUpdate{
		Title:       input.Article.Title,
		Description: input.Article.Description,
		Body:        input.Article.Body,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: a})
}

// deleteArticle godoc
// @Summary      Delete an article (author only)
// @Tags         articles
// @Param        slug  path  string  true  "Article slug"
// @Success      204
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/articles/{slug} [delete]
// @Security     TokenAuth
func (h *Handler) deleteArticle(c *gin.Context) {
	if err := h.services.Articles.Delete(c.Request.Context(), currentUser(c), c.Param("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// favoriteArticle godoc
// @Summary      Favorite an article
// @Tags         articles
// @Produce      json
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  articleResponse
// @Router       /api/articles/{slug}/favorite [post]
// @Security     TokenAuth
func (h *Handler) favoriteArticle(c *gin.Context) {
	a, err := h.services.Articles.Favorite(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: a})
}

// unfavoriteArticle godoc
// @Summary      Remove an article from favorites
// @Tags         articles
// @Produce      json
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  articleResponse
// @Router       /api/articles/{slug}/favorite [delete]
// @Security     TokenAuth
func (h *Handler) unfavoriteArticle(c *gin.Context) {
	a, err := h.services.Articles.Unfavorite(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: a})
}
