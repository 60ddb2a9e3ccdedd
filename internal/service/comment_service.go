package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"conduit/internal/apperr"
	"conduit/internal/models"
	"conduit/internal/repository"
)

const (
	reasonCommentNotFound = "comment not found"
	reasonNotCommentOwner = "only the author can delete this comment"
)

type CommentService struct {
	articles repository.Articles
	comments repository.Comments
}

func NewCommentService(articles repository.Articles, comments repository.Comments) *CommentService {
	return &CommentService{articles: articles, comments: comments}
}

func (s *CommentService) List(ctx context.Context, viewer *models.LoggedInUser, slug string) ([]models.Comment, error) {
	a, err := s.article(ctx, slug, viewerID(viewer))
	if err != nil {
		return nil, err
	}
	return s.comments.ListByArticle(ctx, a.ID, viewerID(viewer))
}

func (s *CommentService) Add(ctx context.Context, author *models.LoggedInUser, slug, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.InvalidInput("body can't be blank")
	}
	a, err := s.article(ctx, slug, author.ID)
	if err != nil {
		return nil, err
	}
	c, err := s.comments.Create(ctx, models.Comment{ArticleID: a.ID, AuthorID: author.ID, Body: body})
	if err != nil {
		return nil, err
	}
	// The author never follows themselves.
	c.Author = models.Profile{Username: author.Username, Bio: author.Bio, Image: author.Image}
	return c, nil
}

// Delete removes a comment written by author. A comment that does not belong to
// the article in the path is reported as not found.
func (s *CommentService) Delete(ctx context.Context, author *models.LoggedInUser, slug string, id uuid.UUID) error {
	a, err := s.article(ctx, slug, author.ID)
	if err != nil {
		return err
	}
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || c.ArticleID != a.ID {
		return apperr.NotFound(reasonCommentNotFound)
	}
	if c.AuthorID != author.ID {
		return apperr.NotAuthorized(reasonNotCommentOwner)
	}
	ok, err := s.comments.Delete(ctx, id, author.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(reasonCommentNotFound)
	}
	return nil
}

func (s *CommentService) article(ctx context.Context, slug string, viewer uuid.UUID) (*models.Article, error) {
	a, err := s.articles.FindBySlug(ctx, slug, viewer)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound(reasonArticleNotFound)
	}
	return a, nil
}
