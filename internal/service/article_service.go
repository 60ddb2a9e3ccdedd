package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"conduit/internal/apperr"
	"conduit/internal/models"
	"conduit/internal/repository"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50

	reasonArticleNotFound = "article not found"
	reasonNotArticleOwner = "only the author can modify this article"
)

// NewArticle is the input of article creation.
type NewArticle struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

type ArticleService struct {
	articles repository.Articles
}

func NewArticleService(articles repository.Articles) *ArticleService {
	return &ArticleService{articles: articles}
}

func (s *ArticleService) List(ctx context.Context, viewer *models.LoggedInUser, f models.ArticleFilter) ([]models.Article, int, error) {
	f.Limit, f.Offset = NormalizePage(f.Limit, f.Offset)
	return s.articles.List(ctx, f, viewerID(viewer))
}

func (s *ArticleService) Feed(ctx context.Context, viewer *models.LoggedInUser, limit, offset int) ([]models.Article, int, error) {
	limit, offset = NormalizePage(limit, offset)
	return s.articles.Feed(ctx, viewer.ID, limit, offset)
}

func (s *ArticleService) Get(ctx context.Context, viewer *models.LoggedInUser, slug string) (*models.Article, error) {
	return s.find(ctx, slug, viewerID(viewer))
}

func (s *ArticleService) Create(ctx context.Context, author *models.LoggedInUser, in NewArticle) (*models.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return nil, apperr.InvalidInput("title can't be blank")
	case strings.TrimSpace(in.Description) == "":
		return nil, apperr.InvalidInput("description can't be blank")
	case strings.TrimSpace(in.Body) == "":
		return nil, apperr.InvalidInput("body can't be blank")
	}

	created, err := s.articles.Create(ctx, models.Article{
		Slug:        NewSlug(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		TagList:     in.TagList,
		AuthorID:    author.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, "article slug already exists", err)
		}
		return nil, err
	}
	return s.find(ctx, created.Slug, author.ID)
}

// Update changes an article owned by author. A new title gives a new slug.
func (s *ArticleService) Update(ctx context.Context, author *models.LoggedInUser, slug string, upd models.ArticleUpdate) (*models.Article, error) {
	a, err := s.owned(ctx, author, slug)
	if err != nil {
		return nil, err
	}

	var newSlug *string
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperr.InvalidInput("title can't be blank")
		}
		upd.Title = &title
		if title != a.Title {
			generated := NewSlug(title)
			newSlug = &generated
		}
	}

	ok, err := s.articles.Update(ctx, a.ID, author.ID, upd, newSlug)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound(reasonArticleNotFound)
	}
	if newSlug != nil {
		slug = *newSlug
	}
	return s.find(ctx, slug, author.ID)
}

func (s *ArticleService) Delete(ctx context.Context, author *models.LoggedInUser, slug string) error {
	a, err := s.owned(ctx, author, slug)
	if err != nil {
		return err
	}
	ok, err := s.articles.Delete(ctx, a.ID, author.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(reasonArticleNotFound)
	}
	return nil
}

func (s *ArticleService) Favorite(ctx context.Context, user *models.LoggedInUser, slug string) (*models.Article, error) {
	a, err := s.find(ctx, slug, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.articles.Favorite(ctx, user.ID, a.ID); err != nil {
		return nil, err
	}
	return s.find(ctx, slug, user.ID)
}

func (s *ArticleService) Unfavorite(ctx context.Context, user *models.LoggedInUser, slug string) (*models.Article, error) {
	a, err := s.find(ctx, slug, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.articles.Unfavorite(ctx, user.ID, a.ID); err != nil {
		return nil, err
	}
	return s.find(ctx, slug, user.ID)
}

func (s *ArticleService) find(ctx context.Context, slug string, viewer uuid.UUID) (*models.Article, error) {
	a, err := s.articles.FindBySlug(ctx, slug, viewer)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound(reasonArticleNotFound)
	}
	return a, nil
}

// owned fetches the article and checks author wrote it: absent is NotFound,
// someone else's is NotAuthorized.
func (s *ArticleService) owned(ctx context.Context, author *models.LoggedInUser, slug string) (*models.Article, error) {
	a, err := s.find(ctx, slug, author.ID)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != author.ID {
		return nil, apperr.NotAuthorized(reasonNotArticleOwner)
	}
	return a, nil
}

// NormalizePage applies the default and maximum page size and clamps a negative offset.
func NormalizePage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NewSlug derives a URL slug from title with a short random suffix, e.g.
// "how-to-train-your-dragon-1a2b3c4d".
func NewSlug(title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := slugify(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
