package service

import (
	"context"

	"github.com/google/uuid"

	"conduit/internal/logger"
	"conduit/internal/models"
	"conduit/internal/repository"
)

// Users covers registration, login and profile edits of the caller.
type Users interface {
	Register(ctx context.Context, in Registration) (*models.LoggedInUser, error)
	Login(ctx context.Context, email, password string) (*models.LoggedInUser, error)
	Update(ctx context.Context, current *models.LoggedInUser, upd models.UserUpdate) (*models.LoggedInUser, error)
}

// Profiles exposes other users as seen by the (possibly anonymous) caller.
type Profiles interface {
	Get(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error)
	Follow(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error)
	Unfollow(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error)
}

// Articles manages articles. Update and Delete are allowed to the author only.
type Articles interface {
	List(ctx context.Context, viewer *models.LoggedInUser, f models.ArticleFilter) ([]models.Article, int, error)
	Feed(ctx context.Context, viewer *models.LoggedInUser, limit, offset int) ([]models.Article, int, error)
	Get(ctx context.Context, viewer *models.LoggedInUser, slug string) (*models.Article, error)
	Create(ctx context.Context, author *models.LoggedInUser, in NewArticle) (*models.Article, error)
	Update(ctx context.Context, author *models.LoggedInUser, slug string, upd models.ArticleUpdate) (*models.Article, error)
	Delete(ctx context.Context, author *models.LoggedInUser, slug string) error
	Favorite(ctx context.Context, user *models.LoggedInUser, slug string) (*models.Article, error)
	Unfavorite(ctx context.Context, user *models.LoggedInUser, slug string) (*models.Article, error)
}

// Comments manages comments on articles. Delete is allowed to the comment's author only.
type Comments interface {
	List(ctx context.Context, viewer *models.LoggedInUser, slug string) ([]models.Comment, error)
	Add(ctx context.Context, author *models.LoggedInUser, slug, body string) (*models.Comment, error)
	Delete(ctx context.Context, author *models.LoggedInUser, slug string, id uuid.UUID) error
}

type Tags interface {
	List(ctx context.Context) ([]string, error)
}

// Service aggregates all sub-services.
type Service struct {
	Users    Users
	Profiles Profiles
	Articles Articles
	Comments Comments
	Tags     Tags
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, hasher PasswordHasher, tokens TokenIssuer, log *logger.Logger) *Service {
	return &Service{
		Users:    NewUserService(repos.Users, hasher, tokens, log),
		Profiles: NewProfileService(repos.Users, repos.Follows),
		Articles: NewArticleService(repos.Articles),
		Comments: NewCommentService(repos.Articles, repos.Comments),
		Tags:     NewTagService(repos.Tags),
	}
}

// viewerID is uuid.Nil for anonymous callers.
func viewerID(u *models.LoggedInUser) uuid.UUID {
	if u == nil {
		return uuid.Nil
	}
	return u.ID
}
