package repository

import (
	"context"

	"github.com/google/uuid"

	"conduit/internal/auth"
	"conduit/internal/models"
	"conduit/internal/repository/db"
)

// Users is the user store: the auth directory plus profile edits.
type Users interface {
	auth.UserDirectory
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate, passwordHash *string) (*models.User, error)
}

type Follows interface {
	Follow(ctx context.Context, follower, followee uuid.UUID) error
	Unfollow(ctx context.Context, follower, followee uuid.UUID) error
	IsFollowing(ctx context.Context, follower, followee uuid.UUID) (bool, error)
}

// Articles reads and writes articles. viewer is uuid.Nil for anonymous callers.
type Articles interface {
	Create(ctx context.Context, a models.Article) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*models.Article, error)
	List(ctx context.Context, f models.ArticleFilter, viewer uuid.UUID) ([]models.Article, int, error)
	Feed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]models.Article, int, error)
	Update(ctx context.Context, id, authorID uuid.UUID, upd models.ArticleUpdate, slug *string) (bool, error)
	Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error)
	Favorite(ctx context.Context, userID, articleID uuid.UUID) error
	Unfavorite(ctx context.Context, userID, articleID uuid.UUID) error
}

type Comments interface {
	Create(ctx context.Context, c models.Comment) (*models.Comment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID, viewer uuid.UUID) ([]models.Comment, error)
	Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error)
}

type Tags interface {
	List(ctx context.Context) ([]string, error)
}

type Repository struct {
	Users    Users
	Follows  Follows
	Articles Articles
	Comments Comments
	Tags     Tags

	conn *db.Conn
}

func NewRepository(conn *db.Conn) *Repository {
	return &Repository{
		Users:    NewUserRepository(conn),
		Follows:  NewProfileRepository(conn),
		Articles: NewArticleRepository(conn),
		Comments: NewCommentRepository(conn),
		Tags:     NewTagRepository(conn),
		conn:     conn,
	}
}

// Ping checks that the store still answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.conn.PingContext(ctx)
}
