package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"conduit/internal/models"
	"conduit/internal/repository/db"
)

type CommentRepository struct {
	conn *db.Conn
}

func NewCommentRepository(conn *db.Conn) *CommentRepository {
	return &CommentRepository{conn: conn}
}

var _ Comments = (*CommentRepository)(nil)

const (
	insertCommentSQL = `INSERT INTO comments (id, article_id, author_id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	selectCommentSQL = `SELECT id, article_id, author_id, body, created_at, updated_at FROM comments WHERE id = ?`
	deleteCommentSQL = `DELETE FROM comments WHERE id = ? AND author_id = ?`

	// The first placeholder is the viewer id.
	selectCommentViewsSQL = `SELECT c.id, c.article_id, c.author_id, c.body, c.created_at, c.updated_at,
	u.username, u.bio, u.image,
	(SELECT COUNT(*) FROM follows f WHERE f.follower_id = ? AND f.followee_id = c.author_id)
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.article_id = ?
ORDER BY c.created_at, c.id`
)

// Create stores a new comment. A zero ID is replaced with a fresh UUID.
func (r *CommentRepository) Create(ctx context.Context, c models.Comment) (*models.Comment, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := utcNow()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.conn.ExecContext(ctx, r.conn.Rebind(insertCommentSQL),
		c.ID, c.ArticleID, c.AuthorID, c.Body, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert comment on %s: %w", c.ArticleID, err)
	}
	return &c, nil
}

// FindByID fetches a bare comment without its author profile. Returns (nil, nil) if not found.
func (r *CommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	err := r.conn.QueryRowContext(ctx, r.conn.Rebind(selectCommentSQL), id).
		Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select comment %s: %w", id, err)
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return &c, nil
}

// ListByArticle returns the article's comments oldest first, with authors as seen by viewer.
func (r *CommentRepository) ListByArticle(ctx context.Context, articleID, viewer uuid.UUID) ([]models.Comment, error) {
	rows, err := r.conn.QueryContext(ctx, r.conn.Rebind(selectCommentViewsSQL), viewer, articleID)
	if err != nil {
		return nil, fmt.Errorf("select comments for %s: %w", articleID, err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0, 16)
	for rows.Next() {
		var (
			c         models.Comment
			following int
		)
		err := rows.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
			&c.Author.Username, &c.Author.Bio, &c.Author.Image, &following)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
		c.Author.Following = following > 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

// Delete removes the comment if authorID wrote it. It reports false when no row matched.
func (r *CommentRepository) Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	res, err := r.conn.ExecContext(ctx, r.conn.Rebind(deleteCommentSQL), id, authorID)
	if err != nil {
		return false, fmt.Errorf("delete comment %s: %w", id, err)
	}
	return affected(res)
}
