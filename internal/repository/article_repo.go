package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"conduit/internal/models"
	"conduit/internal/repository/db"
)

type ArticleRepository struct {
	conn *db.Conn
}

func NewArticleRepository(conn *db.Conn) *ArticleRepository {
	return &ArticleRepository{conn: conn}
}

var _ Articles = (*ArticleRepository)(nil)

// The first two placeholders are always the viewer id (uuid.Nil when anonymous).
const selectArticleViewSQL = `SELECT a.id, a.slug, a.title, a.description, a.body, a.author_id, a.created_at, a.updated_at,
	u.username, u.bio, u.image,
	(SELECT COUNT(*) FROM follows f WHERE f.follower_id = ? AND f.followee_id = a.author_id),
	(SELECT COUNT(*) FROM favorites fv WHERE fv.user_id = ? AND fv.article_id = a.id),
	(SELECT COUNT(*) FROM favorites fc WHERE fc.article_id = a.id)
FROM articles a
JOIN users u ON u.id = a.author_id`

const (
	countArticlesSQL = `SELECT COUNT(*) FROM articles a JOIN users u ON u.id = a.author_id`
	insertArticleSQL = `INSERT INTO articles (id, slug, title, description, body, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	insertArticleTagSQL = `INSERT INTO article_tags (article_id, tag) VALUES (?, ?) ON CONFLICT DO NOTHING`
	updateArticleSQL    = `UPDATE articles SET
		slug = COALESCE(?, slug),
		title = COALESCE(?, title),
		description = COALESCE(?, description),
		body = COALESCE(?, body),
		updated_at = ?
		WHERE id = ? AND author_id = ?`
	deleteArticleSQL    = `DELETE FROM articles WHERE id = ? AND author_id = ?`
	insertFavoriteSQL   = `INSERT INTO favorites (user_id, article_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
	deleteFavoriteSQL   = `DELETE FROM favorites WHERE user_id = ? AND article_id = ?`
	selectTagsForIDsSQL = `SELECT article_id, tag FROM article_tags WHERE article_id IN (%s) ORDER BY tag`

	whereSlug        = `a.slug = ?`
	whereTag         = `EXISTS (SELECT 1 FROM article_tags t WHERE t.article_id = a.id AND t.tag = ?)`
	whereAuthor      = `u.username = ?`
	whereFavoritedBy = `EXISTS (SELECT 1 FROM favorites fb JOIN users fu ON fu.id = fb.user_id WHERE fb.article_id = a.id AND fu.username = ?)`
	whereFollowedBy  = `a.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)`
	orderPage        = ` ORDER BY a.created_at DESC, a.id LIMIT ? OFFSET ?`
)

// Create stores a new article and its tags in one transaction.
func (r *ArticleRepository) Create(ctx context.Context, a models.Article) (*models.Article, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := utcNow()
	a.CreatedAt, a.UpdatedAt = now, now
	a.TagList = uniqueTags(a.TagList)

	err := r.conn.WithTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, r.conn.Rebind(insertArticleSQL),
			a.ID, a.Slug, a.Title, a.Description, a.Body, a.AuthorID, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return err
		}
		for _, tag := range a.TagList {
			if _, err := tx.ExecContext(ctx, r.conn.Rebind(insertArticleTagSQL), a.ID, tag); err != nil {
				return fmt.Errorf("tag %q: %w", tag, err)
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert article %q: %w", a.Slug, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert article %q: %w", a.Slug, err)
	}
	return &a, nil
}

// FindBySlug returns the article as seen by viewer. Returns (nil, nil) if not found.
func (r *ArticleRepository) FindBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*models.Article, error) {
	q := selectArticleViewSQL + ` WHERE ` + whereSlug
	a, err := scanArticle(r.conn.QueryRowContext(ctx, r.conn.Rebind(q), viewer, viewer, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select article %q: %w", slug, err)
	}
	articles := []models.Article{*a}
	if err := r.loadTags(ctx, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// List returns one page of articles matching f, newest first, and the total
// number of matches.
func (r *ArticleRepository) List(ctx context.Context, f models.ArticleFilter, viewer uuid.UUID) ([]models.Article, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.Tag != "" {
		conds = append(conds, whereTag)
		args = append(args, f.Tag)
	}
	if f.Author != "" {
		conds = append(conds, whereAuthor)
		args = append(args, f.Author)
	}
	if f.FavoritedBy != "" {
		conds = append(conds, whereFavoritedBy)
		args = append(args, f.FavoritedBy)
	}
	return r.page(ctx, conds, args, viewer, f.Limit, f.Offset)
}

// Feed returns articles written by authors viewer follows, newest first.
func (r *ArticleRepository) Feed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]models.Article, int, error) {
	return r.page(ctx, []string{whereFollowedBy}, []any{viewer}, viewer, limit, offset)
}

// Update applies the non-nil fields of upd to the article if authorID owns it.
// It reports false when no row matched.
func (r *ArticleRepository) Update(ctx context.Context, id, authorID uuid.UUID, upd models.ArticleUpdate, slug *string) (bool, error) {
	res, err := r.conn.ExecContext(ctx, r.conn.Rebind(updateArticleSQL),
		slug, upd.Title, upd.Description, upd.Body, utcNow(), id, authorID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("update article %s: %w", id, ErrDuplicate)
		}
		return false, fmt.Errorf("update article %s: %w", id, err)
	}
	return affected(res)
}

// Delete removes the article if authorID owns it. It reports false when no row matched.
func (r *ArticleRepository) Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	res, err := r.conn.ExecContext(ctx, r.conn.Rebind(deleteArticleSQL), id, authorID)
	if err != nil {
		return false, fmt.Errorf("delete article %s: %w", id, err)
	}
	return affected(res)
}

func (r *ArticleRepository) Favorite(ctx context.Context, userID, articleID uuid.UUID) error {
	if _, err := r.conn.ExecContext(ctx, r.conn.Rebind(insertFavoriteSQL), userID, articleID); err != nil {
		return fmt.Errorf("favorite %s: %w", articleID, err)
	}
	return nil
}

func (r *ArticleRepository) Unfavorite(ctx context.Context, userID, articleID uuid.UUID) error {
	if _, err := r.conn.ExecContext(ctx, r.conn.Rebind(deleteFavoriteSQL), userID, articleID); err != nil {
		return fmt.Errorf("unfavorite %s: %w", articleID, err)
	}
	return nil
}

func (r *ArticleRepository) page(ctx context.Context, conds []string, args []any, viewer uuid.UUID, limit, offset int) ([]models.Article, int, error) {
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.conn.QueryRowContext(ctx, r.conn.Rebind(countArticlesSQL+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	queryArgs := make([]any, 0, len(args)+4)
	queryArgs = append(queryArgs, viewer, viewer)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, limit, offset)

	articles, err := r.selectArticles(ctx, selectArticleViewSQL+where+orderPage, queryArgs)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadTags(ctx, articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (r *ArticleRepository) selectArticles(ctx context.Context, q string, args []any) ([]models.Article, error) {
	rows, err := r.conn.QueryContext(ctx, r.conn.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Article, 0, 20)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

// loadTags fills TagList for every article with one query.
func (r *ArticleRepository) loadTags(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(articles))
	args := make([]any, len(articles))
	for i := range articles {
		articles[i].TagList = []string{}
		index[articles[i].ID] = i
		args[i] = articles[i].ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(articles)), ", ")

	rows, err := r.conn.QueryContext(ctx, r.conn.Rebind(fmt.Sprintf(selectTagsForIDsSQL, placeholders)), args...)
	if err != nil {
		return fmt.Errorf("select article tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			articleID uuid.UUID
			tag       string
		)
		if err := rows.Scan(&articleID, &tag); err != nil {
			return fmt.Errorf("scan article tag: %w", err)
		}
		if i, ok := index[articleID]; ok {
			articles[i].TagList = append(articles[i].TagList, tag)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*models.Article, error) {
	var (
		a                   models.Article
		following, favorite int
	)
	err := row.Scan(
		&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt,
		&a.Author.Username, &a.Author.Bio, &a.Author.Image,
		&following, &favorite, &a.FavoritesCount,
	)
	if err != nil {
		return nil, err
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	a.Author.Following = following > 0
	a.Favorited = favorite > 0
	return &a, nil
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
