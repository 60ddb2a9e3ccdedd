package repository

import (
	"context"
	"fmt"

	"conduit/internal/repository/db"
)

type TagRepository struct {
	conn *db.Conn
}

func NewTagRepository(conn *db.Conn) *TagRepository {
	return &TagRepository{conn: conn}
}

var _ Tags = (*TagRepository)(nil)

const selectTagsSQL = `SELECT DISTINCT tag FROM article_tags ORDER BY tag`

// List returns every tag attached to at least one article, sorted.
func (r *TagRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx, selectTagsSQL)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0, 32)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
