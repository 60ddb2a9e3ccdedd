package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"conduit/internal/repository/db"
)

type ProfileRepository struct {
	conn *db.Conn
}

func NewProfileRepository(conn *db.Conn) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

var _ Follows = (*ProfileRepository)(nil)

const (
	insertFollowSQL = `INSERT INTO follows (follower_id, followee_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
	deleteFollowSQL = `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`
	isFollowingSQL  = `SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followee_id = ?`
)

// Follow records that follower follows followee. Following twice is a no-op.
func (r *ProfileRepository) Follow(ctx context.Context, follower, followee uuid.UUID) error {
	if _, err := r.conn.ExecContext(ctx, r.conn.Rebind(insertFollowSQL), follower, followee); err != nil {
		return fmt.Errorf("follow %s -> %s: %w", follower, followee, err)
	}
	return nil
}

// Unfollow removes the follow relation if present.
func (r *ProfileRepository) Unfollow(ctx context.Context, follower, followee uuid.UUID) error {
	if _, err := r.conn.ExecContext(ctx, r.conn.Rebind(deleteFollowSQL), follower, followee); err != nil {
		return fmt.Errorf("unfollow %s -> %s: %w", follower, followee, err)
	}
	return nil
}

// IsFollowing reports whether follower follows followee. uuid.Nil never follows anyone.
func (r *ProfileRepository) IsFollowing(ctx context.Context, follower, followee uuid.UUID) (bool, error) {
	if follower == uuid.Nil {
		return false, nil
	}
	var n int
	if err := r.conn.QueryRowContext(ctx, r.conn.Rebind(isFollowingSQL), follower, followee).Scan(&n); err != nil {
		return false, fmt.Errorf("check follow %s -> %s: %w", follower, followee, err)
	}
	return n > 0, nil
}
