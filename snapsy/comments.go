// snapsy/comments.go
package snapsy

import (
	"context"
)

// --- Comment Functions ---

// CreateComment inserts an immutable comment row. Comments are only removed
// when their parent post cascades away.
func (d *Database) CreateComment(ctx context.Context, comment *Comment) error {
	query := `
        INSERT INTO comments (id, post_id, user_id, text)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`
	err := d.pool.QueryRow(ctx, query,
		comment.ID,
		comment.PostID,
		comment.UserID,
		comment.Text,
	).Scan(&comment.CreatedAt)
	return translateErr(err)
}

// ListCommentsByPost returns a post's comments oldest-first, ties by id.
func (d *Database) ListCommentsByPost(ctx context.Context, postID string) ([]Comment, error) {
	query := `
        SELECT id, post_id, user_id, text, created_at FROM comments
        WHERE post_id = $1
        ORDER BY created_at ASC, id ASC`
	rows, err := d.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
