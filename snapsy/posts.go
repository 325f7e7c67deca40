// snapsy/posts.go
package snapsy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// --- Post Functions ---

const postColumns = `id, user_id, caption, memory, COALESCE(image, ''), COALESCE(video, ''), upload_name, reactions, created_at`

func scanPost(row pgx.Row) (*Post, error) {
	var post Post
	var reactionsJSON []byte
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Caption,
		&post.Memory,
		&post.Image,
		&post.Video,
		&post.UploadName,
		&reactionsJSON,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if err := json.Unmarshal(reactionsJSON, &post.Reactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reactions: %w", err)
	}
	return &post, nil
}

// nullable turns the empty string into a SQL NULL so the one-media CHECK
// constraint sees absent refs as NULL, not ''.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreatePost inserts the record. A post is never created without a resolvable
// owner; a dangling user_id fails as a ValidationError via the FK.
func (d *Database) CreatePost(ctx context.Context, post *Post) error {
	reactionsJSON, err := json.Marshal(post.Reactions)
	if err != nil {
		return fmt.Errorf("failed to marshal reactions: %w", err)
	}
	query := `
        INSERT INTO posts (id, user_id, caption, memory, image, video, upload_name, reactions)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at`
	err = d.pool.QueryRow(ctx, query,
		post.ID,
		post.UserID,
		post.Caption,
		post.Memory,
		nullable(post.Image),
		nullable(post.Video),
		post.UploadName,
		reactionsJSON,
	).Scan(&post.CreatedAt)
	return translateErr(err)
}

func (d *Database) GetPost(ctx context.Context, id string) (*Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return scanPost(d.pool.QueryRow(ctx, query, id))
}

func (d *Database) collectPosts(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// ListPostsNewestFirst returns every post ordered newest-first; ties on
// created_at break by id so the order is stable.
func (d *Database) ListPostsNewestFirst(ctx context.Context) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC`
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return d.collectPosts(rows)
}

func (d *Database) ListPostsByOwner(ctx context.Context, userID string) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := d.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return d.collectPosts(rows)
}

// UpdateCaptionAndMemory updates only the fields the caller provided.
func (d *Database) UpdateCaptionAndMemory(ctx context.Context, id string, caption, memory *string) error {
	query := `UPDATE posts SET caption = COALESCE($2, caption), memory = COALESCE($3, memory) WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, id, caption, memory)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMedia swaps the post's media reference and returns the previous one
// so the caller can schedule its deletion. This repository never touches the
// media store itself.
func (d *Database) UpdateMedia(ctx context.Context, id, newImage, newVideo, uploadName string) (string, error) {
	query := `
        WITH old AS (SELECT image, video FROM posts WHERE id = $1)
        UPDATE posts SET image = $2, video = $3, upload_name = $4
        WHERE id = $1
        RETURNING (SELECT COALESCE(image, video, '') FROM old)`
	var oldRef string
	err := d.pool.QueryRow(ctx, query, id, nullable(newImage), nullable(newVideo), uploadName).Scan(&oldRef)
	if err != nil {
		return "", translateErr(err)
	}
	return oldRef, nil
}

// DeletePost removes the record and returns it so the caller can clean up
// the media file and the owner's owned-list. Comments cascade with the row.
func (d *Database) DeletePost(ctx context.Context, id string) (*Post, error) {
	query := `DELETE FROM posts WHERE id = $1 RETURNING ` + postColumns
	return scanPost(d.pool.QueryRow(ctx, query, id))
}

// AddReaction appends to the post's embedded reaction set. Reactions are not
// deduplicated per user.
func (d *Database) AddReaction(ctx context.Context, postID string, reaction Reaction) error {
	reactionJSON, err := json.Marshal(reaction)
	if err != nil {
		return fmt.Errorf("failed to marshal reaction: %w", err)
	}
	query := `UPDATE posts SET reactions = reactions || $2::jsonb WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, postID, reactionJSON)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
