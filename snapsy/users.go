// snapsy/users.go
package snapsy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// --- User Functions ---

const userColumns = `id, username, email, fullname, hash, dp, bio, posts, created_at, updated_at`

func (d *Database) scanUser(row pgx.Row) (*User, error) {
	var user User
	var postsJSON []byte
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Fullname,
		&user.Hash,
		&user.DP,
		&user.Bio,
		&postsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if err := json.Unmarshal(postsJSON, &user.Posts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal owned posts: %w", err)
	}
	return &user, nil
}

// RegisterUser validates the input, hashes the credential and inserts the
// user. Duplicate username or email surfaces as ErrDuplicateHandle or
// ErrDuplicateEmail.
func (d *Database) RegisterUser(ctx context.Context, in RegisterInput) (*User, error) {
	user, err := NewUser(in)
	if err != nil {
		return nil, err
	}
	postsJSON, err := json.Marshal(user.Posts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal owned posts: %w", err)
	}
	query := `
        INSERT INTO users (id, username, email, fullname, hash, dp, bio, posts, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = d.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Fullname,
		user.Hash,
		user.DP,
		user.Bio,
		postsJSON,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return user, nil
}

// Authenticate re-verifies the credential with the same one-way transform
// used at registration. Unknown handle and wrong password are reported the
// same way.
func (d *Database) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := d.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	ok, err := user.PasswordMatches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return d.scanUser(d.pool.QueryRow(ctx, query, username))
}

func (d *Database) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return d.scanUser(d.pool.QueryRow(ctx, query, id))
}

// AppendOwnedPost adds a post ID to the tail of the user's owned-post list.
// The list lives in a single JSONB column so the append is one atomic UPDATE.
func (d *Database) AppendOwnedPost(ctx context.Context, userID, postID string) error {
	query := `UPDATE users SET posts = posts || to_jsonb($2::text), updated_at = NOW() WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, userID, postID)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) RemoveOwnedPost(ctx context.Context, userID, postID string) error {
	query := `UPDATE users SET posts = posts - $2, updated_at = NOW() WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, userID, postID)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) UpdateProfilePicture(ctx context.Context, userID, ref string) error {
	query := `UPDATE users SET dp = $2, updated_at = NOW() WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, userID, ref)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) UpdateBio(ctx context.Context, userID, bio string) error {
	query := `UPDATE users SET bio = $2, updated_at = NOW() WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, userID, bio)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
