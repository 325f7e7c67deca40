// snapsy/db.go
package snapsy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// One table per entity. Comments cascade with their parent post; the sessions
// table belongs to the scs pgxstore.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    fullname TEXT NOT NULL,
    hash BYTEA NOT NULL,
    dp TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    posts JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS posts (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    caption TEXT NOT NULL DEFAULT '',
    memory TEXT NOT NULL DEFAULT '',
    image TEXT,
    video TEXT,
    upload_name TEXT NOT NULL DEFAULT '',
    reactions JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT fk_owner
        FOREIGN KEY(user_id)
        REFERENCES users(id),
    CONSTRAINT one_media CHECK (image IS NULL OR video IS NULL)
);
CREATE TABLE IF NOT EXISTS comments (
    id UUID PRIMARY KEY,
    post_id UUID NOT NULL,
    user_id UUID NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT fk_post
        FOREIGN KEY(post_id)
        REFERENCES posts(id)
        ON DELETE CASCADE,
    CONSTRAINT fk_author
        FOREIGN KEY(user_id)
        REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS contact_messages (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    data BYTEA NOT NULL,
    expiry TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_on_user_id ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_posts_on_created_at ON posts(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_comments_on_post_id ON comments(post_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expiry);
`

// Database is the persistence context handed to every component at
// construction time. Open it once at process start, close it at shutdown.
type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(connectionString string) (*Database, error) {
	pool, err := pgxpool.New(context.Background(), connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{pool: pool}, nil
}

func (d *Database) CreateTables() error {
	_, err := d.pool.Exec(context.Background(), schema)
	return err
}

// Pool exposes the underlying pgx pool for collaborators that need it
// directly, such as the session store.
func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

func (d *Database) Close() {
	d.pool.Close()
}

// translateErr maps driver errors onto the package's error kinds at the
// repository boundary.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "email") {
				return ErrDuplicateEmail
			}
			return ErrDuplicateHandle
		case "23503": // foreign_key_violation
			return &ValidationError{Field: "user", Reason: "owner does not exist"}
		}
	}
	return err
}
