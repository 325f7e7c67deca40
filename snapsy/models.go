// snapsy/models.go
package snapsy

import (
	"time"
)

// Post is a single user-authored unit of content: a caption plus at most one
// media file, which is either an image or a video, never both.
type Post struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Caption    string     `json:"caption"`
	Memory     string     `json:"memory"`
	Image      string     `json:"image,omitempty"`
	Video      string     `json:"video,omitempty"`
	UploadName string     `json:"upload_name,omitempty"`
	Reactions  []Reaction `json:"reactions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MediaRef returns the stored filename this post points at, or "" when the
// post has no media.
func (p *Post) MediaRef() string {
	if p.Image != "" {
		return p.Image
	}
	return p.Video
}

func (p *Post) HasMedia() bool { return p.MediaRef() != "" }

// Reaction is embedded in its post. Multiple reactions per user are allowed.
type Reaction struct {
	Emoji     string    `json:"emoji"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

const DefaultReactionEmoji = "❤️"

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentWithAuthor is the shape returned to the comment form: the comment
// plus the author's display fields.
type CommentWithAuthor struct {
	Comment
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
