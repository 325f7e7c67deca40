// snapsy/workflow.go
package snapsy

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The workflow is written against narrow store interfaces; *Database
// satisfies all of them and tests substitute in-memory fakes.

type PostStore interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	UpdateCaptionAndMemory(ctx context.Context, id string, caption, memory *string) error
	UpdateMedia(ctx context.Context, id, newImage, newVideo, uploadName string) (string, error)
	DeletePost(ctx context.Context, id string) (*Post, error)
	AddReaction(ctx context.Context, postID string, reaction Reaction) error
}

type UserStore interface {
	AppendOwnedPost(ctx context.Context, userID, postID string) error
	RemoveOwnedPost(ctx context.Context, userID, postID string) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *Comment) error
}

type FileStore interface {
	Store(r io.Reader, originalName, mimeType, label string) (string, error)
	Delete(name string) error
}

// Workflow orchestrates the post/media lifecycle. There is no atomic commit
// across the file store and the record store, so every multi-step operation
// compensates on partial failure instead of rolling back.
type Workflow struct {
	posts    PostStore
	users    UserStore
	comments CommentStore
	files    FileStore
}

func NewWorkflow(posts PostStore, users UserStore, comments CommentStore, files FileStore) *Workflow {
	return &Workflow{posts: posts, users: users, comments: comments, files: files}
}

// Upload stores the file, creates the post and appends it to the owner's
// owned-list. If any step fails after the file hit disk, the file is deleted
// again so nothing is orphaned.
func (w *Workflow) Upload(ctx context.Context, userID string, file io.Reader, originalName, mimeType, label, caption string) (*Post, error) {
	name, err := w.files.Store(file, originalName, mimeType, label)
	if err != nil {
		return nil, err
	}

	post := &Post{
		ID:         uuid.New().String(),
		UserID:     userID,
		Caption:    caption,
		UploadName: label,
		Reactions:  make([]Reaction, 0),
		CreatedAt:  time.Now().UTC(),
	}
	if strings.HasPrefix(mimeType, "video/") {
		post.Video = name
	} else {
		post.Image = name
	}

	if err := w.posts.CreatePost(ctx, post); err != nil {
		w.compensateFile(name)
		return nil, err
	}
	if err := w.users.AppendOwnedPost(ctx, userID, post.ID); err != nil {
		if _, derr := w.posts.DeletePost(ctx, post.ID); derr != nil {
			log.Printf("upload: failed to undo post %s: %v", post.ID, derr)
		}
		w.compensateFile(name)
		return nil, err
	}
	return post, nil
}

// ReplaceMedia stores the new file, swaps the post's reference and deletes
// the file it replaced. Caption/memory-only edits never come through here.
func (w *Workflow) ReplaceMedia(ctx context.Context, postID string, file io.Reader, originalName, mimeType, label string) error {
	name, err := w.files.Store(file, originalName, mimeType, label)
	if err != nil {
		return err
	}

	var newImage, newVideo string
	if strings.HasPrefix(mimeType, "video/") {
		newVideo = name
	} else {
		newImage = name
	}

	oldRef, err := w.posts.UpdateMedia(ctx, postID, newImage, newVideo, label)
	if err != nil {
		w.compensateFile(name)
		return err
	}
	if oldRef != "" && oldRef != name {
		if err := w.files.Delete(oldRef); err != nil {
			log.Printf("replace media: failed to delete old file %s: %v", oldRef, err)
		}
	}
	return nil
}

// EditCaption updates caption and/or memory. Nil means leave unchanged.
func (w *Workflow) EditCaption(ctx context.Context, postID string, caption, memory *string) error {
	if caption == nil && memory == nil {
		return &ValidationError{Field: "caption", Reason: "nothing to update"}
	}
	return w.posts.UpdateCaptionAndMemory(ctx, postID, caption, memory)
}

func (w *Workflow) SetMemory(ctx context.Context, postID, memory string) error {
	return w.posts.UpdateCaptionAndMemory(ctx, postID, nil, &memory)
}

// Delete removes the post record first, then its file, then the owner's
// owned-list entry. A crash between the steps leaves an orphaned file, which
// is safe to leak; the reverse order could leave a post pointing at nothing.
func (w *Workflow) Delete(ctx context.Context, postID string) error {
	post, err := w.posts.DeletePost(ctx, postID)
	if err != nil {
		return err
	}
	if ref := post.MediaRef(); ref != "" {
		if err := w.files.Delete(ref); err != nil {
			log.Printf("delete post %s: failed to delete media %s: %v", postID, ref, err)
		}
	}
	return w.users.RemoveOwnedPost(ctx, post.UserID, post.ID)
}

// Comment appends an immutable comment to a post.
func (w *Workflow) Comment(ctx context.Context, postID, userID, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Reason: "comment text is required"}
	}
	if _, err := w.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comment := &Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// React adds a reaction to a post. An empty emoji falls back to the default
// heart; repeat reactions by the same user are allowed.
func (w *Workflow) React(ctx context.Context, postID, userID, emoji string) error {
	if emoji == "" {
		emoji = DefaultReactionEmoji
	}
	return w.posts.AddReaction(ctx, postID, Reaction{
		Emoji:     emoji,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
}

func (w *Workflow) compensateFile(name string) {
	if err := w.files.Delete(name); err != nil {
		log.Printf("failed to clean up orphaned file %s: %v", name, err)
	}
}
