// snapsy/feed.go
package snapsy

import (
	"context"
	"log"
	"sort"
)

type PostReader interface {
	ListPostsNewestFirst(ctx context.Context) ([]Post, error)
	ListPostsByOwner(ctx context.Context, userID string) ([]Post, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// FileChecker lets the assembler render dangling media references as absent
// instead of handing broken links to the views.
type FileChecker interface {
	Has(name string) bool
}

// FeedPost is a post with its owner's display fields resolved.
type FeedPost struct {
	Post
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	AuthorDP string `json:"author_dp,omitempty"`
}

// ProfileView is the per-user view: the user plus their own posts,
// newest-first.
type ProfileView struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}

// Assembler composes repository reads into the feed and profile views.
type Assembler struct {
	posts PostReader
	users UserReader
	files FileChecker
}

func NewAssembler(posts PostReader, users UserReader, files FileChecker) *Assembler {
	return &Assembler{posts: posts, users: users, files: files}
}

// Feed returns every post newest-first with owner fields resolved. A post
// whose owner cannot be resolved is skipped with a log line rather than
// failing the whole read.
func (a *Assembler) Feed(ctx context.Context) ([]FeedPost, error) {
	posts, err := a.posts.ListPostsNewestFirst(ctx)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]*User)
	feed := make([]FeedPost, 0, len(posts))
	for _, post := range posts {
		owner, ok := owners[post.UserID]
		if !ok {
			owner, err = a.users.GetUserByID(ctx, post.UserID)
			if err != nil {
				log.Printf("feed: skipping post %s, owner %s unresolvable: %v", post.ID, post.UserID, err)
				owners[post.UserID] = nil
				continue
			}
			owner.Sanitize()
			owners[post.UserID] = owner
		}
		if owner == nil {
			continue
		}
		a.clearDanglingMedia(&post)
		feed = append(feed, FeedPost{
			Post:     post,
			Username: owner.Username,
			Fullname: owner.Fullname,
			AuthorDP: owner.DP,
		})
	}

	sortFeedNewestFirst(feed)
	return feed, nil
}

// Profile returns the user with their own posts resolved newest-first.
func (a *Assembler) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Sanitize()

	posts, err := a.posts.ListPostsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		a.clearDanglingMedia(&posts[i])
	}
	sortPostsNewestFirst(posts)

	return &ProfileView{User: *user, Posts: posts}, nil
}

// clearDanglingMedia blanks a media reference whose file is not on disk.
// Tolerated by contract: the post still renders, just without media.
func (a *Assembler) clearDanglingMedia(post *Post) {
	if a.files == nil {
		return
	}
	ref := post.MediaRef()
	if ref == "" || a.files.Has(ref) {
		return
	}
	post.Image = ""
	post.Video = ""
}

// Newest-first, ties broken by ID so the order is stable for equal
// timestamps regardless of input order.
func sortFeedNewestFirst(feed []FeedPost) {
	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return feed[i].ID > feed[j].ID
	})
}

func sortPostsNewestFirst(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}
