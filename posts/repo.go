package posts

import "context"

// PostRepo manages persisted posts. Like and comment mutations are single
// conditional update operations on the embedded arrays.
type PostRepo interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	// Timeline returns posts authored by any of authorIDs, newest first.
	Timeline(ctx context.Context, authorIDs []string, page, limit int) ([]*Post, error)
	UpdateDesc(ctx context.Context, id string, desc string) error
	Delete(ctx context.Context, id string) error

	AddLike(ctx context.Context, id string, userID string) error
	RemoveLike(ctx context.Context, id string, userID string) error

	AddComment(ctx context.Context, id string, comment Comment) error
	UpdateComment(ctx context.Context, id string, commentID string, text string) error
	RemoveComment(ctx context.Context, id string, commentID string) error
}
