package posts

import "time"

// Comment is embedded in its post document.
type Comment struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userId"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Post is a user's post with its likes and comments embedded.
type Post struct {
	ID        string    `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user" bson:"user"`
	Desc      string    `json:"desc" bson:"desc"`
	Images    []string  `json:"images" bson:"images"`
	Likes     []string  `json:"likes" bson:"likes"`
	Comments  []Comment `json:"comments" bson:"comments"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// MaxDescLength mirrors the store schema limit for a post description.
const MaxDescLength = 500

// LikedBy reports whether the given user id is in the post's likes.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CommentByID returns the embedded comment with the given id, or nil.
func (p *Post) CommentByID(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}
