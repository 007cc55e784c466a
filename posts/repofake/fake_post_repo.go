package fakepostrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/posts"
)

var _ posts.PostRepo = (*FakePostRepo)(nil)

// FakePostRepo is an in-memory PostRepo for tests.
type FakePostRepo struct {
	posts map[string]*posts.Post
	lock  sync.Mutex
}

func NewFakePostRepo() *FakePostRepo {
	return &FakePostRepo{posts: make(map[string]*posts.Post)}
}

func (pr *FakePostRepo) Create(_ context.Context, post *posts.Post) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if post.ID == "" {
		post.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []posts.Comment{}
	}
	cp := *post
	pr.posts[cp.ID] = &cp
	return nil
}

func (pr *FakePostRepo) GetByID(_ context.Context, id string) (*posts.Post, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	return pr.copyOf(id)
}

func (pr *FakePostRepo) Timeline(_ context.Context, authorIDs []string, page, limit int) ([]*posts.Post, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}

	var timeline []*posts.Post
	for id, p := range pr.posts {
		if authors[p.UserID] {
			cp, _ := pr.copyOf(id)
			timeline = append(timeline, cp)
		}
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].CreatedAt.After(timeline[j].CreatedAt)
	})

	start := page * limit
	if start >= len(timeline) {
		return []*posts.Post{}, nil
	}
	end := start + limit
	if end > len(timeline) {
		end = len(timeline)
	}
	return timeline[start:end], nil
}

func (pr *FakePostRepo) UpdateDesc(_ context.Context, id string, desc string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.Desc = desc
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (pr *FakePostRepo) Delete(_ context.Context, id string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if _, ok := pr.posts[id]; !ok {
		return errors.ErrNotFound
	}
	delete(pr.posts, id)
	return nil
}

func (pr *FakePostRepo) AddLike(_ context.Context, id string, userID string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	if !p.LikedBy(userID) {
		p.Likes = append(p.Likes, userID)
	}
	return nil
}

func (pr *FakePostRepo) RemoveLike(_ context.Context, id string, userID string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	likes := p.Likes[:0]
	for _, uid := range p.Likes {
		if uid != userID {
			likes = append(likes, uid)
		}
	}
	p.Likes = likes
	return nil
}

func (pr *FakePostRepo) AddComment(_ context.Context, id string, comment posts.Comment) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.Comments = append(p.Comments, comment)
	return nil
}

func (pr *FakePostRepo) UpdateComment(_ context.Context, id string, commentID string, text string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	c := p.CommentByID(commentID)
	if c == nil {
		return errors.ErrNotFound
	}
	c.Text = text
	return nil
}

func (pr *FakePostRepo) RemoveComment(_ context.Context, id string, commentID string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	comments := p.Comments[:0]
	for _, c := range p.Comments {
		if c.ID != commentID {
			comments = append(comments, c)
		}
	}
	p.Comments = comments
	return nil
}

func (pr *FakePostRepo) copyOf(id string) (*posts.Post, error) {
	p, ok := pr.posts[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Likes = append([]string(nil), p.Likes...)
	cp.Comments = append([]posts.Comment(nil), p.Comments...)
	return &cp, nil
}
