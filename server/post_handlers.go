package server

import (
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	apierrors "github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/posts"
	"github.com/chobi-social/chobi-server/token"
)

const defaultTimelineLimit = 3

// CreatePostHandler creates a post authored by the caller.
// POST /api/post
func (s *Server) CreatePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		var body struct {
			Desc   string   `json:"desc"`
			Images []string `json:"images"`
		}
		if err := decodeJSON(r, &body); err != nil {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}
		body.Desc = strings.TrimSpace(body.Desc)
		if body.Desc == "" && len(body.Images) == 0 {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}
		if len(body.Desc) > posts.MaxDescLength {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		post := &posts.Post{
			UserID: caller.ID,
			Desc:   body.Desc,
			Images: body.Images,
		}
		if err := s.posts.Create(r.Context(), post); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, post)
	}
}

// TimelineHandler returns recent posts from the caller and everyone they
// follow, newest first, paginated with page/limit query parameters.
// GET /api/post/timeline
func (s *Server) TimelineHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		page := queryInt(r, "page", 0)
		limit := queryInt(r, "limit", defaultTimelineLimit)
		if page < 0 || limit <= 0 {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		authors := append([]string{caller.ID}, caller.Following...)
		timeline, err := s.posts.Timeline(r.Context(), authors, page, limit)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, timeline)
	}
}

// GetPostHandler returns a single post.
// GET /api/post/{id}
func (s *Server) GetPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := s.postFromPath(r, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, post)
	}
}

// UpdatePostHandler edits the description of the caller's own post.
// PUT /api/post/{id}
func (s *Server) UpdatePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		post, err := s.postFromPath(r, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if post.UserID != caller.ID {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		var body struct {
			Desc string `json:"desc"`
		}
		if err := decodeJSON(r, &body); err != nil {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}
		body.Desc = strings.TrimSpace(body.Desc)
		if body.Desc == "" || len(body.Desc) > posts.MaxDescLength {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		if err := s.posts.UpdateDesc(r.Context(), post.ID, body.Desc); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "post updated successfully")
	}
}

// DeletePostHandler removes the caller's own post. Admins may remove any
// post.
// DELETE /api/post/{id}
func (s *Server) DeletePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		post, err := s.postFromPath(r, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if post.UserID != caller.ID && !caller.IsAdmin {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		if err := s.posts.Delete(r.Context(), post.ID); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "post deleted successfully")
	}
}

// GetCommentsHandler returns a post's embedded comments.
// GET /api/post/{id}/comments
func (s *Server) GetCommentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := s.postFromPath(r, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		comments := post.Comments
		if comments == nil {
			comments = []posts.Comment{}
		}
		s.respondJSON(w, http.StatusOK, comments)
	}
}

// AddCommentHandler appends a comment by the caller.
// POST /api/post/{id}/comment
func (s *Server) AddCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		post, err := s.postFromPath(r, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		text, err := decodeCommentText(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		comment := posts.Comment{
			ID:        primitive.NewObjectID().Hex(),
			UserID:    caller.ID,
			Text:      text,
			CreatedAt: token.NowTimeFunc().UTC(),
		}
		if err := s.posts.AddComment(r.Context(), post.ID, comment); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, comment)
	}
}

// UpdateCommentHandler edits a comment. Only its author may edit it.
// PUT /api/post/{post_id}/comment/{comment_id}
func (s *Server) UpdateCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		post, err := s.postFromPath(r, "post_id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		comment := post.CommentByID(r.PathValue("comment_id"))
		if comment == nil {
			s.respondError(w, r, apierrors.ErrNotFound)
			return
		}
		if comment.UserID != caller.ID {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		text, err := decodeCommentText(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		if err := s.posts.UpdateComment(r.Context(), post.ID, comment.ID, text); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "comment updated successfully")
	}
}

// DeleteCommentHandler removes a comment. The comment's author and the
// post's owner may both delete it.
// DELETE /api/post/{post_id}/comment/{comment_id}
func (s *Server) DeleteCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		post, err := s.postFromPath(r, "post_id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		comment := post.CommentByID(r.PathValue("comment_id"))
		if comment == nil {
			s.respondError(w, r, apierrors.ErrNotFound)
			return
		}
		if comment.UserID != caller.ID && post.UserID != caller.ID && !caller.IsAdmin {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		if err := s.posts.RemoveComment(r.Context(), post.ID, comment.ID); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "comment deleted successfully")
	}
}

// LikePostHandler toggles the caller's like on a post.
// PUT /api/post/{id}/like
func (s *Server) LikePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		post, err := s.postFromPath(r, "id")
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		if post.LikedBy(caller.ID) {
			if err := s.posts.RemoveLike(r.Context(), post.ID, caller.ID); err != nil {
				s.respondError(w, r, err)
				return
			}
			s.respondJSON(w, http.StatusOK, "post unliked")
			return
		}

		if err := s.posts.AddLike(r.Context(), post.ID, caller.ID); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "post liked")
	}
}

func (s *Server) postFromPath(r *http.Request, pathKey string) (*posts.Post, error) {
	id := r.PathValue(pathKey)
	if !isObjectIDHex(id) {
		return nil, apierrors.ErrMissingFields
	}
	return s.posts.GetByID(r.Context(), id)
}

func decodeCommentText(r *http.Request) (string, error) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return "", apierrors.ErrMissingFields
	}
	text := strings.TrimSpace(body.Text)
	if text == "" || len(text) > posts.MaxDescLength {
		return "", apierrors.ErrMissingFields
	}
	return text, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
