package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// Browser preflights arrive as OPTIONS and are answered entirely by the
	// CORS middleware.
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, s.APIMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("POST /api/auth/register", ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST /api/auth/login", ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET /api/auth/logout", ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET /api/auth/refresh", ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))

	// USERS
	s.RegisterRouteHandler("GET /api/user", ChainMiddleware(s.CurrentUserHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("GET /api/user/{id}", ChainMiddleware(s.GetUserHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("PUT /api/user/update/{id}", ChainMiddleware(s.UpdateUserHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("PUT /api/user/reset", ChainMiddleware(s.ResetPasswordHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("DELETE /api/user/delete/{id}", ChainMiddleware(s.DeleteUserHandler(), s.ProtectedMiddleware(s.ForceReloginMiddleware)...))
	s.RegisterRouteHandler("PUT /api/user/follow", ChainMiddleware(s.FollowHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("PUT /api/user/unfollow", ChainMiddleware(s.UnfollowHandler(), s.ProtectedMiddleware()...))

	// POSTS
	s.RegisterRouteHandler("POST /api/post", ChainMiddleware(s.CreatePostHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("GET /api/post/timeline", ChainMiddleware(s.TimelineHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("GET /api/post/{id}", ChainMiddleware(s.GetPostHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("PUT /api/post/{id}", ChainMiddleware(s.UpdatePostHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("DELETE /api/post/{id}", ChainMiddleware(s.DeletePostHandler(), s.ProtectedMiddleware()...))

	// COMMENTS & LIKES
	s.RegisterRouteHandler("GET /api/post/{id}/comments", ChainMiddleware(s.GetCommentsHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("POST /api/post/{id}/comment", ChainMiddleware(s.AddCommentHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("PUT /api/post/{post_id}/comment/{comment_id}", ChainMiddleware(s.UpdateCommentHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("DELETE /api/post/{post_id}/comment/{comment_id}", ChainMiddleware(s.DeleteCommentHandler(), s.ProtectedMiddleware()...))
	s.RegisterRouteHandler("PUT /api/post/{id}/like", ChainMiddleware(s.LikePostHandler(), s.ProtectedMiddleware()...))

	// OBSERVABILITY
	s.RegisterRouteHandler("GET /metrics", promhttp.Handler())
	s.RegisterRouteFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
