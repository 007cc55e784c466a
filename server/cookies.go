package server

import "net/http"

// refreshCookieName matches the cookie the web client sends back on
// refresh and logout.
const refreshCookieName = "jwt"

// setRefreshCookie stores the refresh token in an HTTP-only, secure,
// cross-site-capable cookie. Its Max-Age is derived from the refresh token
// TTL so cookie and token expire together.
func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   s.config.GetRefreshCookieMaxAge(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func refreshCookieValue(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
