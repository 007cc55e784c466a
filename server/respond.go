package server

import (
	"encoding/json"
	"net/http"
	"regexp"

	apierrors "github.com/chobi-social/chobi-server/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func isObjectIDHex(id string) bool {
	return objectIDPattern.MatchString(id)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps the error taxonomy to HTTP statuses. Anything outside
// the taxonomy is an unexpected failure: it is logged with the correlation
// id and answered with a generic message so internals never leak.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apierrors.Is(err, apierrors.ErrMissingFields):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: apierrors.ErrMissingFields.Error()})
	case apierrors.Is(err, apierrors.ErrInvalidCredentials):
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: apierrors.ErrInvalidCredentials.Error()})
	case apierrors.Is(err, apierrors.ErrUnauthorized), apierrors.Is(err, apierrors.ErrNoSession):
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: apierrors.ErrUnauthorized.Error()})
	case apierrors.Is(err, apierrors.ErrForbidden), apierrors.Is(err, apierrors.ErrInvalidToken):
		s.respondJSON(w, http.StatusForbidden, errorResponse{Error: apierrors.ErrForbidden.Error()})
	case apierrors.Is(err, apierrors.ErrNotFound):
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: apierrors.ErrNotFound.Error()})
	case apierrors.Is(err, apierrors.ErrConflict):
		s.respondJSON(w, http.StatusConflict, errorResponse{Error: apierrors.ErrConflict.Error()})
	default:
		correlationID, _ := r.Context().Value(ContextKeyCorrelationID).(string)
		s.log.Error().Err(err).
			Str("path", r.URL.Path).
			Str("correlation_id", correlationID).
			Msg("unexpected error")
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong"})
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
