package httpserver

import (
	"net/http"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterHandler creates an account in the given audience; 409 when the
// username is taken.
func (s *Server) RegisterHandler(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		id, err := s.Auth.Register(r.Context(), audience, req.Username, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id, "username": req.Username})
	}
}

// LoginHandler checks credentials; 401 on any mismatch.
func (s *Server) LoginHandler(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		u, err := s.Auth.Login(r.Context(), audience, req.Username, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": u.ID, "username": u.Username, "audience": u.Audience})
	}
}
