package httpapi

import (
	"net/http"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var body models.Registration
	if !r.decodeJSON(w, req, &body) {
		return
	}
	resp, err := r.services.Auth.Register(req.Context(), body)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body models.Credentials
	if !r.decodeJSON(w, req, &body) {
		return
	}
	resp, err := r.services.Auth.Login(req.Context(), body)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	var body models.RefreshRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	resp, err := r.services.Auth.Refresh(req.Context(), body.Refresh)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout revokes the refresh token in the body. It does not require a
// valid access token so that a client holding only a refresh token can still
// log out.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	var body models.RefreshRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	if err := r.services.Auth.Logout(req.Context(), body.Refresh); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
