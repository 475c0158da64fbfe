package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func (r *Router) handleListNotes(w http.ResponseWriter, req *http.Request) {
	notes, err := r.services.Notes.List(req.Context(), getUserID(req.Context()))
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (r *Router) handleGetNote(w http.ResponseWriter, req *http.Request) {
	note, err := r.services.Notes.Get(req.Context(), getUserID(req.Context()), chi.URLParam(req, "id"))
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (r *Router) handleCreateNote(w http.ResponseWriter, req *http.Request) {
	var body models.NoteInput
	if !r.decodeJSON(w, req, &body) {
		return
	}
	note, err := r.services.Notes.Create(req.Context(), getUserID(req.Context()), body)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (r *Router) handleUpdateNote(w http.ResponseWriter, req *http.Request) {
	var body models.NoteInput
	if !r.decodeJSON(w, req, &body) {
		return
	}
	note, err := r.services.Notes.Update(req.Context(), getUserID(req.Context()), chi.URLParam(req, "id"), body)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (r *Router) handleDeleteNote(w http.ResponseWriter, req *http.Request) {
	if err := r.services.Notes.Delete(req.Context(), getUserID(req.Context()), chi.URLParam(req, "id")); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
