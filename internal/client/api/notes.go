package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

const notesPath = "/notes"

type NotesAPI struct {
	c Doer
}

func NewNotesAPI(c Doer) *NotesAPI { return &NotesAPI{c: c} }

func notePath(id string) string {
	return notesPath + "/" + url.PathEscape(id)
}

func (n *NotesAPI) List(ctx context.Context) ([]models.Note, error) {
	var out []models.Note
	if err := n.c.Do(ctx, http.MethodGet, notesPath, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Note{}
	}
	return out, nil
}

func (n *NotesAPI) Get(ctx context.Context, id string) (models.Note, error) {
	if err := requireField("id", id); err != nil {
		return models.Note{}, err
	}
	var out models.Note
	err := n.c.Do(ctx, http.MethodGet, notePath(id), nil, &out)
	return out, err
}

func (n *NotesAPI) Create(ctx context.Context, in models.NoteInput) (models.Note, error) {
	if err := requireField("title", in.Title); err != nil {
		return models.Note{}, err
	}
	var out models.Note
	err := n.c.Do(ctx, http.MethodPost, notesPath, in, &out)
	return out, err
}

func (n *NotesAPI) Update(ctx context.Context, id string, in models.NoteInput) (models.Note, error) {
	if err := requireField("id", id); err != nil {
		return models.Note{}, err
	}
	if err := requireField("title", in.Title); err != nil {
		return models.Note{}, err
	}
	var out models.Note
	err := n.c.Do(ctx, http.MethodPut, notePath(id), in, &out)
	return out, err
}

func (n *NotesAPI) Delete(ctx context.Context, id string) error {
	if err := requireField("id", id); err != nil {
		return err
	}
	return n.c.Do(ctx, http.MethodDelete, notePath(id), nil, nil)
}
