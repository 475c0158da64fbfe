package state

import (
	"slices"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

const (
	NotesFetch      ActionType = "notes/fetch"
	NotesFetchOne   ActionType = "notes/fetchOne"
	NotesCreate     ActionType = "notes/create"
	NotesUpdate     ActionType = "notes/update"
	NotesDelete     ActionType = "notes/delete"
	NotesClearError ActionType = "notes/clearError"
	NotesReset      ActionType = "notes/reset"
)

// NotesState caches the notes as last confirmed by the backend. Items is only
// changed by fulfilled actions.
type NotesState struct {
	Items    []models.Note
	Fetch    Op
	FetchOne Op
	Create   Op
	Update   Op
	Delete   Op
}

func InitialNotesState() NotesState {
	return NotesState{Items: []models.Note{}, Fetch: idle, FetchOne: idle, Create: idle, Update: idle, Delete: idle}
}

// Find returns the cached note with id.
func (s NotesState) Find(id string) (models.Note, bool) {
	i := indexOf(s.Items, id)
	if i < 0 {
		return models.Note{}, false
	}
	return s.Items[i], true
}

func (s NotesState) Err() *ErrorInfo {
	for _, op := range []Op{s.Fetch, s.FetchOne, s.Create, s.Update, s.Delete} {
		if op.Error != nil {
			return op.Error
		}
	}
	return nil
}

func indexOf(items []models.Note, id string) int {
	return slices.IndexFunc(items, func(n models.Note) bool { return n.ID == id })
}

// ReduceNotes never mutates s.Items in place; every change builds a new
// slice so earlier snapshots stay valid.
func ReduceNotes(s NotesState, a Action) NotesState {
	switch a.Type {
	case NotesFetch:
		s.Fetch = transition(s.Fetch, a)
		if list, ok := a.Payload.([]models.Note); ok && a.Phase == PhaseFulfilled {
			s.Items = slices.Clone(list)
			if s.Items == nil {
				s.Items = []models.Note{}
			}
		}
	case NotesFetchOne:
		s.FetchOne = transition(s.FetchOne, a)
		if n, ok := a.Payload.(models.Note); ok && a.Phase == PhaseFulfilled {
			s.Items = replace(s.Items, n)
		}
	case NotesCreate:
		s.Create = transition(s.Create, a)
		if n, ok := a.Payload.(models.Note); ok && a.Phase == PhaseFulfilled {
			s.Items = append([]models.Note{n}, s.Items...)
		}
	case NotesUpdate:
		s.Update = transition(s.Update, a)
		if n, ok := a.Payload.(models.Note); ok && a.Phase == PhaseFulfilled {
			s.Items = replace(s.Items, n)
		}
	case NotesDelete:
		s.Delete = transition(s.Delete, a)
		if id, ok := a.Payload.(string); ok && a.Phase == PhaseFulfilled {
			if i := indexOf(s.Items, id); i >= 0 {
				s.Items = slices.Delete(slices.Clone(s.Items), i, i+1)
			}
		}
	case NotesClearError:
		s.Fetch = clearError(s.Fetch)
		s.FetchOne = clearError(s.FetchOne)
		s.Create = clearError(s.Create)
		s.Update = clearError(s.Update)
		s.Delete = clearError(s.Delete)
	case NotesReset:
		return InitialNotesState()
	}
	return s
}

// replace swaps the note with the same id, keeping order. Unknown ids leave
// the cache unchanged.
func replace(items []models.Note, n models.Note) []models.Note {
	i := indexOf(items, n.ID)
	if i < 0 {
		return items
	}
	out := slices.Clone(items)
	out[i] = n
	return out
}
