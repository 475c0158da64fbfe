package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func ids(items []models.Note) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func TestReduceNotes_FetchReplacesInOrder(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "old"}}

	s = ReduceNotes(s, pending(NotesFetch))
	assert.Equal(t, StatusLoading, s.Fetch.Status)
	assert.Equal(t, []string{"old"}, ids(s.Items), "no change before confirmation")

	server := []models.Note{{ID: "3"}, {ID: "1"}, {ID: "2"}}
	s = ReduceNotes(s, fulfilled(NotesFetch, server))
	assert.Equal(t, StatusSucceeded, s.Fetch.Status)
	assert.Equal(t, []string{"3", "1", "2"}, ids(s.Items))

	server[0].ID = "mutated"
	assert.Equal(t, "3", s.Items[0].ID, "cache does not alias the payload")
}

func TestReduceNotes_FetchEmpty(t *testing.T) {
	s := ReduceNotes(InitialNotesState(), fulfilled(NotesFetch, []models.Note(nil)))
	assert.NotNil(t, s.Items)
	assert.Empty(t, s.Items)
}

func TestReduceNotes_CreatePrepends(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "7"}}

	s = ReduceNotes(s, fulfilled(NotesCreate, models.Note{ID: "srv-1", Title: "new"}))
	assert.Equal(t, []string{"srv-1", "7"}, ids(s.Items))
	n, ok := s.Find("srv-1")
	assert.True(t, ok)
	assert.Equal(t, "new", n.Title)
}

func TestReduceNotes_UpdateSplicesByID(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "42", Title: "T1"}, {ID: "7", Title: "other"}}
	before := s.Items

	s = ReduceNotes(s, fulfilled(NotesUpdate, models.Note{ID: "42", Title: "T2"}))
	assert.Equal(t, []models.Note{{ID: "42", Title: "T2"}, {ID: "7", Title: "other"}}, s.Items)
	assert.Equal(t, "T1", before[0].Title, "previous snapshot untouched")

	s = ReduceNotes(s, fulfilled(NotesUpdate, models.Note{ID: "missing", Title: "x"}))
	assert.Equal(t, []string{"42", "7"}, ids(s.Items))
}

func TestReduceNotes_DeleteRemovesExactlyOne(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	s = ReduceNotes(s, fulfilled(NotesDelete, "2"))
	assert.Equal(t, []string{"1", "3"}, ids(s.Items))

	s = ReduceNotes(s, fulfilled(NotesDelete, "nope"))
	assert.Equal(t, []string{"1", "3"}, ids(s.Items))
}

func TestReduceNotes_FetchOne(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "1", Title: "a"}}

	s = ReduceNotes(s, fulfilled(NotesFetchOne, models.Note{ID: "1", Title: "b"}))
	assert.Equal(t, "b", s.Items[0].Title)

	s = ReduceNotes(s, fulfilled(NotesFetchOne, models.Note{ID: "2"}))
	assert.Len(t, s.Items, 1, "unknown notes are not appended")
}

func TestReduceNotes_RejectedKeepsCache(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "1"}}
	info := &ErrorInfo{Message: "boom"}

	s = ReduceNotes(s, rejected(NotesUpdate, info))
	assert.Equal(t, StatusFailed, s.Update.Status)
	assert.Equal(t, info, s.Err())
	assert.Equal(t, []string{"1"}, ids(s.Items))

	s = ReduceNotes(s, Action{Type: NotesClearError})
	assert.Nil(t, s.Err())
	assert.Equal(t, StatusIdle, s.Update.Status)
}

func TestReduceNotes_Reset(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "1"}}
	s.Fetch.Status = StatusSucceeded

	s = ReduceNotes(s, Action{Type: NotesReset})
	assert.Equal(t, InitialNotesState(), s)
}

func TestReduceNotes_IgnoresAuthActions(t *testing.T) {
	s := InitialNotesState()
	s.Items = []models.Note{{ID: "1"}}
	assert.Equal(t, s, ReduceNotes(s, fulfilled(AuthLogin, &models.User{})))
}
