package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviralrabbit1/nextNotes/internal/client/session"
	"github.com/aviralrabbit1/nextNotes/internal/client/vault"
	"github.com/aviralrabbit1/nextNotes/internal/server/config"
	"github.com/aviralrabbit1/nextNotes/internal/server/httpapi"
	"github.com/aviralrabbit1/nextNotes/internal/server/repository/sqlite"
	"github.com/aviralrabbit1/nextNotes/internal/server/service"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
	"github.com/aviralrabbit1/nextNotes/internal/shared/passhash"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t     *testing.T
	dir   string
	url   string
	clock *testClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := sqlite.New(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clock := &testClock{t: time.Now()}
	cfg := config.Config{JWTSecret: "test", AccessTTL: time.Minute, RefreshTTL: time.Hour}
	svcs := service.NewServices(repo, cfg,
		service.WithClock(clock.Now),
		service.WithHashParams(passhash.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}))
	ts := httptest.NewServer(httpapi.NewRouter(svcs, nil, 1<<20, nil))
	t.Cleanup(ts.Close)

	return &harness{t: t, dir: t.TempDir(), url: ts.URL + "/api", clock: clock}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd("1.0.0", "2025-08-13")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", h.dir, "--server", h.url}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(h.t, err, out)
	return out
}

func createdID(t *testing.T, out string) string {
	t.Helper()
	idx := strings.Index(out, "Created note ")
	require.GreaterOrEqual(t, idx, 0, out)
	return strings.TrimSpace(out[idx+len("Created note "):])
}

func TestVersionAndVault(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("", "version"), "notekeeper 1.0.0 (2025-08-13)")
	assert.Contains(t, h.mustRun("", "vault", "status"), "not initialized")
	assert.Contains(t, h.mustRun("", "vault", "init"), vault.Path(h.dir))
	assert.Contains(t, h.mustRun("", "vault", "status"), "Vault: ready")

	_, err := h.run("", "vault", "init")
	assert.ErrorIs(t, err, vault.ErrExists)
}

func TestAuthAndNotesFlow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("pass\n", "auth", "register", "--email", "a@b.com")
	assert.Contains(t, out, "Registered and logged in as a <a@b.com>")
	assert.Contains(t, h.mustRun("", "auth", "status"), "Logged in as a <a@b.com>")

	out = h.mustRun("", "notes", "add", "-t", "T1", "-c", "body")
	id := createdID(t, out)

	out = h.mustRun("", "notes", "list")
	assert.Contains(t, out, "T1")
	assert.Contains(t, out, id)

	out = h.mustRun("", "notes", "list", "-o", "json")
	var listed []models.Note
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "body", listed[0].Content)

	h.mustRun("", "notes", "edit", id, "-t", "T2")
	out = h.mustRun("", "notes", "get", id)
	assert.Contains(t, out, "T2")
	assert.Contains(t, out, "body", "content kept when only the title changes")

	h.mustRun("new body\n", "notes", "edit", id, "-c", "-")
	assert.Contains(t, h.mustRun("", "notes", "get", id), "new body")

	assert.Contains(t, h.mustRun("", "notes", "delete", id), "Deleted note "+id)
	assert.Contains(t, h.mustRun("", "notes", "list"), "No notes yet")

	assert.Contains(t, h.mustRun("", "auth", "logout"), "Logged out")
	assert.Contains(t, h.mustRun("", "auth", "status"), "Not logged in")

	_, err := h.run("", "notes", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginAndValidationErrors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("pass\n", "auth", "register", "--email", "a@b.com", "--name", "Ann")
	h.mustRun("", "auth", "logout")

	_, err := h.run("wrong\n", "auth", "login", "--email", "a@b.com")
	assert.ErrorContains(t, err, "invalid credentials")

	out := h.mustRun("a@b.com\npass\n", "auth", "login")
	assert.Contains(t, out, "Logged in as Ann <a@b.com>")

	_, err = h.run("", "notes", "add", "-c", "no title")
	assert.ErrorContains(t, err, "missing required field: title")

	_, err = h.run("", "notes", "add", "-t", strings.Repeat("x", 300))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title: must be at most 255 characters")

	_, err = h.run("", "notes", "get", "missing")
	assert.ErrorContains(t, err, "not found")

	_, err = h.run("", "notes", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestSealedSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "vault", "init")
	h.mustRun("pass\n", "auth", "register", "--email", "a@b.com")

	raw, err := os.ReadFile(filepath.Join(h.dir, session.FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "a@b.com")

	h.mustRun("", "notes", "add", "-t", "sealed")
	assert.Contains(t, h.mustRun("", "notes", "list"), "sealed")
}

func TestVaultInitSealsExistingSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun("pass\n", "auth", "register", "--email", "a@b.com")
	h.mustRun("", "vault", "init")

	assert.Contains(t, h.mustRun("", "auth", "status"), "Logged in as a <a@b.com>")
}

func TestAccessTokenRefreshedTransparently(t *testing.T) {
	h := newHarness(t)
	h.mustRun("pass\n", "auth", "register", "--email", "a@b.com")

	// Past the server's access lifetime but within the refresh lifetime.
	h.clock.Advance(2 * time.Minute)
	h.mustRun("", "notes", "add", "-t", "after refresh")
	assert.Contains(t, h.mustRun("", "notes", "list"), "after refresh")
}

func TestSessionExpiry(t *testing.T) {
	h := newHarness(t)
	h.mustRun("pass\n", "auth", "register", "--email", "a@b.com")

	h.clock.Advance(2 * time.Hour)
	_, err := h.run("", "notes", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log in again")

	assert.Contains(t, h.mustRun("", "auth", "status"), "Not logged in")
}

func TestUnreadableSessionIsDiscarded(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(h.dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, session.FileName), []byte("{garbage"), 0o600))

	out := h.mustRun("", "auth", "status")
	assert.Contains(t, out, "could not be read")
	assert.Contains(t, out, "Not logged in")
	_, err := os.Stat(filepath.Join(h.dir, session.FileName))
	assert.True(t, os.IsNotExist(err))
}
