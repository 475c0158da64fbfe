package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aviralrabbit1/nextNotes/internal/client/api"
	"github.com/aviralrabbit1/nextNotes/internal/client/config"
	"github.com/aviralrabbit1/nextNotes/internal/client/httpclient"
	"github.com/aviralrabbit1/nextNotes/internal/client/session"
	"github.com/aviralrabbit1/nextNotes/internal/client/state"
	"github.com/aviralrabbit1/nextNotes/internal/client/vault"
	"github.com/aviralrabbit1/nextNotes/internal/shared/logging"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

var errNotLoggedIn = errors.New("not logged in, run `notekeeper auth login` first")

// cliApp holds the objects one command invocation works with. They are built
// lazily so that version and vault commands never touch the network or the
// session file.
type cliApp struct {
	v       *viper.Viper
	cfg     config.Config
	log     logr.Logger
	zlog    *zap.Logger
	session *session.Session
	store   *state.Store
	expired bool
}

func newCLIApp() *cliApp {
	return &cliApp{v: config.New(), log: logr.Discard()}
}

func (a *cliApp) loadConfig() error {
	if a.cfg.Server != "" {
		return nil
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log, a.zlog = logging.NewLogr(cfg.LogLevel)
	return nil
}

func (a *cliApp) setup(cmd *cobra.Command) error {
	if a.store != nil {
		return nil
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	sess, err := a.openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var authAPI *api.AuthAPI
	client, err := httpclient.New(a.cfg.Server, sess,
		httpclient.WithTimeout(a.cfg.Timeout),
		httpclient.WithLogger(a.log.WithName("http")),
		httpclient.WithRefresher(func(ctx context.Context, refresh string) (models.RefreshResponse, error) {
			return authAPI.Refresh(ctx, refresh)
		}),
	)
	if err != nil {
		return err
	}
	authAPI = api.NewAuthAPI(client)
	store := state.NewStore(authAPI, api.NewNotesAPI(client), sess, state.WithLogger(a.log.WithName("state")))
	client.SetAuthFailureHandler(func() {
		a.expired = true
		store.SessionExpired()
	})

	a.session = sess
	a.store = store
	return nil
}

// openSession loads the persisted session, sealed when a vault key exists.
// An unreadable file is discarded and the user starts logged out.
func (a *cliApp) openSession(stderr io.Writer) (*session.Session, error) {
	key, err := vault.LoadOptional(a.cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load vault key: %w", err)
	}
	backend := session.NewFileBackend(filepath.Join(a.cfg.ConfigDir, session.FileName), key)
	opts := []session.Option{
		session.WithAccessTTL(a.cfg.AccessTTL),
		session.WithRefreshTTL(a.cfg.RefreshTTL),
		session.WithLogger(a.log.WithName("session")),
	}
	sess, err := session.New(backend, opts...)
	if err == nil {
		return sess, nil
	}
	a.log.Error(err, "discarding unreadable session", "path", backend.Path())
	fmt.Fprintln(stderr, "warning: stored session could not be read; please log in again")
	if rerr := backend.Remove(); rerr != nil {
		return nil, fmt.Errorf("remove session file: %w", rerr)
	}
	return session.New(backend, opts...)
}

// requireSession fails early when there is nothing to authenticate with.
func (a *cliApp) requireSession() error {
	if a.session.AccessToken() == "" && a.session.RefreshToken() == "" {
		return errNotLoggedIn
	}
	return nil
}

// fail turns an action error into the message shown to the user.
func (a *cliApp) fail(err error, fallback string) error {
	if err == nil {
		return nil
	}
	info := state.NormalizeError(err, fallback)
	var b strings.Builder
	b.WriteString(info.Message)
	fields := make([]string, 0, len(info.Fields))
	for f := range info.Fields {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f, strings.Join(info.Fields[f], ", "))
	}
	if a.expired || errors.Is(err, httpclient.ErrSessionExpired) {
		b.WriteString("\nrun `notekeeper auth login` to log in again")
	}
	return errors.New(b.String())
}

func (a *cliApp) close() {
	if a.zlog != nil {
		_ = a.zlog.Sync()
	}
}
