package api

import (
	"context"
	"net/http"

	"github.com/aviralrabbit1/nextNotes/internal/client/httpclient"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	logoutPath   = "/auth/logout"
)

type AuthAPI struct {
	c Doer
}

func NewAuthAPI(c Doer) *AuthAPI { return &AuthAPI{c: c} }

func (a *AuthAPI) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	if err := requireField("email", creds.Email); err != nil {
		return models.AuthResponse{}, err
	}
	if err := requireField("password", creds.Password); err != nil {
		return models.AuthResponse{}, err
	}
	var out models.AuthResponse
	err := a.c.DoAnonymous(ctx, http.MethodPost, loginPath, creds, &out)
	return out, err
}

func (a *AuthAPI) Register(ctx context.Context, reg models.Registration) (models.AuthResponse, error) {
	if err := requireField("email", reg.Email); err != nil {
		return models.AuthResponse{}, err
	}
	if err := requireField("password", reg.Password); err != nil {
		return models.AuthResponse{}, err
	}
	var out models.AuthResponse
	err := a.c.DoAnonymous(ctx, http.MethodPost, registerPath, reg, &out)
	return out, err
}

// Logout revokes refresh on the backend.
func (a *AuthAPI) Logout(ctx context.Context, refresh string) error {
	if err := requireField("refresh", refresh); err != nil {
		return err
	}
	return a.c.Do(ctx, http.MethodPost, logoutPath, models.RefreshRequest{Refresh: refresh}, nil)
}

func (a *AuthAPI) Refresh(ctx context.Context, refresh string) (models.RefreshResponse, error) {
	if err := requireField("refresh", refresh); err != nil {
		return models.RefreshResponse{}, err
	}
	var out models.RefreshResponse
	err := a.c.DoAnonymous(ctx, http.MethodPost, httpclient.RefreshPath, models.RefreshRequest{Refresh: refresh}, &out)
	return out, err
}
