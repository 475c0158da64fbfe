// Package api maps application intents to backend calls. Each function checks
// the fields the backend requires, issues exactly one call through the
// httpclient and returns the decoded body or the propagated error.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is returned, wrapped with the field name, before any
// network call is made.
var ErrMissingField = errors.New("missing required field")

// Doer is the subset of *httpclient.Client the facades use.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
	DoAnonymous(ctx context.Context, method, path string, in, out any) error
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return nil
}
