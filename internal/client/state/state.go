// Package state keeps the client's view of the backend: an auth slice and a
// notes slice, each a set of request status machines plus cached data.
// Reducers are pure; the Store applies them and runs the async actions.
package state

import (
	"errors"
	"fmt"
	"maps"

	"github.com/aviralrabbit1/nextNotes/internal/client/api"
	"github.com/aviralrabbit1/nextNotes/internal/client/httpclient"
)

// Status is the state of one operation family.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrorInfo is a failure normalized for display.
type ErrorInfo struct {
	Message string
	Kind    string
	Status  int
	Fields  map[string][]string
}

// Op tracks one async operation family.
type Op struct {
	Status Status
	Error  *ErrorInfo
}

var idle = Op{Status: StatusIdle}

type ActionType string

// Phase distinguishes the steps of an async action. Synchronous actions use
// PhaseSync.
type Phase int

const (
	PhaseSync Phase = iota
	PhasePending
	PhaseFulfilled
	PhaseRejected
)

type Action struct {
	Type    ActionType
	Phase   Phase
	Payload any
	Error   *ErrorInfo
}

func pending(t ActionType) Action { return Action{Type: t, Phase: PhasePending} }

func fulfilled(t ActionType, payload any) Action {
	return Action{Type: t, Phase: PhaseFulfilled, Payload: payload}
}

func rejected(t ActionType, info *ErrorInfo) Action {
	return Action{Type: t, Phase: PhaseRejected, Error: info}
}

func transition(op Op, a Action) Op {
	switch a.Phase {
	case PhasePending:
		return Op{Status: StatusLoading}
	case PhaseFulfilled:
		return Op{Status: StatusSucceeded}
	case PhaseRejected:
		return Op{Status: StatusFailed, Error: a.Error}
	default:
		return op
	}
}

func clearError(op Op) Op {
	op.Error = nil
	if op.Status == StatusFailed {
		op.Status = StatusIdle
	}
	return op
}

// NormalizeError turns err into an ErrorInfo. fallback is used when the
// failure carries no message of its own.
func NormalizeError(err error, fallback string) *ErrorInfo {
	if err == nil {
		return nil
	}
	if e, ok := httpclient.AsError(err); ok {
		info := &ErrorInfo{
			Message: e.Message,
			Kind:    e.Kind.String(),
			Status:  e.StatusCode,
			Fields:  maps.Clone(e.Fields),
		}
		switch {
		case errors.Is(err, httpclient.ErrSessionExpired):
			info.Message = httpclient.ErrSessionExpired.Error()
		case e.Kind == httpclient.KindNetwork:
			info.Message = fmt.Sprintf("%s: backend unreachable", fallback)
		}
		if info.Message == "" {
			info.Message = fallback
		}
		return info
	}
	if errors.Is(err, api.ErrMissingField) {
		return &ErrorInfo{Message: err.Error(), Kind: httpclient.KindValidation.String()}
	}
	if msg := err.Error(); msg != "" {
		return &ErrorInfo{Message: fmt.Sprintf("%s: %s", fallback, msg)}
	}
	return &ErrorInfo{Message: fallback}
}
