package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrSessionExpired marks an unrecoverable authentication failure: the
// session has been cleared and the user has to log in again.
var ErrSessionExpired = errors.New("session expired, please log in again")

var (
	errNoRefreshToken = errors.New("no refresh token")
	errEmptyAccess    = errors.New("refresh returned an empty access token")
)

// Kind classifies a failed call.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindAuth
	KindValidation
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is returned for every failed call. StatusCode is zero for network
// failures.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Message    string
	Fields     map[string][]string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func classify(status int, fields map[string][]string) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	case len(fields) > 0:
		return KindValidation
	default:
		return KindClient
	}
}

// statusError builds an *Error from a non-2xx response. It understands
// {"error": "...", "fields": {...}} as well as the {"detail": "..."} and bare
// {"field": ["msg"]} shapes common to REST frameworks.
func statusError(method, path string, status int, body []byte) *Error {
	msg, fields := parseErrorBody(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{
		Kind:       classify(status, fields),
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    msg,
		Fields:     fields,
	}
}

func parseErrorBody(body []byte) (string, map[string][]string) {
	var raw map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &raw) != nil {
		return strings.TrimSpace(string(body)), nil
	}
	var msg string
	fields := map[string][]string{}
	for key, val := range raw {
		switch key {
		case "error", "detail", "message":
			var s string
			if json.Unmarshal(val, &s) == nil && msg == "" {
				msg = s
			}
		case "fields":
			var nested map[string][]string
			if json.Unmarshal(val, &nested) == nil {
				for k, v := range nested {
					fields[k] = v
				}
			}
		default:
			var list []string
			if json.Unmarshal(val, &list) == nil {
				fields[key] = list
			}
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return msg, fields
}
