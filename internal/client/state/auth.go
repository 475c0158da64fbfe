package state

import "github.com/aviralrabbit1/nextNotes/internal/shared/models"

const (
	AuthLogin          ActionType = "auth/login"
	AuthRegister       ActionType = "auth/register"
	AuthLogout         ActionType = "auth/logout"
	AuthCheck          ActionType = "auth/check"
	AuthSessionExpired ActionType = "auth/sessionExpired"
	AuthClearError     ActionType = "auth/clearError"
)

type AuthState struct {
	User          *models.User
	Authenticated bool
	Login         Op
	Register      Op
	Logout        Op
}

func InitialAuthState() AuthState {
	return AuthState{Login: idle, Register: idle, Logout: idle}
}

// CheckPayload rehydrates the slice from the token store.
type CheckPayload struct {
	User          *models.User
	Authenticated bool
}

// Err returns the first failure across the auth operations.
func (s AuthState) Err() *ErrorInfo {
	for _, op := range []Op{s.Login, s.Register, s.Logout} {
		if op.Error != nil {
			return op.Error
		}
	}
	return nil
}

func (s AuthState) Loading() bool {
	return s.Login.Status == StatusLoading || s.Register.Status == StatusLoading || s.Logout.Status == StatusLoading
}

func ReduceAuth(s AuthState, a Action) AuthState {
	switch a.Type {
	case AuthLogin:
		s.Login = transition(s.Login, a)
		s = authenticate(s, a)
	case AuthRegister:
		s.Register = transition(s.Register, a)
		s = authenticate(s, a)
	case AuthLogout:
		// The cached user goes away as soon as logout starts, whatever the
		// backend answers.
		s.Logout = transition(s.Logout, a)
		s.User = nil
		s.Authenticated = false
	case AuthSessionExpired:
		s.User = nil
		s.Authenticated = false
	case AuthCheck:
		if p, ok := a.Payload.(CheckPayload); ok {
			s.User = p.User
			s.Authenticated = p.Authenticated
		}
	case AuthClearError:
		s.Login = clearError(s.Login)
		s.Register = clearError(s.Register)
		s.Logout = clearError(s.Logout)
	}
	return s
}

func authenticate(s AuthState, a Action) AuthState {
	if a.Phase != PhaseFulfilled {
		return s
	}
	if u, ok := a.Payload.(*models.User); ok {
		s.User = u
	}
	s.Authenticated = true
	return s
}
