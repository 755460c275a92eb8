// Package models holds the reviewer identity and session types shared by the auth packages.
package models

import (
	"time"

	id "abportal/pkg/domain"
)

// User is a reviewer account. PasswordHash is a bcrypt hash.
type User struct {
	ID           id.UserID
	Email        string
	Name         string
	PasswordHash string
}

// Principal is the signed-in reviewer as resolved from a session token.
type Principal struct {
	UserID    id.UserID
	SessionID id.SessionID
	Name      string
	Email     string
	Device    string
	TokenID   string
	ExpiresAt time.Time
}

// AuthState is what the auth layer knows about the current caller.
// Resolved is false while the answer is not yet known; a resolved state with a nil
// Principal means nobody is signed in.
type AuthState struct {
	Resolved  bool
	Principal *Principal
}

// Authenticated reports whether the state carries a signed-in principal.
func (s AuthState) Authenticated() bool {
	return s.Resolved && s.Principal != nil
}

// Unresolved is the state before the auth layer has an answer.
func Unresolved() AuthState { return AuthState{} }

// Anonymous is the resolved state with no principal.
func Anonymous() AuthState { return AuthState{Resolved: true} }

// SignedIn is the resolved state for p.
func SignedIn(p Principal) AuthState { return AuthState{Resolved: true, Principal: &p} }

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	Principal   Principal
}
