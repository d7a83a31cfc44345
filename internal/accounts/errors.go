package accounts

import (
	"errors"
	"strings"
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrNotAuthorized     = errors.New("incorrect username or password")
	ErrUserNotFound      = errors.New("user does not exist")
	ErrUserNotConfirmed  = errors.New("user is not confirmed")
	ErrInvalidCode       = errors.New("invalid or expired confirmation code")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrChallengeRequired = errors.New("additional authentication challenge required")
)

// PasswordError carries the pool's password policy message.
type PasswordError struct {
	Reason string
}

func (e *PasswordError) Error() string {
	// Cognito messages look like "Password did not conform with policy: Password not long enough"
	reason := e.Reason
	if i := strings.LastIndex(reason, ":"); i >= 0 {
		reason = reason[i+1:]
	}
	return strings.TrimSpace("Invalid password. " + strings.TrimSpace(reason))
}
