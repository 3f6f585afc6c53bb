package session

import (
	"context"
	"errors"

	"taskdesk/internal/gateway"
	"taskdesk/internal/utils"
)

// LoginFailedMessage is shown when the auth call fails without a server message.
const LoginFailedMessage = "Login failed. Please try again."

// Authenticator is the part of the task API the login flow needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) error
}

// AuthCallError reports a failed auth call when the credential check passed.
// The session is logged in when Authenticate returns this error.
type AuthCallError struct {
	Err error
}

func (e *AuthCallError) Error() string { return e.Err.Error() }

func (e *AuthCallError) Unwrap() error { return e.Err }

// Authenticate calls the auth endpoint and then applies the credential check,
// whatever the endpoint answered. Only the credential check decides the
// session state.
func (s *Store) Authenticate(ctx context.Context, api Authenticator, username, password string) error {
	callErr := api.Authenticate(ctx, username, password)
	if callErr != nil {
		utils.Debugf("session: auth call failed: %v", callErr)
	}

	if !s.Login(username, password) {
		return utils.ErrInvalidCredentials()
	}
	if callErr != nil {
		return &AuthCallError{Err: authCallMessage(callErr)}
	}
	return nil
}

// authCallMessage keeps a server-provided message and replaces everything else.
func authCallMessage(err error) error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.Message != gateway.GenericErrorMessage {
		return apiErr
	}
	return utils.WrapWithSuggestion(errors.New(LoginFailedMessage), "Check that the task service is reachable")
}
