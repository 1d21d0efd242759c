// Package auth provides read-only bearer-token lookup for the Helios API.
// The session core only needs "a token is available"; acquiring one (login,
// refresh) is a collaborator concern.
package auth

import (
	"errors"
	"os"
	"strings"
)

// ErrNoToken is returned when no bearer token is available. Callers fail
// fast before issuing a request.
var ErrNoToken = errors.New("auth: no bearer token available")

// TokenProvider looks up the current bearer token.
type TokenProvider interface {
	Token() (string, error)
}

// Static is a fixed token value.
type Static string

func (s Static) Token() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Env reads the token from the named environment variable on every lookup.
type Env string

func (e Env) Token() (string, error) {
	value := strings.TrimSpace(os.Getenv(string(e)))
	if value == "" {
		return "", ErrNoToken
	}
	return value, nil
}

// Chain returns the first token any provider yields.
type Chain []TokenProvider

func (c Chain) Token() (string, error) {
	for _, p := range c {
		if token, err := p.Token(); err == nil {
			return token, nil
		}
	}
	return "", ErrNoToken
}
