// Package model defines the contract between the authorization pipeline and
// the persistence/business-logic layer that backs it.
//
// A Model is required. The optional hooks (ScopeValidator,
// AuthorizationCodeGenerator, RedirectURIValidator, AccessScopeVerifier) are
// discovered by type assertion; use the *Of helpers rather than asserting
// directly so that models built with NewFuncs report only the hooks they were
// given.
package model

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-authorize-server/clients"
)

// User is the resource owner as the model represents it. The pipeline only
// checks that one is present.
type User = any

// AuthorizationCode is an issued authorization code.
type AuthorizationCode struct {
	AuthorizationCode   string
	ExpiresAt           time.Time
	RedirectURI         string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	Client              *clients.Client
	User                User
}

// AccessToken is the result of looking up a bearer token.
type AccessToken struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	Scope                string
	Client               *clients.Client
	User                 User
}

// Model is the set of operations every model must provide.
type Model interface {
	// GetAccessToken looks up a bearer token. A nil token with a nil error
	// means the token is unknown.
	GetAccessToken(ctx context.Context, bearerToken string) (*AccessToken, error)

	// GetClient looks up a client. clientSecret is empty when the caller does
	// not authenticate the client. A nil client with a nil error means the
	// client is unknown or the credentials do not match.
	GetClient(ctx context.Context, clientID, clientSecret string) (*clients.Client, error)

	// SaveAuthorizationCode persists code and returns the stored record.
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode, client *clients.Client, user User) (*AuthorizationCode, error)
}

// ScopeValidator decides whether user may grant scope to client. The returned
// scope replaces the requested one when valid is true.
type ScopeValidator interface {
	ValidateScope(ctx context.Context, user User, client *clients.Client, scope string) (validated string, valid bool, err error)
}

// AuthorizationCodeGenerator replaces the default random code.
type AuthorizationCodeGenerator interface {
	GenerateAuthorizationCode(ctx context.Context, client *clients.Client, user User, scope string) (string, error)
}

// RedirectURIValidator replaces exact matching of a requested redirect URI
// against the client's registered URIs.
type RedirectURIValidator interface {
	ValidateRedirectURI(ctx context.Context, redirectURI string, client *clients.Client) (bool, error)
}

// AccessScopeVerifier checks that an access token carries a required scope.
type AccessScopeVerifier interface {
	VerifyScope(ctx context.Context, token *AccessToken, scope string) (bool, error)
}

const (
	hookValidateScope             = "ValidateScope"
	hookGenerateAuthorizationCode = "GenerateAuthorizationCode"
	hookValidateRedirectURI       = "ValidateRedirectURI"
	hookVerifyScope               = "VerifyScope"
)

// hookSet is implemented by models that satisfy an optional interface
// statically but may not have the hook configured.
type hookSet interface {
	hasHook(name string) bool
}

func lookup[T any](m Model, hook string) (T, bool) {
	var zero T
	if hs, ok := m.(hookSet); ok && !hs.hasHook(hook) {
		return zero, false
	}
	v, ok := m.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// ScopeValidatorOf returns the model's scope validation hook.
func ScopeValidatorOf(m Model) (ScopeValidator, bool) {
	return lookup[ScopeValidator](m, hookValidateScope)
}

// AuthorizationCodeGeneratorOf returns the model's code generation hook.
func AuthorizationCodeGeneratorOf(m Model) (AuthorizationCodeGenerator, bool) {
	return lookup[AuthorizationCodeGenerator](m, hookGenerateAuthorizationCode)
}

// RedirectURIValidatorOf returns the model's redirect URI validation hook.
func RedirectURIValidatorOf(m Model) (RedirectURIValidator, bool) {
	return lookup[RedirectURIValidator](m, hookValidateRedirectURI)
}

// AccessScopeVerifierOf returns the model's scope verification hook.
func AccessScopeVerifierOf(m Model) (AccessScopeVerifier, bool) {
	return lookup[AccessScopeVerifier](m, hookVerifyScope)
}

// HasScopes reports whether every space-delimited scope in required appears in
// granted.
func HasScopes(granted, required string) bool {
	have := strings.Fields(granted)
	for _, want := range strings.Fields(required) {
		found := false
		for _, g := range have {
			if g == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
