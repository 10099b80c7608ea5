// Package memory is an in-memory Model backed by the client and user repos
// and signed JWT access tokens.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/token"
	"github.com/jrsteele09/go-authorize-server/users"
	"github.com/pkg/errors"
)

var (
	_ model.Model               = (*Model)(nil)
	_ model.ScopeValidator      = (*Model)(nil)
	_ model.AccessScopeVerifier = (*Model)(nil)
)

type Model struct {
	clients clients.Repo
	users   users.UserRepo
	tokens  *token.Manager
	revoked token.RevocationList
	codes   map[string]*model.AuthorizationCode
	lock    sync.RWMutex
}

func New(clientRepo clients.Repo, userRepo users.UserRepo, tokens *token.Manager, revoked token.RevocationList) *Model {
	return &Model{
		clients: clientRepo,
		users:   userRepo,
		tokens:  tokens,
		revoked: revoked,
		codes:   make(map[string]*model.AuthorizationCode),
	}
}

// GetAccessToken resolves a signed access token to its active user. Forged or
// revoked tokens and tokens of unknown or inactive users are reported as
// unknown.
func (m *Model) GetAccessToken(_ context.Context, bearerToken string) (*model.AccessToken, error) {
	claims, err := m.tokens.Inspect(bearerToken)
	if err != nil {
		return nil, nil
	}
	if m.revoked != nil && m.revoked.IsRevoked(claims.ID) {
		return nil, nil
	}
	user, err := m.users.GetByID(claims.Subject)
	if errors.Is(err, users.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[memory.GetAccessToken] users.GetByID")
	}
	if !user.Active() {
		return nil, nil
	}

	accessToken := &model.AccessToken{
		AccessToken: bearerToken,
		Scope:       claims.Scope,
		User:        user,
	}
	if claims.ExpiresAt != nil {
		accessToken.AccessTokenExpiresAt = claims.ExpiresAt.Time
	}
	if claims.ClientID != "" {
		if client, err := m.clients.Get(claims.ClientID); err == nil {
			accessToken.Client = client
		}
	}
	return accessToken, nil
}

// GetClient returns the client, checking the secret only when one is given.
func (m *Model) GetClient(_ context.Context, clientID, clientSecret string) (*clients.Client, error) {
	client, err := m.clients.Get(clientID)
	if errors.Is(err, clients.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[memory.GetClient] clients.Get")
	}
	if clientSecret != "" && !client.CheckSecret(clientSecret) {
		return nil, nil
	}
	return client, nil
}

func (m *Model) SaveAuthorizationCode(_ context.Context, code *model.AuthorizationCode, client *clients.Client, user model.User) (*model.AuthorizationCode, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, exists := m.codes[code.AuthorizationCode]; exists {
		return nil, errors.New("[memory.SaveAuthorizationCode] duplicate authorization code")
	}
	stored := *code
	stored.Client = client
	stored.User = user
	m.codes[stored.AuthorizationCode] = &stored

	saved := stored
	return &saved, nil
}

// GetAuthorizationCode returns a stored code.
func (m *Model) GetAuthorizationCode(code string) (*model.AuthorizationCode, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	stored, ok := m.codes[code]
	if !ok {
		return nil, false
	}
	c := *stored
	return &c, true
}

// ValidateScope allows any scope registered for the client.
func (m *Model) ValidateScope(_ context.Context, _ model.User, client *clients.Client, scope string) (string, bool, error) {
	if err := client.ValidateScopes(scope); err != nil {
		return "", false, nil
	}
	return scope, true, nil
}

// VerifyScope requires every scope in required to be present on the token.
func (m *Model) VerifyScope(_ context.Context, accessToken *model.AccessToken, required string) (bool, error) {
	return model.HasScopes(accessToken.Scope, required), nil
}

// IssueAccessToken signs an access token for a known user.
func (m *Model) IssueAccessToken(userID, clientID, scope string) (string, error) {
	if _, err := m.users.GetByID(userID); err != nil {
		return "", errors.Wrap(err, "[memory.IssueAccessToken] users.GetByID")
	}
	signed, _, err := m.tokens.CreateAccessToken(userID, clientID, scope)
	if err != nil {
		return "", errors.Wrap(err, "[memory.IssueAccessToken]")
	}
	return signed, nil
}

// RevokeAccessToken makes a signed access token unknown until it expires.
func (m *Model) RevokeAccessToken(bearerToken string) error {
	if m.revoked == nil {
		return errors.New("[memory.RevokeAccessToken] revocation is not enabled")
	}
	claims, err := m.tokens.Inspect(bearerToken)
	if err != nil {
		return errors.Wrap(err, "[memory.RevokeAccessToken]")
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	m.revoked.Revoke(claims.ID, expiresAt)
	return nil
}
