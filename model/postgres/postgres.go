// Package postgres is a Model backed by PostgreSQL through database/sql and
// lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/users"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

// ErrDuplicateCode is returned when an authorization code is saved twice.
var ErrDuplicateCode = errors.New("authorization code already exists")

var (
	_ model.Model               = (*Model)(nil)
	_ model.ScopeValidator      = (*Model)(nil)
	_ model.AccessScopeVerifier = (*Model)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS oauth_clients (
	id            TEXT PRIMARY KEY,
	secret_hash   TEXT NOT NULL DEFAULT '',
	grants        TEXT[],
	redirect_uris TEXT[] NOT NULL DEFAULT '{}',
	scopes        TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS oauth_access_tokens (
	access_token TEXT PRIMARY KEY,
	expires_at   TIMESTAMPTZ NOT NULL,
	scope        TEXT NOT NULL DEFAULT '',
	client_id    TEXT REFERENCES oauth_clients (id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS oauth_authorization_codes (
	code                  TEXT PRIMARY KEY,
	expires_at            TIMESTAMPTZ NOT NULL,
	redirect_uri          TEXT NOT NULL,
	scope                 TEXT NOT NULL DEFAULT '',
	code_challenge        TEXT NOT NULL DEFAULT '',
	code_challenge_method TEXT NOT NULL DEFAULT '',
	client_id             TEXT NOT NULL REFERENCES oauth_clients (id) ON DELETE CASCADE,
	user_id               TEXT NOT NULL
);
`

// Model stores clients, access tokens and authorization codes. Users are
// represented by their ID only.
type Model struct {
	db      *sql.DB
	nowTime func() time.Time
}

type Option func(*Model)

// WithNowTime sets the clock DeleteExpired compares against (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Model) {
		m.nowTime = nowFunc
	}
}

func New(db *sql.DB, options ...Option) *Model {
	m := &Model{db: db, nowTime: time.Now}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Open connects to dsn with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Open] sql.Open")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[postgres.Open] ping")
	}
	return db, nil
}

// Migrate creates the tables if they do not exist.
func (m *Model) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "[postgres.Migrate]")
	}
	return nil
}

// GetAccessToken returns a stored token. Expiry is left to the caller.
func (m *Model) GetAccessToken(ctx context.Context, bearerToken string) (*model.AccessToken, error) {
	var (
		accessToken model.AccessToken
		clientID    sql.NullString
		userID      string
	)
	err := m.db.QueryRowContext(ctx,
		`SELECT access_token, expires_at, scope, client_id, user_id FROM oauth_access_tokens WHERE access_token = $1`,
		bearerToken,
	).Scan(&accessToken.AccessToken, &accessToken.AccessTokenExpiresAt, &accessToken.Scope, &clientID, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.GetAccessToken]")
	}
	accessToken.User = &users.User{ID: userID}
	if clientID.Valid {
		client, err := m.GetClient(ctx, clientID.String, "")
		if err != nil {
			return nil, err
		}
		accessToken.Client = client
	}
	return &accessToken, nil
}

// GetClient returns the client, checking the secret only when one is given.
func (m *Model) GetClient(ctx context.Context, clientID, clientSecret string) (*clients.Client, error) {
	var (
		client clients.Client
		grants pq.StringArray
	)
	err := m.db.QueryRowContext(ctx,
		`SELECT id, secret_hash, grants, redirect_uris, scopes FROM oauth_clients WHERE id = $1`,
		clientID,
	).Scan(&client.ID, &client.Secret, &grants, pq.Array(&client.RedirectURIs), pq.Array(&client.Scopes))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.GetClient]")
	}
	// NULL grants stay nil so that a client without grants can be told apart
	// from one with an empty list.
	if grants != nil {
		client.Grants = []string(grants)
	}
	if clientSecret != "" && !client.CheckSecret(clientSecret) {
		return nil, nil
	}
	return &client, nil
}

func (m *Model) SaveAuthorizationCode(ctx context.Context, code *model.AuthorizationCode, client *clients.Client, user model.User) (*model.AuthorizationCode, error) {
	userID, err := UserID(user)
	if err != nil {
		return nil, err
	}
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO oauth_authorization_codes
			(code, expires_at, redirect_uri, scope, code_challenge, code_challenge_method, client_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		code.AuthorizationCode, code.ExpiresAt, code.RedirectURI, code.Scope,
		code.CodeChallenge, code.CodeChallengeMethod, client.ID, userID,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, ErrDuplicateCode
	}
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.SaveAuthorizationCode]")
	}
	saved := *code
	saved.Client = client
	saved.User = user
	return &saved, nil
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

// UpsertClient inserts or replaces a client.
func (m *Model) UpsertClient(ctx context.Context, client *clients.Client) error {
	var grants any
	if client.Grants != nil {
		grants = pq.Array(client.Grants)
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO oauth_clients (id, secret_hash, grants, redirect_uris, scopes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			grants = EXCLUDED.grants,
			redirect_uris = EXCLUDED.redirect_uris,
			scopes = EXCLUDED.scopes`,
		client.ID, client.Secret, grants, pq.Array(nonNil(client.RedirectURIs)), pq.Array(nonNil(client.Scopes)),
	)
	if err != nil {
		return errors.Wrap(err, "[postgres.UpsertClient]")
	}
	return nil
}

// SaveAccessToken stores an access token issued elsewhere.
func (m *Model) SaveAccessToken(ctx context.Context, accessToken *model.AccessToken) error {
	userID, err := UserID(accessToken.User)
	if err != nil {
		return err
	}
	var clientID sql.NullString
	if accessToken.Client != nil {
		clientID = sql.NullString{String: accessToken.Client.ID, Valid: true}
	}
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO oauth_access_tokens (access_token, expires_at, scope, client_id, user_id)
		VALUES ($1, $2, $3, $4, $5)`,
		accessToken.AccessToken, accessToken.AccessTokenExpiresAt, accessToken.Scope, clientID, userID,
	)
	if err != nil {
		return errors.Wrap(err, "[postgres.SaveAccessToken]")
	}
	return nil
}

// DeleteExpired removes expired tokens and codes and returns how many rows
// were removed.
func (m *Model) DeleteExpired(ctx context.Context) (int64, error) {
	now := m.nowTime()
	var total int64
	for _, table := range []string{"oauth_access_tokens", "oauth_authorization_codes"} {
		res, err := m.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE expires_at < $1`, now)
		if err != nil {
			return total, errors.Wrapf(err, "[postgres.DeleteExpired] %s", table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, errors.Wrapf(err, "[postgres.DeleteExpired] %s rows", table)
		}
		total += n
	}
	return total, nil
}

// UserID returns the identifier stored for a user: a *users.User, a string
// or anything with an ID() method.
func UserID(user model.User) (string, error) {
	switch u := user.(type) {
	case *users.User:
		if u != nil && u.ID != "" {
			return u.ID, nil
		}
	case string:
		if u != "" {
			return u, nil
		}
	case interface{ ID() string }:
		if id := u.ID(); id != "" {
			return id, nil
		}
	}
	return "", errors.Errorf("[postgres.UserID] cannot identify user of type %T", user)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
