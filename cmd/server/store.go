package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-authorize-server/authenticate"
	"github.com/jrsteele09/go-authorize-server/clients"
	fakeclientrepo "github.com/jrsteele09/go-authorize-server/clients/fakerepo"
	"github.com/jrsteele09/go-authorize-server/internal/config"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/model/memory"
	"github.com/jrsteele09/go-authorize-server/model/postgres"
	"github.com/jrsteele09/go-authorize-server/oauth2"
	"github.com/jrsteele09/go-authorize-server/token"
	"github.com/jrsteele09/go-authorize-server/users"
	fakeuserrepo "github.com/jrsteele09/go-authorize-server/users/repofake"
	"github.com/rs/zerolog"
)

// store is the model the server runs against plus what it needs to be kept
// tidy while running.
type store struct {
	model         model.Model
	authenticator *authenticate.Handler
	revoked       *token.InMemoryRevocationList
	pg            *postgres.Model
	db            *sql.DB
	logger        zerolog.Logger
}

// newStore builds the postgres model when a DSN is configured and the
// in-memory model otherwise, then seeds the configured client and user.
func newStore(ctx context.Context, c config.Config, logger zerolog.Logger) (*store, error) {
	signer, err := newSigner(c, logger)
	if err != nil {
		return nil, err
	}
	tokens := token.New(signer,
		token.WithIssuer(c.GetTokenIssuer()),
		token.WithAccessTokenExpiry(c.GetAccessTokenLifetime()),
	)

	client, err := seedClient(c.GetSeedClient())
	if err != nil {
		return nil, err
	}
	seed := c.GetSeedUser()
	user := &users.User{ID: seed.ID, Email: seed.Email, Verified: true, DateJoined: time.Now()}
	scope := strings.Join(client.Scopes, " ")

	s := &store{revoked: token.NewInMemoryRevocationList(), logger: logger}
	var bearer string

	if dsn := c.GetDatabaseDSN(); dsn != "" {
		db, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.pg = postgres.New(db)
		if err := s.pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		if err := s.pg.UpsertClient(ctx, client); err != nil {
			db.Close()
			return nil, err
		}
		signed, expiresAt, err := tokens.CreateAccessToken(user.ID, client.ID, scope)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := s.pg.SaveAccessToken(ctx, &model.AccessToken{
			AccessToken:          signed,
			AccessTokenExpiresAt: expiresAt,
			Scope:                scope,
			Client:               client,
			User:                 user,
		}); err != nil {
			db.Close()
			return nil, err
		}
		s.model = s.pg
		bearer = signed
		logger.Info().Msg("using postgres model")
	} else {
		clientRepo := fakeclientrepo.NewFakeClientRepo()
		if err := clientRepo.Upsert(client); err != nil {
			return nil, fmt.Errorf("[newStore] seed client: %w", err)
		}
		userRepo := fakeuserrepo.NewFakeUserRepo()
		if err := userRepo.Upsert(user); err != nil {
			return nil, fmt.Errorf("[newStore] seed user: %w", err)
		}
		m := memory.New(clientRepo, userRepo, tokens, s.revoked)
		if bearer, err = m.IssueAccessToken(user.ID, client.ID, scope); err != nil {
			return nil, err
		}
		s.model = m
		logger.Info().Msg("using in-memory model")
	}

	s.authenticator, err = authenticate.New(s.model,
		authenticate.WithAllowBearerTokensInQueryString(c.GetAllowBearerTokensInQueryString()),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	if c.GetEnv() == "DEV" {
		logSeed(logger, c, client, bearer)
	}
	return s, nil
}

func newSigner(c config.TokenConfig, logger zerolog.Logger) (token.Signer, error) {
	cfg := token.SignerConfig{
		Method:        c.GetTokenSigningMethod(),
		Secret:        c.GetTokenSecret(),
		PrivateKeyPEM: c.GetTokenPrivateKeyPEM(),
		KeyID:         c.GetTokenKeyID(),
	}
	if (cfg.Method == "" || cfg.Method == token.MethodHS256) && cfg.Secret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("[newSigner] generate secret: %w", err)
		}
		cfg.Secret = hex.EncodeToString(secret)
		logger.Warn().Msg("token.secret is not set, using a random secret; tokens will not survive a restart")
	}
	return token.NewSigner(cfg)
}

func seedClient(seed config.SeedClient) (*clients.Client, error) {
	client := &clients.Client{
		ID:           seed.ID,
		Description:  "Seeded client",
		Grants:       []string{string(oauth2.AuthorizationCodeGrant)},
		RedirectURIs: seed.RedirectURIs,
		Scopes:       seed.Scopes,
	}
	if seed.Secret != "" {
		hash, err := clients.HashSecret(seed.Secret)
		if err != nil {
			return nil, fmt.Errorf("[seedClient] hash secret: %w", err)
		}
		client.Secret = hash
	}
	return client, nil
}

func logSeed(logger zerolog.Logger, c config.EnvConfig, client *clients.Client, bearer string) {
	params := url.Values{
		oauth2.ParamClientID:     {client.ID},
		oauth2.ParamResponseType: {string(oauth2.CodeResponseType)},
		oauth2.ParamState:        {"demo"},
	}
	if len(client.Scopes) > 0 {
		params.Set(oauth2.ParamScope, client.Scopes[0])
	}
	logger.Info().
		Str("client_id", client.ID).
		Strs("redirect_uris", client.RedirectURIs).
		Str("bearer_token", bearer).
		Str("authorize_url", "http://localhost"+c.GetPort()+"/oauth2/authorize?"+params.Encode()).
		Msg("development seed")
}

// cleanupLoop drops expired revocations and, for postgres, expired rows.
func (s *store) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.revoked.Cleanup(now); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("expired revocations removed")
			}
			if s.pg == nil {
				continue
			}
			n, err := s.pg.DeleteExpired(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("delete expired rows")
				continue
			}
			if n > 0 {
				s.logger.Debug().Int64("removed", n).Msg("expired rows removed")
			}
		}
	}
}

func (s *store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
