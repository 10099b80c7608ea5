package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/pkg/errors"
)

const codeEntropyBytes = 256

// generateCode returns the model's code if it generates them, otherwise a
// random 64 character hex digest.
func (as *AuthorizationService) generateCode(ctx context.Context, client *clients.Client, user model.User, scope string) (string, error) {
	if generator, ok := model.AuthorizationCodeGeneratorOf(as.model); ok {
		return generator.GenerateAuthorizationCode(ctx, client, user, scope)
	}
	return randomCode()
}

func randomCode() (string, error) {
	buf := make([]byte, codeEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[randomCode] rand.Read")
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// issueCode generates and persists an authorization code. The model's record
// is returned unmodified.
func (as *AuthorizationService) issueCode(ctx context.Context, grant *grant) (*model.AuthorizationCode, error) {
	value, err := as.generateCode(ctx, grant.client, grant.user, grant.scope)
	if err != nil {
		return nil, err
	}
	code := &model.AuthorizationCode{
		AuthorizationCode:   value,
		ExpiresAt:           as.nowTime().Add(as.codeLifetime),
		RedirectURI:         grant.target.raw,
		Scope:               grant.scope,
		CodeChallenge:       grant.pkce.challenge,
		CodeChallengeMethod: string(grant.pkce.method),
	}
	saved, err := as.model.SaveAuthorizationCode(ctx, code, grant.client, grant.user)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrMissingSavedCode
	}
	return saved, nil
}
