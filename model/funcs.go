package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/pkg/errors"
)

// Result carries the outcome of an asynchronous model call.
type Result[T any] struct {
	Value T
	Err   error
}

// ScopeResult is the value produced by an asynchronous ValidateScope hook.
type ScopeResult struct {
	Scope string
	Valid bool
}

// Funcs assembles a Model from plain functions. Each field accepts one of
// three shapes, detected from the function's signature:
//
//	func(ctx, args...) (T, error)                  // returns directly
//	func(ctx, args...) <-chan Result[T]            // returns a result channel
//	func(ctx, args..., func(T, error))             // completes through a callback
//
// ValidateScope's direct form returns (string, bool, error); its channel and
// callback forms carry a ScopeResult. GetAccessToken, GetClient and
// SaveAuthorizationCode are required; the rest are optional hooks.
type Funcs struct {
	GetAccessToken            any
	GetClient                 any
	SaveAuthorizationCode     any
	ValidateScope             any
	GenerateAuthorizationCode any
	ValidateRedirectURI       any
	VerifyScope               any
}

type (
	getAccessTokenFunc        func(ctx context.Context, bearerToken string) (*AccessToken, error)
	getClientFunc             func(ctx context.Context, clientID, clientSecret string) (*clients.Client, error)
	saveAuthorizationCodeFunc func(ctx context.Context, code *AuthorizationCode, client *clients.Client, user User) (*AuthorizationCode, error)
	validateScopeFunc         func(ctx context.Context, user User, client *clients.Client, scope string) (ScopeResult, error)
	generateCodeFunc          func(ctx context.Context, client *clients.Client, user User, scope string) (string, error)
	validateRedirectURIFunc   func(ctx context.Context, redirectURI string, client *clients.Client) (bool, error)
	verifyScopeFunc           func(ctx context.Context, token *AccessToken, scope string) (bool, error)
)

var (
	_ Model                      = (*FuncModel)(nil)
	_ ScopeValidator             = (*FuncModel)(nil)
	_ AuthorizationCodeGenerator = (*FuncModel)(nil)
	_ RedirectURIValidator       = (*FuncModel)(nil)
	_ AccessScopeVerifier        = (*FuncModel)(nil)
)

// FuncModel is a Model built from Funcs.
type FuncModel struct {
	getAccessToken        getAccessTokenFunc
	getClient             getClientFunc
	saveAuthorizationCode saveAuthorizationCodeFunc
	validateScope         validateScopeFunc
	generateCode          generateCodeFunc
	validateRedirectURI   validateRedirectURIFunc
	verifyScope           verifyScopeFunc
}

// NewFuncs validates f and normalises every hook to a single blocking call.
// Missing required functions or unrecognised shapes fail immediately.
func NewFuncs(f Funcs) (*FuncModel, error) {
	if f.GetAccessToken == nil {
		return nil, errors.New("[model.NewFuncs] GetAccessToken is required")
	}
	if f.GetClient == nil {
		return nil, errors.New("[model.NewFuncs] GetClient is required")
	}
	if f.SaveAuthorizationCode == nil {
		return nil, errors.New("[model.NewFuncs] SaveAuthorizationCode is required")
	}

	m := &FuncModel{}
	var err error
	if m.getAccessToken, err = adaptGetAccessToken(f.GetAccessToken); err != nil {
		return nil, err
	}
	if m.getClient, err = adaptGetClient(f.GetClient); err != nil {
		return nil, err
	}
	if m.saveAuthorizationCode, err = adaptSaveAuthorizationCode(f.SaveAuthorizationCode); err != nil {
		return nil, err
	}
	if f.ValidateScope != nil {
		if m.validateScope, err = adaptValidateScope(f.ValidateScope); err != nil {
			return nil, err
		}
	}
	if f.GenerateAuthorizationCode != nil {
		if m.generateCode, err = adaptGenerateCode(f.GenerateAuthorizationCode); err != nil {
			return nil, err
		}
	}
	if f.ValidateRedirectURI != nil {
		if m.validateRedirectURI, err = adaptValidateRedirectURI(f.ValidateRedirectURI); err != nil {
			return nil, err
		}
	}
	if f.VerifyScope != nil {
		if m.verifyScope, err = adaptVerifyScope(f.VerifyScope); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *FuncModel) hasHook(name string) bool {
	switch name {
	case hookValidateScope:
		return m.validateScope != nil
	case hookGenerateAuthorizationCode:
		return m.generateCode != nil
	case hookValidateRedirectURI:
		return m.validateRedirectURI != nil
	case hookVerifyScope:
		return m.verifyScope != nil
	}
	return false
}

func (m *FuncModel) GetAccessToken(ctx context.Context, bearerToken string) (*AccessToken, error) {
	return m.getAccessToken(ctx, bearerToken)
}

func (m *FuncModel) GetClient(ctx context.Context, clientID, clientSecret string) (*clients.Client, error) {
	return m.getClient(ctx, clientID, clientSecret)
}

func (m *FuncModel) SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode, client *clients.Client, user User) (*AuthorizationCode, error) {
	return m.saveAuthorizationCode(ctx, code, client, user)
}

func (m *FuncModel) ValidateScope(ctx context.Context, user User, client *clients.Client, scope string) (string, bool, error) {
	if m.validateScope == nil {
		return "", false, missingHook(hookValidateScope)
	}
	res, err := m.validateScope(ctx, user, client, scope)
	return res.Scope, res.Valid, err
}

func (m *FuncModel) GenerateAuthorizationCode(ctx context.Context, client *clients.Client, user User, scope string) (string, error) {
	if m.generateCode == nil {
		return "", missingHook(hookGenerateAuthorizationCode)
	}
	return m.generateCode(ctx, client, user, scope)
}

func (m *FuncModel) ValidateRedirectURI(ctx context.Context, redirectURI string, client *clients.Client) (bool, error) {
	if m.validateRedirectURI == nil {
		return false, missingHook(hookValidateRedirectURI)
	}
	return m.validateRedirectURI(ctx, redirectURI, client)
}

func (m *FuncModel) VerifyScope(ctx context.Context, token *AccessToken, scope string) (bool, error) {
	if m.verifyScope == nil {
		return false, missingHook(hookVerifyScope)
	}
	return m.verifyScope(ctx, token, scope)
}

// await blocks until the channel yields or ctx is done.
func await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	var zero T
	if ch == nil {
		return zero, errors.New("model returned a nil result channel")
	}
	select {
	case r, ok := <-ch:
		if !ok {
			return zero, errors.New("model closed the result channel without a result")
		}
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// viaCallback runs invoke and waits for the first call to its completion
// callback. Later calls are ignored.
func viaCallback[T any](ctx context.Context, invoke func(done func(T, error))) (T, error) {
	ch := make(chan Result[T], 1)
	var once sync.Once
	invoke(func(v T, err error) {
		once.Do(func() {
			ch <- Result[T]{Value: v, Err: err}
		})
	})
	return await(ctx, ch)
}

func unsupported(hook string, fn any) error {
	return fmt.Errorf("[model.NewFuncs] %s has an unsupported signature %T", hook, fn)
}

func missingHook(hook string) error {
	return fmt.Errorf("model does not implement %s", hook)
}

func adaptGetAccessToken(fn any) (getAccessTokenFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, string) (*AccessToken, error):
		return f, nil
	case func(context.Context, string) <-chan Result[*AccessToken]:
		return func(ctx context.Context, token string) (*AccessToken, error) {
			return await(ctx, f(ctx, token))
		}, nil
	case func(context.Context, string, func(*AccessToken, error)):
		return func(ctx context.Context, token string) (*AccessToken, error) {
			return viaCallback(ctx, func(done func(*AccessToken, error)) { f(ctx, token, done) })
		}, nil
	}
	return nil, unsupported("GetAccessToken", fn)
}

func adaptGetClient(fn any) (getClientFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, string, string) (*clients.Client, error):
		return f, nil
	case func(context.Context, string, string) <-chan Result[*clients.Client]:
		return func(ctx context.Context, id, secret string) (*clients.Client, error) {
			return await(ctx, f(ctx, id, secret))
		}, nil
	case func(context.Context, string, string, func(*clients.Client, error)):
		return func(ctx context.Context, id, secret string) (*clients.Client, error) {
			return viaCallback(ctx, func(done func(*clients.Client, error)) { f(ctx, id, secret, done) })
		}, nil
	}
	return nil, unsupported("GetClient", fn)
}

func adaptSaveAuthorizationCode(fn any) (saveAuthorizationCodeFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, *AuthorizationCode, *clients.Client, User) (*AuthorizationCode, error):
		return f, nil
	case func(context.Context, *AuthorizationCode, *clients.Client, User) <-chan Result[*AuthorizationCode]:
		return func(ctx context.Context, code *AuthorizationCode, client *clients.Client, user User) (*AuthorizationCode, error) {
			return await(ctx, f(ctx, code, client, user))
		}, nil
	case func(context.Context, *AuthorizationCode, *clients.Client, User, func(*AuthorizationCode, error)):
		return func(ctx context.Context, code *AuthorizationCode, client *clients.Client, user User) (*AuthorizationCode, error) {
			return viaCallback(ctx, func(done func(*AuthorizationCode, error)) { f(ctx, code, client, user, done) })
		}, nil
	}
	return nil, unsupported("SaveAuthorizationCode", fn)
}

func adaptValidateScope(fn any) (validateScopeFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, User, *clients.Client, string) (string, bool, error):
		return func(ctx context.Context, user User, client *clients.Client, scope string) (ScopeResult, error) {
			s, ok, err := f(ctx, user, client, scope)
			return ScopeResult{Scope: s, Valid: ok}, err
		}, nil
	case func(context.Context, User, *clients.Client, string) <-chan Result[ScopeResult]:
		return func(ctx context.Context, user User, client *clients.Client, scope string) (ScopeResult, error) {
			return await(ctx, f(ctx, user, client, scope))
		}, nil
	case func(context.Context, User, *clients.Client, string, func(ScopeResult, error)):
		return func(ctx context.Context, user User, client *clients.Client, scope string) (ScopeResult, error) {
			return viaCallback(ctx, func(done func(ScopeResult, error)) { f(ctx, user, client, scope, done) })
		}, nil
	}
	return nil, unsupported(hookValidateScope, fn)
}

func adaptGenerateCode(fn any) (generateCodeFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, *clients.Client, User, string) (string, error):
		return f, nil
	case func(context.Context, *clients.Client, User, string) <-chan Result[string]:
		return func(ctx context.Context, client *clients.Client, user User, scope string) (string, error) {
			return await(ctx, f(ctx, client, user, scope))
		}, nil
	case func(context.Context, *clients.Client, User, string, func(string, error)):
		return func(ctx context.Context, client *clients.Client, user User, scope string) (string, error) {
			return viaCallback(ctx, func(done func(string, error)) { f(ctx, client, user, scope, done) })
		}, nil
	}
	return nil, unsupported(hookGenerateAuthorizationCode, fn)
}

func adaptValidateRedirectURI(fn any) (validateRedirectURIFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, string, *clients.Client) (bool, error):
		return f, nil
	case func(context.Context, string, *clients.Client) <-chan Result[bool]:
		return func(ctx context.Context, uri string, client *clients.Client) (bool, error) {
			return await(ctx, f(ctx, uri, client))
		}, nil
	case func(context.Context, string, *clients.Client, func(bool, error)):
		return func(ctx context.Context, uri string, client *clients.Client) (bool, error) {
			return viaCallback(ctx, func(done func(bool, error)) { f(ctx, uri, client, done) })
		}, nil
	}
	return nil, unsupported(hookValidateRedirectURI, fn)
}

func adaptVerifyScope(fn any) (verifyScopeFunc, error) {
	switch f := fn.(type) {
	case func(context.Context, *AccessToken, string) (bool, error):
		return f, nil
	case func(context.Context, *AccessToken, string) <-chan Result[bool]:
		return func(ctx context.Context, token *AccessToken, scope string) (bool, error) {
			return await(ctx, f(ctx, token, scope))
		}, nil
	case func(context.Context, *AccessToken, string, func(bool, error)):
		return func(ctx context.Context, token *AccessToken, scope string) (bool, error) {
			return viaCallback(ctx, func(done func(bool, error)) { f(ctx, token, scope, done) })
		}, nil
	}
	return nil, unsupported(hookVerifyScope, fn)
}
