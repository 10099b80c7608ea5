package auth

import (
	"context"
	"reflect"
	"time"

	"github.com/jrsteele09/go-authorize-server/authenticate"
	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/oauth2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Stage is the last stage an authorization request completed.
type Stage string

const (
	StageStart                 Stage = "start"
	StageConsentChecked        Stage = "consent_checked"
	StageClientResolved        Stage = "client_resolved"
	StageUserResolved          Stage = "user_resolved"
	StageParamsValidated       Stage = "params_validated"
	StageResponseTypeConfirmed Stage = "response_type_confirmed"
	StageScopeApproved         Stage = "scope_approved"
	StageCodeIssued            Stage = "code_issued"
)

// Authenticator resolves the resource owner of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, req *oauth2.Request, res *oauth2.Response) (*model.AccessToken, error)
}

// AuthorizationService handles requests to the authorization endpoint.
type AuthorizationService struct {
	model           model.Model
	codeLifetime    time.Duration
	authenticator   Authenticator
	allowEmptyState bool
	responseTypes   map[oauth2.ResponseType]ResponseType
	nowTime         func() time.Time // nowTime function (injectable for testing)
	logger          zerolog.Logger
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithAuthenticator replaces the default bearer token authenticator.
func WithAuthenticator(a Authenticator) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.authenticator = a
	}
}

// WithAllowEmptyState accepts requests without a state parameter.
func WithAllowEmptyState(allow bool) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.allowEmptyState = allow
	}
}

// WithResponseType registers an additional response type.
func WithResponseType(name oauth2.ResponseType, rt ResponseType) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.responseTypes[name] = rt
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.logger = logger
	}
}

// NewAuthorizationService initializes an AuthorizationService. Codes issued by
// it expire after codeLifetime. Without WithAuthenticator the resource owner
// is resolved from a bearer token using m. A nil m, including a nil pointer
// wrapped in the interface, is rejected.
func NewAuthorizationService(m model.Model, codeLifetime time.Duration, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if isNilModel(m) {
		return nil, errors.New("[NewAuthorizationService] model is required")
	}
	if codeLifetime <= 0 {
		return nil, errors.New("[NewAuthorizationService] authorization code lifetime must be positive")
	}

	as := &AuthorizationService{
		model:         m,
		codeLifetime:  codeLifetime,
		responseTypes: defaultResponseTypes(),
		nowTime:       time.Now,
		logger:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(as)
	}

	if as.authenticator == nil {
		authenticator, err := authenticate.New(m)
		if err != nil {
			return nil, errors.Wrap(err, "[NewAuthorizationService] default authenticator")
		}
		as.authenticator = authenticator
	}
	return as, nil
}

func isNilModel(m model.Model) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// grant is the state accumulated by one authorization request.
type grant struct {
	stage        Stage
	client       *clients.Client
	target       *redirectTarget
	user         model.User
	scope        string
	state        string
	responseType ResponseType
	pkce         pkce
}

// Authorize runs the authorization request in req. On success res redirects
// to the client with the code and the saved code is returned. Errors raised
// once the client is resolved are also delivered to the client through res;
// earlier errors leave res untouched. The returned error is always an
// *oauth2.Error.
func (as *AuthorizationService) Authorize(ctx context.Context, req *oauth2.Request, res *oauth2.Response) (*model.AuthorizationCode, error) {
	g := &grant{stage: StageStart}
	code, err := as.authorize(ctx, req, res, g)
	if err == nil {
		as.logger.Debug().Str("client_id", g.client.ID).Msg("authorization code issued")
		return code, nil
	}

	oauthErr := oauth2.AsError(err)
	logEvent := as.logger.Debug()
	if oauthErr.Code == oauth2.ServerErrorCode {
		logEvent = as.logger.Error().Err(err)
	}
	logEvent = logEvent.Str("stage", string(g.stage)).Str("error", string(oauthErr.Code))

	// the redirect target is only trusted once the client is resolved
	if g.target == nil {
		logEvent.Msg("authorization request rejected")
		return nil, oauthErr
	}
	res.Redirect(errorLocation(g.target.uri, oauthErr, echoState(req, g)))
	logEvent.Str("client_id", g.client.ID).Msg("authorization error redirected")
	return nil, oauthErr
}

func (as *AuthorizationService) authorize(ctx context.Context, req *oauth2.Request, res *oauth2.Response, g *grant) (*model.AuthorizationCode, error) {
	if consentDenied(req) {
		return nil, ErrAccessDenied
	}
	g.stage = StageConsentChecked

	client, target, err := as.resolveClient(ctx, req)
	if err != nil {
		return nil, err
	}
	g.client, g.target = client, target
	g.stage = StageClientResolved

	accessToken, err := as.authenticator.Authenticate(ctx, req, res)
	if err != nil {
		return nil, err
	}
	if accessToken == nil || accessToken.User == nil {
		return nil, ErrMissingUser
	}
	g.user = accessToken.User
	g.stage = StageUserResolved

	if g.scope, err = scopeParam(req); err != nil {
		return nil, err
	}
	if g.state, err = stateParam(req, as.allowEmptyState); err != nil {
		return nil, err
	}
	g.stage = StageParamsValidated

	if g.responseType, err = as.responseType(req); err != nil {
		return nil, err
	}
	if g.pkce, err = pkceParams(req); err != nil {
		return nil, err
	}
	g.stage = StageResponseTypeConfirmed

	if g.scope, err = as.approveScope(ctx, g); err != nil {
		return nil, err
	}
	g.stage = StageScopeApproved

	code, err := as.issueCode(ctx, g)
	if err != nil {
		return nil, err
	}
	g.stage = StageCodeIssued

	res.Redirect(successLocation(g.target.uri, g.responseType, code, g.state))
	return code, nil
}

func (as *AuthorizationService) responseType(req *oauth2.Request) (ResponseType, error) {
	name := param(req, oauth2.ParamResponseType)
	if name == "" {
		return nil, ErrMissingResponseType
	}
	rt, ok := as.responseTypes[oauth2.ResponseType(name)]
	if !ok {
		return nil, ErrUnsupportedResponseType
	}
	return rt, nil
}

// approveScope applies the model's scope policy. Without one the requested
// scope is kept.
func (as *AuthorizationService) approveScope(ctx context.Context, g *grant) (string, error) {
	validator, ok := model.ScopeValidatorOf(as.model)
	if !ok {
		return g.scope, nil
	}
	scope, valid, err := validator.ValidateScope(ctx, g.user, g.client, g.scope)
	if err != nil {
		return "", err
	}
	if !valid {
		return "", ErrScopeRejected
	}
	return scope, nil
}

// echoState returns the state to send back with an error. A request that
// failed before its state was validated still gets a well-formed state back.
func echoState(req *oauth2.Request, g *grant) string {
	if g.state != "" {
		return g.state
	}
	if state := param(req, oauth2.ParamState); isVSChar(state) {
		return state
	}
	return ""
}
