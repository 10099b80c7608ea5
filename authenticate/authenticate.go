// Package authenticate resolves the resource owner behind a request from its
// bearer access token (RFC 6750).
package authenticate

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/oauth2"
	"github.com/pkg/errors"
)

const realm = `Bearer realm="Service"`

var bearerHeader = regexp.MustCompile(`^Bearer\s(\S+)$`)

var (
	ErrMultipleMethods  = oauth2.NewError(oauth2.InvalidRequest, "Invalid request: only one authentication method is allowed")
	ErrNoAuthentication = oauth2.NewError(oauth2.UnauthorizedRequest, "Unauthorized request: no authentication given")
	ErrMalformedHeader  = oauth2.NewError(oauth2.InvalidRequest, "Invalid request: malformed authorization header")
	ErrTokenInQuery     = oauth2.NewError(oauth2.InvalidRequest, "Invalid request: do not send bearer tokens in query URLs")
	ErrTokenInGETBody   = oauth2.NewError(oauth2.InvalidRequest, "Invalid request: token may not be passed in the body when using the GET verb")
	ErrBodyContentType  = oauth2.NewError(oauth2.InvalidRequest, "Invalid request: content must be application/x-www-form-urlencoded")
	ErrInvalidToken     = oauth2.NewError(oauth2.InvalidToken, "Invalid token: access token is invalid")
	ErrExpiredToken     = oauth2.NewError(oauth2.InvalidToken, "Invalid token: access token has expired")
	ErrMissingUser      = oauth2.NewError(oauth2.ServerErrorCode, "Server error: `getAccessToken()` did not return a `user` object")
	ErrMissingExpiry    = oauth2.NewError(oauth2.ServerErrorCode, "Server error: `accessTokenExpiresAt` must be a Date instance")
	ErrInsufficient     = oauth2.NewError(oauth2.InsufficientScope, "Insufficient scope: authorized scope is insufficient")
)

// Handler authenticates requests against a model.
type Handler struct {
	model                          model.Model
	scope                          string
	verifier                       model.AccessScopeVerifier
	allowBearerTokensInQueryString bool
	addAcceptedScopesHeader        bool
	addAuthorizedScopesHeader      bool
	nowTime                        func() time.Time
}

type Option func(*Handler)

// WithScope requires the token to carry scope. The model must implement
// model.AccessScopeVerifier.
func WithScope(scope string) Option {
	return func(h *Handler) {
		h.scope = scope
	}
}

// WithAllowBearerTokensInQueryString permits the access_token query parameter.
func WithAllowBearerTokensInQueryString(allow bool) Option {
	return func(h *Handler) {
		h.allowBearerTokensInQueryString = allow
	}
}

// WithScopeHeaders controls the X-Accepted-OAuth-Scopes and X-OAuth-Scopes
// response headers written when a scope is required.
func WithScopeHeaders(accepted, authorized bool) Option {
	return func(h *Handler) {
		h.addAcceptedScopesHeader = accepted
		h.addAuthorizedScopesHeader = authorized
	}
}

// WithNowTime sets the clock used for expiry checks (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(h *Handler) {
		h.nowTime = nowFunc
	}
}

func New(m model.Model, options ...Option) (*Handler, error) {
	if m == nil {
		return nil, errors.New("[authenticate.New] model is required")
	}
	h := &Handler{
		model:                     m,
		addAcceptedScopesHeader:   true,
		addAuthorizedScopesHeader: true,
		nowTime:                   time.Now,
	}
	for _, opt := range options {
		opt(h)
	}
	if h.scope != "" {
		verifier, ok := model.AccessScopeVerifierOf(m)
		if !ok {
			return nil, errors.New("[authenticate.New] model does not implement VerifyScope")
		}
		h.verifier = verifier
	}
	return h, nil
}

// Authenticate returns the access token presented with req. Failures are
// classified errors; the WWW-Authenticate header is set on res where RFC 6750
// asks for it.
func (h *Handler) Authenticate(ctx context.Context, req *oauth2.Request, res *oauth2.Response) (*model.AccessToken, error) {
	accessToken, err := h.authenticate(ctx, req, res)
	if err != nil {
		oauthErr := oauth2.AsError(err)
		setChallenge(res, oauthErr)
		return nil, oauthErr
	}
	return accessToken, nil
}

func (h *Handler) authenticate(ctx context.Context, req *oauth2.Request, res *oauth2.Response) (*model.AccessToken, error) {
	raw, err := h.tokenFromRequest(req)
	if err != nil {
		return nil, err
	}
	accessToken, err := h.model.GetAccessToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if accessToken == nil {
		return nil, ErrInvalidToken
	}
	if accessToken.User == nil {
		return nil, ErrMissingUser
	}
	if accessToken.AccessTokenExpiresAt.IsZero() {
		return nil, ErrMissingExpiry
	}
	if accessToken.AccessTokenExpiresAt.Before(h.nowTime()) {
		return nil, ErrExpiredToken
	}
	if h.scope != "" {
		ok, err := h.verifier.VerifyScope(ctx, accessToken, h.scope)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficient
		}
		if h.addAcceptedScopesHeader {
			res.SetHeader("X-Accepted-OAuth-Scopes", h.scope)
		}
		if h.addAuthorizedScopesHeader {
			res.SetHeader("X-OAuth-Scopes", accessToken.Scope)
		}
	}
	return accessToken, nil
}

// tokenFromRequest extracts the bearer token. Exactly one of the header,
// query and body methods may be used.
func (h *Handler) tokenFromRequest(req *oauth2.Request) (string, error) {
	headerToken := req.HeaderValue("Authorization")
	queryToken := req.Query.Get(oauth2.ParamAccessToken)
	bodyToken := req.Body.Get(oauth2.ParamAccessToken)

	present := 0
	for _, t := range []string{headerToken, queryToken, bodyToken} {
		if t != "" {
			present++
		}
	}
	if present > 1 {
		return "", ErrMultipleMethods
	}

	switch {
	case headerToken != "":
		m := bearerHeader.FindStringSubmatch(headerToken)
		if m == nil {
			return "", ErrMalformedHeader
		}
		return m[1], nil
	case queryToken != "":
		if !h.allowBearerTokensInQueryString {
			return "", ErrTokenInQuery
		}
		return queryToken, nil
	case bodyToken != "":
		if req.Method == http.MethodGet {
			return "", ErrTokenInGETBody
		}
		if !req.IsContentType("application/x-www-form-urlencoded") {
			return "", ErrBodyContentType
		}
		return bodyToken, nil
	}
	return "", ErrNoAuthentication
}

func setChallenge(res *oauth2.Response, err *oauth2.Error) {
	if res == nil {
		return
	}
	switch err.Code {
	case oauth2.UnauthorizedRequest:
		res.SetHeader("WWW-Authenticate", realm)
	case oauth2.InvalidRequest, oauth2.InvalidToken, oauth2.InsufficientScope:
		res.SetHeader("WWW-Authenticate", realm+`,error="`+string(err.Code)+`"`)
	}
}
