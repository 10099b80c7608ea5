package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/jrsteele09/go-authorize-server/auth"
	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/oauth2"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "12345"
	testRedirectURI = "http://example.com/cb"
	testToken       = "foobar"
	testState       = "foobar"
	testChallenge   = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	codeLifetime    = 120 * time.Second
)

var testUser = struct{ ID string }{ID: "user-1"}

// testFixture records every model call made by the pipeline.
type testFixture struct {
	client     *clients.Client
	modelCalls int
	saveCalls  int
	saved      *model.AuthorizationCode
	savedCode  string // when set, replaces the code in the stored record
	funcs      model.Funcs
}

func newFixture() *testFixture {
	f := &testFixture{
		client: &clients.Client{
			ID:           testClientID,
			Grants:       []string{string(oauth2.AuthorizationCodeGrant)},
			RedirectURIs: []string{testRedirectURI},
		},
	}
	f.funcs = model.Funcs{
		GetAccessToken: func(_ context.Context, token string) (*model.AccessToken, error) {
			f.modelCalls++
			if token != testToken {
				return nil, nil
			}
			return &model.AccessToken{
				AccessToken:          token,
				AccessTokenExpiresAt: time.Now().Add(time.Hour),
				User:                 testUser,
			}, nil
		},
		GetClient: func(_ context.Context, id, secret string) (*clients.Client, error) {
			f.modelCalls++
			if id != f.client.ID || secret != "" {
				return nil, nil
			}
			return f.client, nil
		},
		SaveAuthorizationCode: func(_ context.Context, code *model.AuthorizationCode, client *clients.Client, user model.User) (*model.AuthorizationCode, error) {
			f.modelCalls++
			f.saveCalls++
			saved := *code
			if f.savedCode != "" {
				saved.AuthorizationCode = f.savedCode
			}
			saved.Client = client
			saved.User = user
			f.saved = &saved
			return &saved, nil
		},
	}
	return f
}

func (f *testFixture) service(t *testing.T, options ...auth.AuthorizationServiceOption) *auth.AuthorizationService {
	t.Helper()
	m, err := model.NewFuncs(f.funcs)
	require.NoError(t, err)
	s, err := auth.NewAuthorizationService(m, codeLifetime, options...)
	require.NoError(t, err)
	return s
}

func newRequest(body, query url.Values) *oauth2.Request {
	if body == nil {
		body = url.Values{}
	}
	if query == nil {
		query = url.Values{}
	}
	return &oauth2.Request{
		Method: http.MethodPost,
		Header: http.Header{
			"Authorization": {"Bearer " + testToken},
			"Content-Type":  {"application/x-www-form-urlencoded"},
		},
		Body:  body,
		Query: query,
	}
}

func validBody() url.Values {
	return url.Values{
		oauth2.ParamClientID:     {testClientID},
		oauth2.ParamResponseType: {"code"},
	}
}

func stateQuery() url.Values {
	return url.Values{oauth2.ParamState: {testState}}
}

func TestNewAuthorizationService(t *testing.T) {
	f := newFixture()
	m, err := model.NewFuncs(f.funcs)
	require.NoError(t, err)

	t.Run("model is required", func(t *testing.T) {
		_, err := auth.NewAuthorizationService(nil, codeLifetime)
		require.Error(t, err)

		var typedNil *model.FuncModel
		s, err := auth.NewAuthorizationService(typedNil, codeLifetime)
		require.Error(t, err)
		require.Nil(t, s)
	})

	t.Run("lifetime must be positive", func(t *testing.T) {
		_, err := auth.NewAuthorizationService(m, 0)
		require.Error(t, err)
		_, err = auth.NewAuthorizationService(m, -time.Second)
		require.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := auth.NewAuthorizationService(m, codeLifetime)
		require.NoError(t, err)
		require.NotNil(t, s)
	})
}

func TestAuthorize_Success(t *testing.T) {
	f := newFixture()
	f.savedCode = "12345"
	s := f.service(t)

	res := oauth2.NewResponse()
	code, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb?code=12345&state=foobar", res.Location())
	require.Equal(t, http.StatusFound, res.Status)
	require.Equal(t, "12345", code.AuthorizationCode)
	require.Same(t, f.client, code.Client)
	require.Same(t, f.saved, code)
	require.Equal(t, 1, f.saveCalls)
}

func TestAuthorize_RoundTrip(t *testing.T) {
	f := newFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := f.service(t, auth.WithNowTime(func() time.Time { return now }))

	state := "a b&c=d/~"
	body := validBody()
	body.Set(oauth2.ParamScope, "read write")
	res := oauth2.NewResponse()
	code, err := s.Authorize(context.Background(), newRequest(body, url.Values{oauth2.ParamState: {state}}), res)
	require.NoError(t, err)

	location, err := url.Parse(res.Location())
	require.NoError(t, err)
	require.Equal(t, code.AuthorizationCode, location.Query().Get(oauth2.ParamCode))
	require.Equal(t, state, location.Query().Get(oauth2.ParamState))
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), code.AuthorizationCode)

	require.Equal(t, now.Add(codeLifetime), code.ExpiresAt)
	require.Equal(t, testRedirectURI, code.RedirectURI)
	require.Equal(t, "read write", code.Scope)
	require.Equal(t, testUser, code.User)
}

func TestAuthorize_DefaultCodesAreUnique(t *testing.T) {
	f := newFixture()
	s := f.service(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), oauth2.NewResponse())
		require.NoError(t, err)
		require.Len(t, code.AuthorizationCode, 64)
		require.False(t, seen[code.AuthorizationCode])
		seen[code.AuthorizationCode] = true
	}
}

func TestAuthorize_ConsentDenied(t *testing.T) {
	tests := []struct {
		name  string
		body  url.Values
		query url.Values
	}{
		{name: "body", body: url.Values{oauth2.ParamAllowed: {"false"}}},
		{name: "query", query: url.Values{oauth2.ParamAllowed: {"false"}}},
		{name: "query with valid body", body: validBody(), query: url.Values{oauth2.ParamAllowed: {"false"}, oauth2.ParamState: {testState}}},
		{
			name:  "query false overrides body true",
			body:  url.Values{oauth2.ParamAllowed: {"true"}, oauth2.ParamClientID: {testClientID}, oauth2.ParamResponseType: {"code"}},
			query: url.Values{oauth2.ParamAllowed: {"false"}, oauth2.ParamState: {testState}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			s := f.service(t)
			res := oauth2.NewResponse()

			code, err := s.Authorize(context.Background(), newRequest(tt.body, tt.query), res)

			require.Nil(t, code)
			require.ErrorIs(t, err, auth.ErrAccessDenied)
			require.ErrorIs(t, err, oauth2.ErrAccessDenied)
			require.Zero(t, f.modelCalls)
			require.Empty(t, res.Location())
		})
	}

	t.Run("allowed true proceeds", func(t *testing.T) {
		f := newFixture()
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamAllowed, "true")
		_, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), oauth2.NewResponse())
		require.NoError(t, err)
	})
}

func TestAuthorize_ClientResolutionErrorsAreNotRedirected(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *testFixture, body url.Values)
		expected error
		noModel  bool
	}{
		{
			name:     "missing client_id",
			mutate:   func(_ *testFixture, body url.Values) { body.Del(oauth2.ParamClientID) },
			expected: auth.ErrMissingClientID,
			noModel:  true,
		},
		{
			name:     "non printable client_id",
			mutate:   func(_ *testFixture, body url.Values) { body.Set(oauth2.ParamClientID, "abc\x01") },
			expected: auth.ErrInvalidClientID,
			noModel:  true,
		},
		{
			name:     "relative redirect_uri",
			mutate:   func(_ *testFixture, body url.Values) { body.Set(oauth2.ParamRedirectURI, "foobar") },
			expected: auth.ErrInvalidRedirectURI,
			noModel:  true,
		},
		{
			name:     "unknown client",
			mutate:   func(_ *testFixture, body url.Values) { body.Set(oauth2.ParamClientID, "other") },
			expected: auth.ErrInvalidClientCreds,
		},
		{
			name:     "client without grants",
			mutate:   func(f *testFixture, _ url.Values) { f.client.Grants = nil },
			expected: auth.ErrMissingClientGrants,
		},
		{
			name:     "client without authorization_code grant",
			mutate:   func(f *testFixture, _ url.Values) { f.client.Grants = []string{"password"} },
			expected: auth.ErrInvalidGrantType,
		},
		{
			name:     "client without redirect uris",
			mutate:   func(f *testFixture, _ url.Values) { f.client.RedirectURIs = nil },
			expected: auth.ErrMissingClientRedirect,
		},
		{
			name:     "redirect_uri mismatch",
			mutate:   func(_ *testFixture, body url.Values) { body.Set(oauth2.ParamRedirectURI, "http://evil.example.com/cb") },
			expected: auth.ErrRedirectURIMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			body := validBody()
			tt.mutate(f, body)
			s := f.service(t)
			res := oauth2.NewResponse()

			code, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), res)

			require.Nil(t, code)
			require.ErrorIs(t, err, tt.expected)
			require.Empty(t, res.Location())
			require.Zero(t, f.saveCalls)
			if tt.noModel {
				require.Zero(t, f.modelCalls)
			}
		})
	}
}

func TestAuthorize_GetClientErrorIsServerError(t *testing.T) {
	f := newFixture()
	f.funcs.GetClient = func(context.Context, string, string) (*clients.Client, error) {
		return nil, errors.New("connection refused")
	}
	s := f.service(t)
	res := oauth2.NewResponse()

	_, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

	require.ErrorIs(t, err, oauth2.ErrServerError)
	require.EqualError(t, err, "connection refused")
	require.Empty(t, res.Location())
}

func TestAuthorize_RedirectURI(t *testing.T) {
	t.Run("registered uri other than the default", func(t *testing.T) {
		f := newFixture()
		f.client.RedirectURIs = []string{testRedirectURI, "http://example.com/other"}
		f.savedCode = "12345"
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamRedirectURI, "http://example.com/other")
		res := oauth2.NewResponse()

		code, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), res)

		require.NoError(t, err)
		require.Equal(t, "http://example.com/other", code.RedirectURI)
		require.Equal(t, "http://example.com/other?code=12345&state=foobar", res.Location())
	})

	t.Run("model hook replaces exact matching", func(t *testing.T) {
		f := newFixture()
		f.savedCode = "12345"
		var validated string
		f.funcs.ValidateRedirectURI = func(_ context.Context, uri string, _ *clients.Client, done func(bool, error)) {
			validated = uri
			done(true, nil)
		}
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamRedirectURI, "https://app.example.com/cb")
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), res)

		require.NoError(t, err)
		require.Equal(t, "https://app.example.com/cb", validated)
		require.Equal(t, "https://app.example.com/cb?code=12345&state=foobar", res.Location())
	})

	t.Run("model hook rejects", func(t *testing.T) {
		f := newFixture()
		f.funcs.ValidateRedirectURI = func(context.Context, string, *clients.Client) (bool, error) {
			return false, nil
		}
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamRedirectURI, testRedirectURI)
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), res)

		require.ErrorIs(t, err, auth.ErrRedirectURIMismatch)
		require.Empty(t, res.Location())
	})

	t.Run("existing query is kept", func(t *testing.T) {
		f := newFixture()
		f.client.RedirectURIs = []string{"http://example.com/cb?foo=bar"}
		f.savedCode = "12345"
		s := f.service(t)
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.NoError(t, err)
		require.Equal(t, "http://example.com/cb?foo=bar&code=12345&state=foobar", res.Location())
	})
}

func TestAuthorize_PostBoundaryErrorsAreRedirected(t *testing.T) {
	t.Run("unsupported response type does not save", func(t *testing.T) {
		f := newFixture()
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamResponseType, "test")
		res := oauth2.NewResponse()

		code, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), res)

		require.Nil(t, code)
		require.ErrorIs(t, err, auth.ErrUnsupportedResponseType)
		require.Equal(t, "http://example.com/cb?error=unsupported_response_type&error_description=Unsupported%20response%20type%3A%20%60response_type%60%20is%20not%20supported&state=foobar", res.Location())
		require.Equal(t, http.StatusFound, res.Status)
		require.Zero(t, f.saveCalls)
	})

	t.Run("missing state", func(t *testing.T) {
		f := newFixture()
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamResponseType, "test")
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(body, nil), res)

		require.ErrorIs(t, err, auth.ErrMissingState)
		require.Equal(t, "http://example.com/cb?error=invalid_request&error_description=Missing%20parameter%3A%20%60state%60", res.Location())
		require.Zero(t, f.saveCalls)
	})

	t.Run("scope rejected by policy", func(t *testing.T) {
		f := newFixture()
		f.funcs.ValidateScope = func(context.Context, model.User, *clients.Client, string) (string, bool, error) {
			return "", false, nil
		}
		s := f.service(t)
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.ErrorIs(t, err, auth.ErrScopeRejected)
		require.Equal(t, "http://example.com/cb?error=invalid_scope&error_description=Invalid%20scope%3A%20Requested%20scope%20is%20invalid&state=foobar", res.Location())
		require.Zero(t, f.saveCalls)
	})

	tests := []struct {
		name     string
		mutate   func(f *testFixture, req *oauth2.Request)
		expected error
	}{
		{
			name:     "no bearer token",
			mutate:   func(_ *testFixture, req *oauth2.Request) { req.Header.Del("Authorization") },
			expected: oauth2.ErrUnauthorizedRequest,
		},
		{
			name:     "unknown bearer token",
			mutate:   func(_ *testFixture, req *oauth2.Request) { req.Header.Set("Authorization", "Bearer nope") },
			expected: oauth2.ErrInvalidToken,
		},
		{
			name:     "non printable scope",
			mutate:   func(_ *testFixture, req *oauth2.Request) { req.Body.Set(oauth2.ParamScope, "read\x7f") },
			expected: auth.ErrInvalidScopeParam,
		},
		{
			name:     "missing response type",
			mutate:   func(_ *testFixture, req *oauth2.Request) { req.Body.Del(oauth2.ParamResponseType) },
			expected: auth.ErrMissingResponseType,
		},
		{
			name:     "invalid code challenge",
			mutate:   func(_ *testFixture, req *oauth2.Request) { req.Body.Set(oauth2.ParamCodeChallenge, "short") },
			expected: auth.ErrInvalidCodeChallenge,
		},
		{
			name: "unsupported challenge method",
			mutate: func(_ *testFixture, req *oauth2.Request) {
				req.Body.Set(oauth2.ParamCodeChallenge, testChallenge)
				req.Body.Set(oauth2.ParamCodeChallengeMethod, "S512")
			},
			expected: oauth2.NewError(oauth2.InvalidRequest, "Invalid request: transform algorithm 'S512' not supported"),
		},
		{
			name: "save fails",
			mutate: func(f *testFixture, _ *oauth2.Request) {
				f.funcs.SaveAuthorizationCode = func(context.Context, *model.AuthorizationCode, *clients.Client, model.User) (*model.AuthorizationCode, error) {
					return nil, errors.New("disk full")
				}
			},
			expected: oauth2.NewError(oauth2.ServerErrorCode, "disk full"),
		},
		{
			name: "save returns nothing",
			mutate: func(f *testFixture, _ *oauth2.Request) {
				f.funcs.SaveAuthorizationCode = func(context.Context, *model.AuthorizationCode, *clients.Client, model.User) (*model.AuthorizationCode, error) {
					return nil, nil
				}
			},
			expected: auth.ErrMissingSavedCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := newRequest(validBody(), stateQuery())
			tt.mutate(f, req)
			s := f.service(t)
			res := oauth2.NewResponse()

			code, err := s.Authorize(context.Background(), req, res)

			require.Nil(t, code)
			require.ErrorIs(t, err, tt.expected)

			location, perr := url.Parse(res.Location())
			require.NoError(t, perr)
			require.Equal(t, "example.com", location.Host)
			require.Equal(t, "/cb", location.Path)

			var oauthErr *oauth2.Error
			require.True(t, errors.As(err, &oauthErr))
			require.Equal(t, string(oauthErr.Code), location.Query().Get(oauth2.ParamError))
			require.Equal(t, oauthErr.Message, location.Query().Get(oauth2.ParamErrorDescription))
			require.Equal(t, testState, location.Query().Get(oauth2.ParamState))
		})
	}
}

func TestAuthorize_InvalidStateIsNotEchoed(t *testing.T) {
	f := newFixture()
	s := f.service(t)
	res := oauth2.NewResponse()

	_, err := s.Authorize(context.Background(), newRequest(validBody(), url.Values{oauth2.ParamState: {"foo\x00bar"}}), res)

	require.ErrorIs(t, err, auth.ErrInvalidState)
	require.Equal(t, "http://example.com/cb?error=invalid_request&error_description=Invalid%20parameter%3A%20%60state%60", res.Location())
}

func TestAuthorize_AllowEmptyState(t *testing.T) {
	f := newFixture()
	f.savedCode = "12345"
	s := f.service(t, auth.WithAllowEmptyState(true))
	res := oauth2.NewResponse()

	_, err := s.Authorize(context.Background(), newRequest(validBody(), nil), res)

	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb?code=12345", res.Location())
}

func TestAuthorize_ErrorEncodingIsIdempotent(t *testing.T) {
	f := newFixture()
	s := f.service(t)
	body := validBody()
	body.Set(oauth2.ParamResponseType, "token")

	first := oauth2.NewResponse()
	_, err1 := s.Authorize(context.Background(), newRequest(body, stateQuery()), first)
	second := oauth2.NewResponse()
	_, err2 := s.Authorize(context.Background(), newRequest(body, stateQuery()), second)

	require.Error(t, err1)
	require.Error(t, err2)
	require.Equal(t, first.Location(), second.Location())
}

func TestAuthorize_BodyTakesPrecedenceOverQuery(t *testing.T) {
	f := newFixture()
	f.savedCode = "12345"
	s := f.service(t)
	query := stateQuery()
	query.Set(oauth2.ParamClientID, "other")
	query.Set(oauth2.ParamResponseType, "test")
	res := oauth2.NewResponse()

	_, err := s.Authorize(context.Background(), newRequest(validBody(), query), res)

	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb?code=12345&state=foobar", res.Location())
}

func TestAuthorize_ModelHooks(t *testing.T) {
	t.Run("scope policy replaces the requested scope", func(t *testing.T) {
		f := newFixture()
		f.funcs.ValidateScope = func(_ context.Context, _ model.User, _ *clients.Client, scope string) <-chan model.Result[model.ScopeResult] {
			ch := make(chan model.Result[model.ScopeResult], 1)
			ch <- model.Result[model.ScopeResult]{Value: model.ScopeResult{Scope: scope + " profile", Valid: true}}
			return ch
		}
		s := f.service(t)
		body := validBody()
		body.Set(oauth2.ParamScope, "read")

		code, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), oauth2.NewResponse())

		require.NoError(t, err)
		require.Equal(t, "read profile", code.Scope)
	})

	t.Run("scope policy error", func(t *testing.T) {
		f := newFixture()
		f.funcs.ValidateScope = func(_ context.Context, _ model.User, _ *clients.Client, _ string, done func(model.ScopeResult, error)) {
			done(model.ScopeResult{}, errors.New("policy unavailable"))
		}
		s := f.service(t)
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.ErrorIs(t, err, oauth2.ErrServerError)
		require.Contains(t, res.Location(), "error=server_error&error_description=policy%20unavailable")
	})

	t.Run("code generator", func(t *testing.T) {
		f := newFixture()
		f.funcs.GenerateAuthorizationCode = func(_ context.Context, client *clients.Client, user model.User, _ string) (string, error) {
			return "generated-" + client.ID, nil
		}
		s := f.service(t)
		res := oauth2.NewResponse()

		code, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.NoError(t, err)
		require.Equal(t, "generated-12345", code.AuthorizationCode)
		require.Equal(t, "http://example.com/cb?code=generated-12345&state=foobar", res.Location())
	})

	t.Run("asynchronous client lookup and save", func(t *testing.T) {
		f := newFixture()
		client := f.client
		f.funcs.GetClient = func(_ context.Context, id, _ string, done func(*clients.Client, error)) {
			go done(client, nil)
		}
		f.funcs.SaveAuthorizationCode = func(_ context.Context, code *model.AuthorizationCode, c *clients.Client, user model.User) <-chan model.Result[*model.AuthorizationCode] {
			ch := make(chan model.Result[*model.AuthorizationCode], 1)
			go func() {
				saved := *code
				saved.Client = c
				ch <- model.Result[*model.AuthorizationCode]{Value: &saved}
			}()
			return ch
		}
		s := f.service(t)
		res := oauth2.NewResponse()

		code, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.NoError(t, err)
		require.Same(t, client, code.Client)
		require.Contains(t, res.Location(), "code="+code.AuthorizationCode)
	})
}

func TestAuthorize_PKCE(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedMethod string
	}{
		{name: "default method", method: "", expectedMethod: "plain"},
		{name: "plain", method: "plain", expectedMethod: "plain"},
		{name: "S256", method: "S256", expectedMethod: "S256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			s := f.service(t)
			body := validBody()
			body.Set(oauth2.ParamCodeChallenge, testChallenge)
			if tt.method != "" {
				body.Set(oauth2.ParamCodeChallengeMethod, tt.method)
			}

			code, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), oauth2.NewResponse())

			require.NoError(t, err)
			require.Equal(t, testChallenge, code.CodeChallenge)
			require.Equal(t, tt.expectedMethod, code.CodeChallengeMethod)
		})
	}

	t.Run("no challenge", func(t *testing.T) {
		f := newFixture()
		s := f.service(t)

		code, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), oauth2.NewResponse())

		require.NoError(t, err)
		require.Empty(t, code.CodeChallenge)
		require.Empty(t, code.CodeChallengeMethod)
	})
}

type stubAuthenticator struct {
	token *model.AccessToken
	err   error
}

func (s stubAuthenticator) Authenticate(context.Context, *oauth2.Request, *oauth2.Response) (*model.AccessToken, error) {
	return s.token, s.err
}

func TestAuthorize_CustomAuthenticator(t *testing.T) {
	t.Run("user is required", func(t *testing.T) {
		f := newFixture()
		s := f.service(t, auth.WithAuthenticator(stubAuthenticator{token: &model.AccessToken{}}))
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.ErrorIs(t, err, auth.ErrMissingUser)
		require.Contains(t, res.Location(), "error=server_error")
	})

	t.Run("authenticator error is redirected", func(t *testing.T) {
		f := newFixture()
		s := f.service(t, auth.WithAuthenticator(stubAuthenticator{err: oauth2.NewError(oauth2.InvalidToken, "Invalid token: access token has expired")}))
		res := oauth2.NewResponse()

		_, err := s.Authorize(context.Background(), newRequest(validBody(), stateQuery()), res)

		require.ErrorIs(t, err, oauth2.ErrInvalidToken)
		require.Equal(t, "http://example.com/cb?error=invalid_token&error_description=Invalid%20token%3A%20access%20token%20has%20expired&state=foobar", res.Location())
	})

	t.Run("user from authenticator is saved", func(t *testing.T) {
		f := newFixture()
		user := &struct{ Name string }{Name: "jane"}
		s := f.service(t, auth.WithAuthenticator(stubAuthenticator{token: &model.AccessToken{User: user}}))
		req := newRequest(validBody(), stateQuery())
		req.Header.Del("Authorization")

		code, err := s.Authorize(context.Background(), req, oauth2.NewResponse())

		require.NoError(t, err)
		require.Same(t, user, code.User)
	})
}

func TestAuthorize_CustomResponseType(t *testing.T) {
	f := newFixture()
	f.savedCode = "12345"
	s := f.service(t, auth.WithResponseType("code_id", auth.ResponseTypeFunc(func(code *model.AuthorizationCode) oauth2.Query {
		return oauth2.Query{}.Add(oauth2.ParamCode, code.AuthorizationCode).Add("client", code.Client.ID)
	})))
	body := validBody()
	body.Set(oauth2.ParamResponseType, "code_id")
	res := oauth2.NewResponse()

	_, err := s.Authorize(context.Background(), newRequest(body, stateQuery()), res)

	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb?code=12345&client=12345&state=foobar", res.Location())
}
