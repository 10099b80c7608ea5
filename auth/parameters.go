package auth

import (
	"regexp"

	"github.com/jrsteele09/go-authorize-server/oauth2"
)

// source is where a request field can be read from.
type source int

const (
	fromBody source = iota
	fromQuery
)

// fieldSources is the lookup order per authorization request field. The
// first non-empty value wins.
var fieldSources = map[string][]source{
	oauth2.ParamAllowed:             {fromBody, fromQuery},
	oauth2.ParamClientID:            {fromBody, fromQuery},
	oauth2.ParamRedirectURI:         {fromBody, fromQuery},
	oauth2.ParamResponseType:        {fromBody, fromQuery},
	oauth2.ParamScope:               {fromBody, fromQuery},
	oauth2.ParamState:               {fromBody, fromQuery},
	oauth2.ParamCodeChallenge:       {fromBody, fromQuery},
	oauth2.ParamCodeChallengeMethod: {fromBody, fromQuery},
}

var codeChallengePattern = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)

// param returns the value of field following its lookup order. Empty values
// count as absent.
func param(req *oauth2.Request, field string) string {
	for _, src := range fieldSources[field] {
		var v string
		switch src {
		case fromBody:
			v = req.Body.Get(field)
		case fromQuery:
			v = req.Query.Get(field)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

// consentDenied reports whether the resource owner declined. A literal
// "false" in either the body or the query denies, even when the other source
// says "true". Unlike param, this is not a first-non-empty lookup.
func consentDenied(req *oauth2.Request) bool {
	for _, src := range fieldSources[oauth2.ParamAllowed] {
		switch src {
		case fromBody:
			if req.Body.Get(oauth2.ParamAllowed) == "false" {
				return true
			}
		case fromQuery:
			if req.Query.Get(oauth2.ParamAllowed) == "false" {
				return true
			}
		}
	}
	return false
}

// isVSChar reports whether s is non-empty printable ASCII (0x20-0x7E).
func isVSChar(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// scopeParam returns the requested scope, empty when none was given.
func scopeParam(req *oauth2.Request) (string, error) {
	scope := param(req, oauth2.ParamScope)
	if scope == "" {
		return "", nil
	}
	if !isVSChar(scope) {
		return "", ErrInvalidScopeParam
	}
	return scope, nil
}

// stateParam returns the request state, empty when none was given and empty
// state is allowed.
func stateParam(req *oauth2.Request, allowEmpty bool) (string, error) {
	state := param(req, oauth2.ParamState)
	if state == "" {
		if allowEmpty {
			return "", nil
		}
		return "", ErrMissingState
	}
	if !isVSChar(state) {
		return "", ErrInvalidState
	}
	return state, nil
}

// pkce holds the proof key parameters of a request.
type pkce struct {
	challenge string
	method    oauth2.CodeMethodType
}

// pkceParams validates the optional code challenge. The method defaults to
// plain and is only checked when a challenge is present.
func pkceParams(req *oauth2.Request) (pkce, error) {
	challenge := param(req, oauth2.ParamCodeChallenge)
	if challenge == "" {
		return pkce{}, nil
	}
	if !codeChallengePattern.MatchString(challenge) {
		return pkce{}, ErrInvalidCodeChallenge
	}
	method := oauth2.CodeMethodType(param(req, oauth2.ParamCodeChallengeMethod))
	if method == "" {
		method = oauth2.CodeMethodTypePlain
	}
	if !method.Valid() {
		return pkce{}, unsupportedChallengeMethod(string(method))
	}
	return pkce{challenge: challenge, method: method}, nil
}
