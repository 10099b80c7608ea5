package auth

import (
	"net/url"

	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/oauth2"
)

// successLocation builds the redirect for an issued code.
func successLocation(target *url.URL, rt ResponseType, code *model.AuthorizationCode, state string) string {
	q := rt.Encode(code).AddIfSet(oauth2.ParamState, state)
	return q.AppendTo(target).String()
}

// errorLocation builds the redirect for a classified error. An empty
// state is omitted.
func errorLocation(target *url.URL, err *oauth2.Error, state string) string {
	q := oauth2.Query{}.
		Add(oauth2.ParamError, string(err.Code)).
		Add(oauth2.ParamErrorDescription, err.Error()).
		AddIfSet(oauth2.ParamState, state)
	return q.AppendTo(target).String()
}
