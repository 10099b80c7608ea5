package auth

import (
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/oauth2"
)

// ResponseType encodes an issued authorization code into redirect query
// parameters.
type ResponseType interface {
	Encode(code *model.AuthorizationCode) oauth2.Query
}

// ResponseTypeFunc adapts a function to ResponseType.
type ResponseTypeFunc func(code *model.AuthorizationCode) oauth2.Query

func (f ResponseTypeFunc) Encode(code *model.AuthorizationCode) oauth2.Query {
	return f(code)
}

// CodeResponse is the "code" response type: code=<authorization code>.
var CodeResponse ResponseType = ResponseTypeFunc(func(code *model.AuthorizationCode) oauth2.Query {
	return oauth2.Query{}.Add(oauth2.ParamCode, code.AuthorizationCode)
})

func defaultResponseTypes() map[oauth2.ResponseType]ResponseType {
	return map[oauth2.ResponseType]ResponseType{
		oauth2.CodeResponseType: CodeResponse,
	}
}
