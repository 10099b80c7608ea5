package auth

import "github.com/jrsteele09/go-authorize-server/oauth2"

var (
	ErrAccessDenied            = oauth2.NewError(oauth2.AccessDenied, "Access denied: user denied access to application")
	ErrMissingClientID         = oauth2.NewError(oauth2.InvalidRequest, "Missing parameter: `client_id`")
	ErrInvalidClientID         = oauth2.NewError(oauth2.InvalidRequest, "Invalid parameter: `client_id`")
	ErrInvalidRedirectURI      = oauth2.NewError(oauth2.InvalidRequest, "Invalid request: `redirect_uri` is not a valid URI")
	ErrInvalidClientCreds      = oauth2.NewError(oauth2.InvalidClient, "Invalid client: client credentials are invalid")
	ErrMissingClientGrants     = oauth2.NewError(oauth2.InvalidClient, "Invalid client: missing client `grants`")
	ErrInvalidGrantType        = oauth2.NewError(oauth2.UnauthorizedClient, "Unauthorized client: `grant_type` is invalid")
	ErrMissingClientRedirect   = oauth2.NewError(oauth2.InvalidClient, "Invalid client: missing client `redirectUri`")
	ErrRedirectURIMismatch     = oauth2.NewError(oauth2.InvalidClient, "Invalid client: `redirect_uri` does not match client value")
	ErrMissingUser             = oauth2.NewError(oauth2.ServerErrorCode, "Server error: `handle()` did not return a `user` object")
	ErrInvalidScopeParam       = oauth2.NewError(oauth2.InvalidScope, "Invalid parameter: `scope`")
	ErrMissingState            = oauth2.NewError(oauth2.InvalidRequest, "Missing parameter: `state`")
	ErrInvalidState            = oauth2.NewError(oauth2.InvalidRequest, "Invalid parameter: `state`")
	ErrMissingResponseType     = oauth2.NewError(oauth2.InvalidRequest, "Missing parameter: `response_type`")
	ErrUnsupportedResponseType = oauth2.NewError(oauth2.UnsupportedResponseType, "Unsupported response type: `response_type` is not supported")
	ErrInvalidCodeChallenge    = oauth2.NewError(oauth2.InvalidRequest, "Invalid parameter: `code_challenge`")
	ErrScopeRejected           = oauth2.NewError(oauth2.InvalidScope, "Invalid scope: Requested scope is invalid")
	ErrMissingSavedCode        = oauth2.NewError(oauth2.ServerErrorCode, "Server error: `saveAuthorizationCode()` did not return an authorization code")
)

// unsupportedChallengeMethod is raised for a code_challenge_method other than
// S256 or plain.
func unsupportedChallengeMethod(method string) *oauth2.Error {
	return oauth2.NewError(oauth2.InvalidRequest, "Invalid request: transform algorithm '"+method+"' not supported")
}
