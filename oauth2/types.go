package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth2/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
// Used to prevent authorization code interception attacks (especially for public clients).
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain means no hashing, code_verifier sent directly.
	// Client sends: code_challenge = code_verifier (plaintext)
	CodeMethodTypePlain CodeMethodType = "plain"
)

// Valid reports whether the method is one the server can verify.
func (m CodeMethodType) Valid() bool {
	switch m {
	case CodeMethodTypeS256, CodeMethodTypePlain:
		return true
	}
	return false
}

// GrantType represents the OAuth 2.0 grant type a client may use.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// A client must hold this grant to use the authorization endpoint.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	RefreshTokenGrant GrantType = "refresh_token"
)

// Authorization request parameter names.
const (
	ParamAllowed             = "allowed"
	ParamClientID            = "client_id"
	ParamRedirectURI         = "redirect_uri"
	ParamResponseType        = "response_type"
	ParamScope               = "scope"
	ParamState               = "state"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamAccessToken         = "access_token"
)

// Redirect response parameter names.
const (
	ParamCode             = "code"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)
