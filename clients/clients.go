package clients

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound     = errors.New("client not found")
	ErrInvalidScope = errors.New("scope not allowed for client")
)

// Client is a registered OAuth2 client application.
type Client struct {
	ID           string   `json:"id"`
	Description  string   `json:"description,omitempty"`
	Secret       string   `json:"-"`            // bcrypt hash, never serialized
	Grants       []string `json:"grants"`       // Grant types the client may use
	RedirectURIs []string `json:"redirectURIs"` // First entry is the default
	Scopes       []string `json:"scopes"`       // Allowed scopes, empty means unrestricted
}

// HasGrant reports whether the client is authorized for the grant type.
func (c *Client) HasGrant(grant string) bool {
	for _, g := range c.Grants {
		if g == grant {
			return true
		}
	}
	return false
}

// HasRedirectURI reports whether uri exactly matches a registered redirect URI.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// DefaultRedirectURI returns the first registered redirect URI.
func (c *Client) DefaultRedirectURI() string {
	if len(c.RedirectURIs) == 0 {
		return ""
	}
	return c.RedirectURIs[0]
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateScopes checks if all requested scopes are allowed for this client.
// A client without registered scopes accepts any scope.
func (c *Client) ValidateScopes(requestedScopes string) error {
	if requestedScopes == "" || len(c.Scopes) == 0 {
		return nil
	}
	for _, scope := range strings.Fields(requestedScopes) {
		if !c.HasScope(scope) {
			return ErrInvalidScope
		}
	}
	return nil
}

// CheckSecret compares a plaintext secret with the stored hash.
func (c *Client) CheckSecret(secret string) bool {
	if c.Secret == "" {
		return secret == ""
	}
	return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(secret)) == nil
}

// HashSecret hashes a plaintext client secret for storage.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}
