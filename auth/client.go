package auth

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-authorize-server/clients"
	"github.com/jrsteele09/go-authorize-server/model"
	"github.com/jrsteele09/go-authorize-server/oauth2"
)

// redirectTarget is the URI a client's outcome is delivered to. It only
// exists once the client has been resolved.
type redirectTarget struct {
	raw string
	uri *url.URL
}

// resolveClient looks up the client named by the request and settles the
// redirect target. Every failure here happens before a target exists.
func (as *AuthorizationService) resolveClient(ctx context.Context, req *oauth2.Request) (*clients.Client, *redirectTarget, error) {
	clientID := param(req, oauth2.ParamClientID)
	if clientID == "" {
		return nil, nil, ErrMissingClientID
	}
	if !isVSChar(clientID) {
		return nil, nil, ErrInvalidClientID
	}

	requested := param(req, oauth2.ParamRedirectURI)
	if requested != "" && !isAbsoluteURI(requested) {
		return nil, nil, ErrInvalidRedirectURI
	}

	client, err := as.model.GetClient(ctx, clientID, "")
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, ErrInvalidClientCreds
	}
	if client.Grants == nil {
		return nil, nil, ErrMissingClientGrants
	}
	if !client.HasGrant(string(oauth2.AuthorizationCodeGrant)) {
		return nil, nil, ErrInvalidGrantType
	}
	if len(client.RedirectURIs) == 0 {
		return nil, nil, ErrMissingClientRedirect
	}

	target := client.DefaultRedirectURI()
	if requested != "" {
		ok, err := as.validateRedirectURI(ctx, requested, client)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrRedirectURIMismatch
		}
		target = requested
	}

	uri, err := url.Parse(target)
	if err != nil {
		return nil, nil, ErrInvalidRedirectURI.Wrap(err)
	}
	return client, &redirectTarget{raw: target, uri: uri}, nil
}

func (as *AuthorizationService) validateRedirectURI(ctx context.Context, redirectURI string, client *clients.Client) (bool, error) {
	if validator, ok := model.RedirectURIValidatorOf(as.model); ok {
		return validator.ValidateRedirectURI(ctx, redirectURI, client)
	}
	return client.HasRedirectURI(redirectURI), nil
}

func isAbsoluteURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}
