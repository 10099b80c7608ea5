package config

import (
	"strings"
	"time"
)

func (c *koanfConfig) GetPort() string {
	port := c.k.String("server.port")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (c *koanfConfig) GetAppName() string {
	return c.k.String("app.name")
}

func (c *koanfConfig) GetEnv() string {
	env := c.k.String("server.env")
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

func (c *koanfConfig) GetAuthCodeLifetime() time.Duration {
	return c.k.Duration("oauth.authCodeLifetime")
}

func (c *koanfConfig) GetAllowEmptyState() bool {
	return c.k.Bool("oauth.allowEmptyState")
}

func (c *koanfConfig) GetAllowBearerTokensInQueryString() bool {
	return c.k.Bool("oauth.allowBearerTokensInQueryString")
}

func (c *koanfConfig) GetTokenSigningMethod() string {
	return strings.ToUpper(c.k.String("token.signingMethod"))
}

func (c *koanfConfig) GetTokenSecret() string {
	return c.k.String("token.secret")
}

func (c *koanfConfig) GetTokenPrivateKeyPEM() string {
	return c.k.String("token.privateKeyPem")
}

func (c *koanfConfig) GetTokenKeyID() string {
	return c.k.String("token.keyId")
}

func (c *koanfConfig) GetTokenIssuer() string {
	return c.k.String("token.issuer")
}

func (c *koanfConfig) GetAccessTokenLifetime() time.Duration {
	return c.k.Duration("token.accessTokenLifetime")
}

func (c *koanfConfig) GetDatabaseDSN() string {
	return c.k.String("database.dsn")
}

func (c *koanfConfig) GetSeedClient() SeedClient {
	return SeedClient{
		ID:           c.k.String("seed.client.id"),
		Secret:       c.k.String("seed.client.secret"),
		RedirectURIs: c.stringsAt("seed.client.redirectUris"),
		Scopes:       c.stringsAt("seed.client.scopes"),
	}
}

func (c *koanfConfig) GetSeedUser() SeedUser {
	return SeedUser{
		ID:    c.k.String("seed.user.id"),
		Email: c.k.String("seed.user.email"),
	}
}
