package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes environment overrides. AUTHZ__OAUTH__AUTH_CODE_LIFETIME
// sets oauth.authCodeLifetime.
const EnvPrefix = "AUTHZ__"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	TokenConfig
	DatabaseConfig
	SeedConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type OAuthConfig interface {
	GetAuthCodeLifetime() time.Duration
	GetAllowEmptyState() bool
	GetAllowBearerTokensInQueryString() bool
}

type TokenConfig interface {
	GetTokenSigningMethod() string
	GetTokenSecret() string
	GetTokenPrivateKeyPEM() string
	GetTokenKeyID() string
	GetTokenIssuer() string
	GetAccessTokenLifetime() time.Duration
}

type DatabaseConfig interface {
	GetDatabaseDSN() string
}

type SeedConfig interface {
	GetSeedClient() SeedClient
	GetSeedUser() SeedUser
}

// SeedClient is a client registered at startup.
type SeedClient struct {
	ID           string
	Secret       string
	RedirectURIs []string
	Scopes       []string
}

// SeedUser is a resource owner registered at startup.
type SeedUser struct {
	ID    string
	Email string
}

var defaults = map[string]any{
	"server.port":                          "8080",
	"server.env":                           "DEV",
	"app.name":                             "Go Authorize Server",
	"cors.allowedOrigins":                  []string{},
	"cors.allowedMethods":                  "GET, POST",
	"cors.allowedHeaders":                  "Content-Type, Authorization",
	"oauth.authCodeLifetime":               "5m",
	"oauth.allowEmptyState":                false,
	"oauth.allowBearerTokensInQueryString": false,
	"token.signingMethod":                  "HS256",
	"token.secret":                         "",
	"token.privateKeyPem":                  "",
	"token.keyId":                          "",
	"token.issuer":                         "go-authorize-server",
	"token.accessTokenLifetime":            "1h",
	"database.dsn":                         "",
	"seed.client.id":                       "demo-client",
	"seed.client.secret":                   "",
	"seed.client.redirectUris":             []string{"http://localhost:3000/callback"},
	"seed.client.scopes":                   []string{"read", "write"},
	"seed.user.id":                         "demo-user",
	"seed.user.email":                      "demo@example.com",
}

type koanfConfig struct {
	k *koanf.Koanf
}

var _ Config = (*koanfConfig)(nil)

// Load reads configuration from the defaults, then the YAML file at path (if
// it exists), then AUTHZ__ environment variables. Later sources win.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, "[config.Load] defaults")
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "[config.Load] %s", path)
			}
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", TransformEnv), nil); err != nil {
		return nil, errors.Wrap(err, "[config.Load] environment")
	}

	c := &koanfConfig{k: k}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *koanfConfig) validate() error {
	if c.GetAuthCodeLifetime() <= 0 {
		return errors.Errorf("[config] oauth.authCodeLifetime must be a positive duration, got %q", c.k.String("oauth.authCodeLifetime"))
	}
	if c.GetAccessTokenLifetime() <= 0 {
		return errors.Errorf("[config] token.accessTokenLifetime must be a positive duration, got %q", c.k.String("token.accessTokenLifetime"))
	}
	return nil
}

// TransformEnv maps AUTHZ__SEED__CLIENT__REDIRECT_URIS to
// seed.client.redirectUris: double underscores separate keys, single
// underscores become camel case.
func TransformEnv(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	segments := strings.Split(s, "__")
	for i, segment := range segments {
		parts := strings.Split(segment, "_")
		for j := 1; j < len(parts); j++ {
			parts[j] = capitalize(parts[j])
		}
		segments[i] = strings.Join(parts, "")
	}
	return strings.Join(segments, ".")
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// stringsAt accepts a YAML list or a comma separated string.
func (c *koanfConfig) stringsAt(key string) []string {
	var raw []string
	switch v := c.k.Get(key).(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(v, ",")
	}
	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
