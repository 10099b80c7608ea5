package token

import (
	"github.com/pkg/errors"
)

// Signing methods selectable from configuration.
const (
	MethodHS256 = "HS256"
	MethodRS256 = "RS256"
	MethodES256 = "ES256"
)

// SignerConfig selects and keys an access token signer.
type SignerConfig struct {
	Method        string // HS256 (default), RS256 or ES256
	Secret        string // HMAC secret
	PrivateKeyPEM string // asymmetric key; generated when empty
	KeyID         string
}

// NewSigner builds the signer described by cfg. Asymmetric signers without a
// configured key get a freshly generated one, so tokens do not survive a
// restart.
func NewSigner(cfg SignerConfig) (Signer, error) {
	switch cfg.Method {
	case "", MethodHS256:
		if cfg.Secret == "" {
			return nil, errors.New("[token.NewSigner] HS256 requires a secret")
		}
		return NewHMACSigner(cfg.Secret), nil

	case MethodRS256, MethodES256:
		keyPair, err := keyPairFor(cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "[token.NewSigner] %s key", cfg.Method)
		}
		if keyPair.Method.Alg() != cfg.Method {
			return nil, errors.Errorf("[token.NewSigner] key is for %s, not %s", keyPair.Method.Alg(), cfg.Method)
		}
		return NewKeyPairSigner(keyPair), nil
	}
	return nil, errors.Errorf("[token.NewSigner] unsupported signing method %q", cfg.Method)
}

func keyPairFor(cfg SignerConfig) (*KeyPair, error) {
	if cfg.PrivateKeyPEM != "" {
		return LoadKeyPairFromPEM(cfg.KeyID, cfg.PrivateKeyPEM)
	}
	if cfg.Method == MethodES256 {
		return GenerateECDSAKeyPair(cfg.KeyID)
	}
	return GenerateRSAKeyPair(cfg.KeyID, 2048)
}
