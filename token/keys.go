package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// KeyPair is an asymmetric key used to sign access tokens.
type KeyPair struct {
	KeyID      string
	PrivateKey crypto.Signer
	Method     jwt.SigningMethod
}

// GenerateRSAKeyPair generates a 2048 bit or larger RSA key for RS256.
func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate RSA key")
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey, Method: jwt.SigningMethodRS256}, nil
}

// GenerateECDSAKeyPair generates a P-256 key for ES256.
func GenerateECDSAKeyPair(keyID string) (*KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate ECDSA key")
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey, Method: jwt.SigningMethodES256}, nil
}

// LoadKeyPairFromPEM parses a PKCS#1 RSA or SEC 1 EC private key.
func LoadKeyPairFromPEM(keyID, privateKeyPEM string) (*KeyPair, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse RSA private key")
		}
		return &KeyPair{KeyID: keyID, PrivateKey: key, Method: jwt.SigningMethodRS256}, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse ECDSA private key")
		}
		return &KeyPair{KeyID: keyID, PrivateKey: key, Method: jwt.SigningMethodES256}, nil
	}
	return nil, errors.Errorf("unsupported PEM block type %q", block.Type)
}

// ExportPrivateKeyPEM encodes the private key in the format LoadKeyPairFromPEM reads.
func (kp *KeyPair) ExportPrivateKeyPEM() (string, error) {
	var block *pem.Block
	switch key := kp.PrivateKey.(type) {
	case *rsa.PrivateKey:
		block = &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	case *ecdsa.PrivateKey:
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal ECDSA private key")
		}
		block = &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}
	default:
		return "", errors.New("unsupported private key type")
	}
	return string(pem.EncodeToMemory(block)), nil
}

// KeyPairSigner implements Signer with an asymmetric key.
type KeyPairSigner struct {
	keyPair *KeyPair
}

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

func (s *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(s.keyPair.Method, claims)
	if s.keyPair.KeyID != "" {
		t.Header["kid"] = s.keyPair.KeyID
	}
	signed, err := t.SignedString(s.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with asymmetric key")
	}
	return signed, nil
}

func (s *KeyPairSigner) GetVerificationKey(t *jwt.Token) (any, error) {
	if t.Method.Alg() != s.keyPair.Method.Alg() {
		return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.keyPair.PrivateKey.Public(), nil
}

func (s *KeyPairSigner) GetSigningMethod() jwt.SigningMethod {
	return s.keyPair.Method
}
