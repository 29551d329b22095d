package acscrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// SigningKeys is the long-lived RSA pair used to sign the ACS signed
// content on the in-app channel. Certificate is the base64 DER form placed
// in the JWS x5c header.
type SigningKeys struct {
	PrivateKey  *rsa.PrivateKey
	Certificate string
}

// RSAPSSSign signs SHA-256(message) with RSASSA-PSS, salt length equal to
// the digest length, MGF1/SHA-256.
func RSAPSSSign(privateKey *rsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	signature, err := rsa.SignPSS(rand.Reader, privateKey, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign with RSA-PSS")
	}
	return signature, nil
}

// LoadSigningKeys reads the PEM-encoded RSA private key and certificate
// from disk. Secret retrieval itself (vault, KMS) is outside this emulator;
// the files are expected to have been provisioned by the deployment.
func LoadSigningKeys(keyPath, certPath string) (*SigningKeys, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read signing key %q", keyPath)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse RSA signing key")
	}

	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read signing certificate %q", certPath)
	}
	certificate, err := EncodeCertificate(certData)
	if err != nil {
		return nil, err
	}

	return &SigningKeys{PrivateKey: privateKey, Certificate: certificate}, nil
}

// EncodeCertificate converts a PEM certificate into the base64 DER string
// used in the x5c header. Already-encoded input is passed through.
func EncodeCertificate(certData []byte) (string, error) {
	text := strings.TrimSpace(string(certData))
	if !strings.Contains(text, "-----BEGIN") {
		return text, nil
	}
	block, _ := pem.Decode(certData)
	if block == nil {
		return "", errors.New("signing certificate is not valid PEM")
	}
	return base64.StdEncoding.EncodeToString(block.Bytes), nil
}
