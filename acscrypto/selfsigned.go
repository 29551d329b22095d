package acscrypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// GenerateSigningKeys creates an ephemeral RSA pair with a self-signed
// certificate. Used when no provisioned key material is configured, so the
// emulator starts cold; clients that pin the ACS certificate must supply
// real files instead.
func GenerateSigningKeys() (*SigningKeys, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate RSA key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, errors.Wrap(err, "failed to draw certificate serial")
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "ACS Emulator Signing"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to self-sign certificate")
	}

	return &SigningKeys{
		PrivateKey:  privateKey,
		Certificate: base64.StdEncoding.EncodeToString(certDER),
	}, nil
}
