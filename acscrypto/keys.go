package acscrypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"

	acserr "github.com/finsim/acs-emulator/internal/errors"
)

// ECKeyPair holds an ephemeral P-256 key pair used for the in-app channel
// key agreement.
type ECKeyPair struct {
	PrivateKey *ecdh.PrivateKey
	PublicKey  *ecdh.PublicKey
}

// ECPublicKeyJWK is the JWK representation of a P-256 public key, the format
// the SDK and the ACS exchange ephemeral keys in.
type ECPublicKeyJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// GenerateECKeyPair generates a new ephemeral P-256 key pair.
func GenerateECKeyPair() (*ECKeyPair, error) {
	privateKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate P-256 key")
	}
	return &ECKeyPair{
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// ComputeECDHSecret returns the raw X coordinate of the ECDH shared point
// (32 bytes for P-256).
func ComputeECDHSecret(privateKey *ecdh.PrivateKey, peerPublicKey *ecdh.PublicKey) ([]byte, error) {
	secret, err := privateKey.ECDH(peerPublicKey)
	if err != nil {
		return nil, errors.Wrap(acserr.ErrInvalidKey, err.Error())
	}
	return secret, nil
}

// SerializePublicKey converts a P-256 public key to its JWK form. The
// uncompressed point encoding is 0x04 || X || Y.
func SerializePublicKey(publicKey *ecdh.PublicKey) ECPublicKeyJWK {
	point := publicKey.Bytes()
	return ECPublicKeyJWK{
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(point[1:33]),
		Y:   base64.RawURLEncoding.EncodeToString(point[33:65]),
	}
}

// DeserializePublicKey converts a JWK back into a P-256 public key. It fails
// with ErrInvalidKey when the coordinates do not name a point on the curve.
func DeserializePublicKey(jwk ECPublicKeyJWK) (*ecdh.PublicKey, error) {
	x, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, errors.Wrap(acserr.ErrInvalidKey, "x coordinate is not base64url")
	}
	y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, errors.Wrap(acserr.ErrInvalidKey, "y coordinate is not base64url")
	}
	if len(x) != 32 || len(y) != 32 {
		return nil, errors.Wrap(acserr.ErrInvalidKey, "coordinates must be 32 bytes")
	}

	point := make([]byte, 0, 65)
	point = append(point, 0x04)
	point = append(point, x...)
	point = append(point, y...)

	publicKey, err := ecdh.P256().NewPublicKey(point)
	if err != nil {
		return nil, errors.Wrap(acserr.ErrInvalidKey, err.Error())
	}
	return publicKey, nil
}
