package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/finsim/acs-emulator/acscrypto"
)

type signedContentHeader struct {
	Alg string   `json:"alg"`
	X5c []string `json:"x5c"`
}

// EncodeSignedContent wraps an already base64url-encoded payload in a
// compact PS256 JWS whose x5c header carries the ACS signing certificate.
func EncodeSignedContent(payloadB64 string, keys *acscrypto.SigningKeys) (string, error) {
	headerJSON, err := json.Marshal(signedContentHeader{Alg: "PS256", X5c: []string{keys.Certificate}})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal signed content header")
	}

	signingInput := fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(headerJSON), payloadB64)
	signature, err := jwt.SigningMethodPS256.Sign(signingInput, keys.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign content")
	}

	return fmt.Sprintf("%s.%s", signingInput, base64.RawURLEncoding.EncodeToString(signature)), nil
}
