package envelope_test

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsim/acs-emulator/acscrypto"
	"github.com/finsim/acs-emulator/envelope"
)

func TestEncodeSignedContent(t *testing.T) {
	keys, err := acscrypto.GenerateSigningKeys()
	require.NoError(t, err)

	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"acsURL":"http://localhost:8080/acs/sdk/challenge"}`))
	jws, err := envelope.EncodeSignedContent(payload, keys)
	require.NoError(t, err)

	parts := strings.Split(jws, ".")
	require.Len(t, parts, 3)
	require.Equal(t, payload, parts[1], "payload must pass through untouched")

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var header struct {
		Alg string   `json:"alg"`
		X5c []string `json:"x5c"`
	}
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	require.Equal(t, "PS256", header.Alg)
	require.Equal(t, []string{keys.Certificate}, header.X5c)

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	err = rsa.VerifyPSS(&keys.PrivateKey.PublicKey, crypto.SHA256, digest[:], signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto})
	require.NoError(t, err, "signature must verify under RSASSA-PSS with SHA-256")
}
