// Package envelope implements the compact message formats of the in-app
// challenge channel: the encrypted Envelope carrying CReq/CRes payloads and
// the signed content carrying the ACS ephemeral key.
package envelope

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/finsim/acs-emulator/acscrypto"
	acserr "github.com/finsim/acs-emulator/internal/errors"
)

const ivSize = 16

// header is the protected header of an Envelope. The channel key is
// pre-established by key agreement, so alg is "dir" and the second token
// field (the wrapped key) stays empty.
type header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Enc string `json:"enc"`
}

// KeyLookup resolves the shared channel key for the transaction named in an
// Envelope's kid header.
type KeyLookup func(kid string) ([]byte, error)

// Encode encrypts content under the 32-byte shared key and returns the
// 5-field dot-separated token. The first 16 key bytes authenticate, the
// last 16 encrypt.
func Encode(sharedKey []byte, transactionID string, content []byte) (string, error) {
	if len(sharedKey) != acscrypto.SessionKeySize {
		return "", errors.Wrap(acserr.ErrInvalidKey, "shared key must be 32 bytes")
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "failed to draw IV")
	}

	cipherText, err := acscrypto.AESCBCEncrypt(sharedKey[16:32], iv, content)
	if err != nil {
		return "", err
	}

	headerJSON, err := json.Marshal(header{Alg: "dir", Kid: transactionID, Enc: "A128CBC-HS256"})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal envelope header")
	}
	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)

	tag := acscrypto.HMACSHA256Truncated(sharedKey[0:16], macInput(headerB64, iv, cipherText))

	return strings.Join([]string{
		headerB64,
		"",
		base64.RawURLEncoding.EncodeToString(iv),
		base64.RawURLEncoding.EncodeToString(cipherText),
		base64.RawURLEncoding.EncodeToString(tag),
	}, "."), nil
}

// Decode parses a compact token, resolves the channel key via lookup,
// verifies the authentication tag in constant time and returns the kid and
// the decrypted content. Tag verification happens before any decryption.
func Decode(token string, lookup KeyLookup) (string, []byte, error) {
	fields := strings.Split(token, ".")
	if len(fields) != 5 {
		return "", nil, errors.Wrap(acserr.ErrMalformedInput, "envelope must have 5 fields")
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(fields[0])
	if err != nil {
		return "", nil, errors.Wrap(acserr.ErrMalformedInput, "envelope header is not base64url")
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil || hdr.Kid == "" {
		return "", nil, errors.Wrap(acserr.ErrMalformedInput, "envelope header is not valid JSON")
	}

	iv, err := base64.RawURLEncoding.DecodeString(fields[2])
	if err != nil || len(iv) != ivSize {
		return hdr.Kid, nil, errors.Wrap(acserr.ErrMalformedInput, "envelope IV is invalid")
	}
	cipherText, err := base64.RawURLEncoding.DecodeString(fields[3])
	if err != nil {
		return hdr.Kid, nil, errors.Wrap(acserr.ErrMalformedInput, "envelope ciphertext is not base64url")
	}
	tag, err := base64.RawURLEncoding.DecodeString(fields[4])
	if err != nil {
		return hdr.Kid, nil, errors.Wrap(acserr.ErrMalformedInput, "envelope tag is not base64url")
	}

	sharedKey, err := lookup(hdr.Kid)
	if err != nil {
		return hdr.Kid, nil, err
	}
	if len(sharedKey) != acscrypto.SessionKeySize {
		return hdr.Kid, nil, errors.Wrap(acserr.ErrInvalidKey, "shared key must be 32 bytes")
	}

	expected := acscrypto.HMACSHA256Truncated(sharedKey[0:16], macInput(fields[0], iv, cipherText))
	if !hmac.Equal(expected, tag) {
		return hdr.Kid, nil, errors.Wrap(acserr.ErrEnvelopeAuthentication, "tag mismatch")
	}

	content, err := acscrypto.AESCBCDecrypt(sharedKey[16:32], iv, cipherText)
	if err != nil {
		return hdr.Kid, nil, err
	}
	return hdr.Kid, content, nil
}

// macInput builds the authenticated data: the ASCII header token, IV,
// ciphertext, and the bit length of the header token as a big-endian 64-bit
// integer.
func macInput(headerB64 string, iv, cipherText []byte) []byte {
	headerBytes := []byte(headerB64)
	input := make([]byte, 0, len(headerBytes)+len(iv)+len(cipherText)+8)
	input = append(input, headerBytes...)
	input = append(input, iv...)
	input = append(input, cipherText...)
	input = binary.BigEndian.AppendUint64(input, uint64(len(headerBytes))*8)
	return input
}
