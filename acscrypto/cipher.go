package acscrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"

	"github.com/pkg/errors"

	acserr "github.com/finsim/acs-emulator/internal/errors"
)

// TagSize is the length of the truncated HMAC-SHA-256 authentication tag.
const TagSize = 16

// AESCBCEncrypt encrypts data with AES-128 in CBC mode, applying PKCS#7
// padding. The key must be 16 bytes and the IV one block.
func AESCBCEncrypt(key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build AES cipher")
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.Wrap(acserr.ErrInvalidKey, "IV must be one AES block")
	}

	padded := pkcs7Pad(data, aes.BlockSize)
	cipherText := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cipherText, padded)
	return cipherText, nil
}

// AESCBCDecrypt decrypts AES-128-CBC data and strips PKCS#7 padding. It
// fails with ErrPadding on malformed padding.
//
// TODO: the padding check below is not constant time; acceptable for a test
// emulator but a hardening item for any production reuse.
func AESCBCDecrypt(key, iv, cipherText []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build AES cipher")
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.Wrap(acserr.ErrInvalidKey, "IV must be one AES block")
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.Wrap(acserr.ErrPadding, "ciphertext is not block aligned")
	}

	plainText := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plainText, cipherText)
	return pkcs7Unpad(plainText, aes.BlockSize)
}

// HMACSHA256Truncated returns the first TagSize bytes of
// HMAC-SHA-256(key, data), the message authentication tag of the in-app
// channel.
func HMACSHA256Truncated(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)[:TagSize]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.Wrap(acserr.ErrPadding, "data is not block aligned")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, errors.Wrap(acserr.ErrPadding, "padding length out of range")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.Wrap(acserr.ErrPadding, "inconsistent padding bytes")
		}
	}
	return data[:len(data)-padLen], nil
}
