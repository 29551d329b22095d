package acscrypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsim/acs-emulator/acscrypto"
)

func TestDeriveSessionKeySymmetry(t *testing.T) {
	acsKeys, err := acscrypto.GenerateECKeyPair()
	require.NoError(t, err)
	sdkKeys, err := acscrypto.GenerateECKeyPair()
	require.NoError(t, err)

	acsSecret, err := acscrypto.ComputeECDHSecret(acsKeys.PrivateKey, sdkKeys.PublicKey)
	require.NoError(t, err)
	sdkSecret, err := acscrypto.ComputeECDHSecret(sdkKeys.PrivateKey, acsKeys.PublicKey)
	require.NoError(t, err)
	require.Equal(t, acsSecret, sdkSecret)
	require.Len(t, acsSecret, 32)

	acsSessionKey := acscrypto.DeriveSessionKey(acsSecret, "3DS_LOA_SDK_PPFU_020100_00007")
	sdkSessionKey := acscrypto.DeriveSessionKey(sdkSecret, "3DS_LOA_SDK_PPFU_020100_00007")
	require.Equal(t, acsSessionKey, sdkSessionKey)
	require.Len(t, acsSessionKey, acscrypto.SessionKeySize)
}

func TestDeriveSessionKeyBindsReferenceNumber(t *testing.T) {
	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i)
	}

	keyA := acscrypto.DeriveSessionKey(secret, "sdk-ref-a")
	keyB := acscrypto.DeriveSessionKey(secret, "sdk-ref-b")
	require.NotEqual(t, keyA, keyB)

	// Same inputs always derive the same key.
	require.Equal(t, keyA, acscrypto.DeriveSessionKey(secret, "sdk-ref-a"))
}
