package acscrypto

import (
	"crypto/sha256"
	"encoding/binary"
)

// SessionKeySize is the length of the derived channel key: the first 16
// bytes are the MAC key, the last 16 the encryption key.
const SessionKeySize = 32

// DeriveSessionKey derives the 32-byte channel key from an ECDH shared
// secret using the single-round SP 800-56A Concat-KDF profile of the 3DS
// SDK: SHA-256(counter || secret || otherInfo) with an empty AlgorithmID and
// PartyUInfo, the SDK reference number as PartyVInfo, and a fixed 256-bit
// keydata length as SuppPubInfo.
func DeriveSessionKey(sharedSecret []byte, sdkReferenceNumber string) []byte {
	material := make([]byte, 0, 4+len(sharedSecret)+16+len(sdkReferenceNumber))
	material = binary.BigEndian.AppendUint32(material, 1) // single KDF round
	material = append(material, sharedSecret...)
	material = append(material, otherInfo(sdkReferenceNumber)...)

	key := sha256.Sum256(material)
	return key[:]
}

func otherInfo(sdkReferenceNumber string) []byte {
	info := make([]byte, 0, 16+len(sdkReferenceNumber))
	info = binary.BigEndian.AppendUint32(info, 0) // AlgorithmID, empty
	info = binary.BigEndian.AppendUint32(info, 0) // PartyUInfo, empty
	info = binary.BigEndian.AppendUint32(info, uint32(len(sdkReferenceNumber)))
	info = append(info, sdkReferenceNumber...) // PartyVInfo
	info = binary.BigEndian.AppendUint32(info, SessionKeySize*8)
	// SuppPrivInfo is empty
	return info
}
