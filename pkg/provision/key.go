package provision

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrEmptySecret is returned when deriving a key from an empty secret.
var ErrEmptySecret = errors.New("empty network key secret")

const networkKeyInfo = "znp-go network key v1"

// DeriveNetworkKey derives the 128-bit network key from a site secret.
// The extended PAN id is the salt, so one secret yields distinct keys
// for distinct networks.
func DeriveNetworkKey(secret []byte, extendedPANID uint64) ([16]byte, error) {
	var key [16]byte
	if len(secret) == 0 {
		return key, ErrEmptySecret
	}

	salt := binary.LittleEndian.AppendUint64(nil, extendedPANID)
	r := hkdf.New(sha256.New, secret, salt, []byte(networkKeyInfo))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return key, fmt.Errorf("derive network key: %w", err)
	}
	return key, nil
}
