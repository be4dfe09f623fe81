// Package vapid decodes base64url-encoded VAPID public keys into the raw
// bytes the push manager expects as an application server key.
package vapid

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidKey is returned before any network call when the configured key
// does not decode to an uncompressed EC P-256 public key.
var ErrInvalidKey = errors.New("vapid: invalid public key")

// PublicKeyLength is the size of an uncompressed P-256 point: a 0x04 marker
// followed by two 32-byte coordinates.
const PublicKeyLength = 65

var base64urlToStd = strings.NewReplacer("-", "+", "_", "/")

// Decode converts a base64url key (-/_ alphabet, padding optional) into its
// raw 65 bytes. Decoding is deterministic; malformed input fails loudly
// instead of producing garbage for the subscribe call.
func Decode(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.Wrap(ErrInvalidKey, "empty key")
	}
	if rem := len(key) % 4; rem != 0 {
		key += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.StdEncoding.DecodeString(base64urlToStd.Replace(key))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidKey, "base64 decode: %v", err)
	}
	if len(raw) != PublicKeyLength {
		return nil, errors.Wrapf(ErrInvalidKey, "decoded to %d bytes, want %d", len(raw), PublicKeyLength)
	}
	if raw[0] != 0x04 {
		return nil, errors.Wrap(ErrInvalidKey, "not an uncompressed P-256 point")
	}
	return raw, nil
}
