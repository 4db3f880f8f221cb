package misc

import (
	"crypto/sha256"
	"encoding/hex"
)

// SumSHA256 computes the keyed body hash carried in the HashSHA256 header.
func SumSHA256(value []byte, key string) string {
	sum := sha256.Sum256(append(value, []byte(key)...))
	return hex.EncodeToString(sum[:])
}
