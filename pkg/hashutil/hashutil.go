package hashutil

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Digest returns the hex-encoded BLAKE3-256 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortDigest returns the first n hex characters of Digest(data).
// Page bodies are fingerprinted this way in log records; n outside
// (0, 64) yields the full digest.
func ShortDigest(data []byte, n int) string {
	full := Digest(data)
	if n <= 0 || n >= len(full) {
		return full
	}
	return full[:n]
}
