package hashutil

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// ContentHash is the BLAKE3-256 fingerprint of body as lowercase hex. It is
// attached to crawl results and to written result files.
func ContentHash(body []byte) string {
	hash := blake3.Sum256(body)
	return hex.EncodeToString(hash[:])
}
