package helpers

import (
	"crypto/md5"
	"fmt"
	"os"
)

// Hash is an utility to determine a MD5 hash (acceptable as not used for security reasons).
// Used to detect when two image files carry the same bytes.
func Hash(bytes []byte) string {
	h := md5.New()
	h.Write(bytes)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashFromFile reads the file content to determine the hash.
func HashFromFile(path string) (string, error) {
	contentBytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Hash(contentBytes), nil
}

// ContentHash is a djb2 hash over a document text.
// Fast and stable, used to fingerprint outbound content for echo detection,
// not for content addressing (collisions are tolerable, a collision only
// suppresses one redundant refresh).
func ContentHash(text string) string {
	var h uint32 = 5381
	for _, b := range []byte(text) {
		h = (h << 5) + h + uint32(b) // h * 33 + b
	}
	return fmt.Sprintf("%08x", h)
}
