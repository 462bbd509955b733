package nzb

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// HashContents returns the SHA-256 fingerprint of the raw NZB bytes. The
// get command logs it; the history ledger does not store it.
func HashContents(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
