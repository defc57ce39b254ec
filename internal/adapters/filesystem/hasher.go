package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashBlockSize keeps memory flat while digesting large share files.
const hashBlockSize = 1 << 20

// DigestFile returns the hex-encoded SHA-256 digest of the file contents,
// read in fixed-size blocks so arbitrarily large files never load fully
// into memory.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
