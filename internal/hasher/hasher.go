// Package hasher fingerprints variant bytes for the build manifest.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/cespare/xxhash/v2"
)

// DigestLen is the hex length recorded in manifests: the full 64 bits.
const DigestLen = 16

// Digest returns the hex xxHash64 of data.
func Digest(data []byte) string {
	return encode(xxhash.Sum64(data))
}

// DigestReader is Digest over a stream, used to re-check files on disk.
func DigestReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return encode(h.Sum64()), nil
}

func encode(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hex.EncodeToString(b[:])
}
