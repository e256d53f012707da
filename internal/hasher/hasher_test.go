package hasher

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	// xxh64 of the empty input with seed 0
	assert.Equal(t, "ef46db3751d8e999", Digest(nil))

	d := Digest([]byte("variant bytes"))
	assert.Len(t, d, DigestLen)
	assert.NotEqual(t, d, Digest([]byte("variant byteS")))
}

func TestDigestReader_MatchesDigest(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 5000)

	got, err := DigestReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Digest(data), got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestDigestReader_Error(t *testing.T) {
	_, err := DigestReader(failingReader{})
	assert.EqualError(t, err, "disk gone")
}
