package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseName(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"public/images/sample-local.jpg", "sample-local"},
		{"a.jpg", "a"},
		{"photos/archive.tar.gz", "archive.tar"},
		{"noext", "noext"},
		{"public/.hidden", ".hidden"},
		{"public/.hidden.jpg", ".hidden"},
		{"https://example.com/.well-known.png", ".well-known"},
		{"..", ""},
		{"https://example.com/image1.jpg", "image1"},
		{"https://example.com/img/hero.png?w=100#top", "hero"},
		{"https://example.com/", ""},
		{"https://example.com", ""},
		{"dir/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.ref), "BaseName(%q)", tt.ref)
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("http://x/a.jpg"))
	assert.True(t, IsRemote("https://x/a.jpg"))
	assert.False(t, IsRemote("ftp://x/a.jpg"))
	assert.False(t, IsRemote("public/https.jpg"))
}

func TestCollect_Dedup(t *testing.T) {
	var patterns []string
	glob := func(p string) ([]string, error) {
		patterns = append(patterns, p)
		return []string{"a.jpg", "b.png"}, nil
	}

	items, err := Collect([]string{"a.jpg", "./a.jpg", "a.jpg"}, []string{"*.{jpg,png}"}, glob)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, Item{Ref: "a.jpg", BaseName: "a"}, items[0])
	assert.Equal(t, Item{Ref: "b.png", BaseName: "b"}, items[1])
	assert.Equal(t, []string{"*.{jpg,png}"}, patterns)
}

func TestCollect_KeepsFirstOccurrenceOrder(t *testing.T) {
	glob := func(string) ([]string, error) {
		return []string{"public/images/sample-local.jpg"}, nil
	}
	items, err := Collect(
		[]string{"https://example.com/image1.jpg", "public/images/sample-local.jpg"},
		[]string{"public/images/**/*.jpg"},
		glob,
	)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://example.com/image1.jpg", items[0].Ref)
	assert.Equal(t, "public/images/sample-local.jpg", items[1].Ref)
}

func TestCollect_URLsNotCleaned(t *testing.T) {
	items, err := Collect([]string{"https://example.com/a//b.jpg"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a//b.jpg", items[0].Ref)
}

func TestCollect_GlobError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Collect(nil, []string{"["}, func(string) ([]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCollect_Empty(t *testing.T) {
	items, err := Collect(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
