package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func globFixture(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"/work/public/images/a.jpg",
		"/work/public/images/b.png",
		"/work/public/images/c.gif",
		"/work/public/images/nested/d.jpg",
		"/work/other/e.jpg",
	}
	for _, f := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(f), 0o755))
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}
	require.NoError(t, fs.MkdirAll("/work/public/images/dir.jpg", 0o755))
	return fs
}

func TestExpand(t *testing.T) {
	fs := globFixture(t)

	got, err := Expand(fs, "/work", "public/images/**/*.{jpg,png}")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"public/images/a.jpg",
		"public/images/b.png",
		"public/images/nested/d.jpg",
	}, got)

	got, err = Expand(fs, "/work", "./public/images/*.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"public/images/a.jpg"}, got)
}

func TestExpand_NoMatches(t *testing.T) {
	got, err := Expand(globFixture(t), "/work", "public/images/*.tiff")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_Absolute(t *testing.T) {
	got, err := Expand(globFixture(t), "/elsewhere", "/work/other/*.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/other/e.jpg"}, got)
}

func TestExpand_ParentDir(t *testing.T) {
	fs := globFixture(t)

	got, err := Expand(fs, "/work/public", "../other/*.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"../other/e.jpg"}, got)

	got, err = Expand(fs, "/work/public/images/nested", "../../**/*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"../../images/b.png"}, got)

	// matches resolve against the same working directory
	r := NewResolver(fs, "/work/public", nil)
	data, err := r.Resolve(context.Background(), "../other/e.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestExpand_BadPattern(t *testing.T) {
	_, err := Expand(globFixture(t), "/work", "public/[images/*.jpg")
	assert.Error(t, err)
}

func TestNewGlobber(t *testing.T) {
	glob := NewGlobber(globFixture(t), "/work")
	items, err := Collect([]string{"public/images/a.jpg"}, []string{"public/images/*.jpg"}, glob)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].BaseName)
}
