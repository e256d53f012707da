package source

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Expand matches pattern (doublestar syntax: **, {a,b}, [..]) against the
// files under workDir. Relative patterns yield slash-separated paths
// relative to workDir, including ones that climb out of it ("../shared/*");
// absolute patterns yield absolute paths. Directories are never returned.
// Results are sorted.
func Expand(fsys afero.Fs, workDir, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	base := workDir
	prefix := ""
	if path.IsAbs(pattern) || filepath.IsAbs(pattern) {
		prefix, pattern = doublestar.SplitPattern(pattern)
		base = filepath.FromSlash(prefix)
	} else {
		pattern = path.Clean(pattern)
		// io/fs paths cannot start with "..": glob from the parent directory
		// and keep the "../" prefix on the matches.
		if pattern == ".." || strings.HasPrefix(pattern, "../") {
			prefix, pattern = doublestar.SplitPattern(pattern)
			base = filepath.Join(workDir, filepath.FromSlash(prefix))
		}
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}

	root := fsys
	if base != "" && base != "." {
		root = afero.NewBasePathFs(fsys, base)
	}

	matches, err := doublestar.Glob(afero.NewIOFS(root), pattern)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := root.Stat(filepath.FromSlash(m))
		if err != nil || info.IsDir() {
			continue
		}
		if prefix != "" {
			m = path.Join(prefix, m)
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// NewGlobber binds Expand to a filesystem and working directory.
func NewGlobber(fsys afero.Fs, workDir string) Globber {
	return func(pattern string) ([]string, error) {
		return Expand(fsys, workDir, pattern)
	}
}
