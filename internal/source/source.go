// Package source turns raw input references (local paths or http(s) URLs)
// into a deduplicated item list and resolves each item to its bytes.
package source

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Item is one input reference scheduled for processing.
type Item struct {
	// Ref is the reference as configured (URL) or cleaned (local path).
	Ref string
	// BaseName is the file name without directory and extension; the stem
	// of every variant written for this item. Empty if none can be derived.
	BaseName string
}

// NewItem derives the item for ref.
func NewItem(ref string) Item {
	return Item{Ref: ref, BaseName: BaseName(ref)}
}

// IsRemote reports whether ref is fetched over the network.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// BaseName strips directory and extension from ref. For URLs only the
// path is used, so query strings never leak into file names.
func BaseName(ref string) string {
	p := ref
	if IsRemote(ref) {
		u, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		p = u.Path
	}
	p = filepath.ToSlash(p)
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	base := path.Base(p)
	name := strings.TrimSuffix(base, ext(base))
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// ext is path.Ext except that a leading dot starts the name, not the
// extension: ".hidden" has none, ".hidden.jpg" has ".jpg".
func ext(base string) string {
	if strings.HasPrefix(base, ".") {
		return path.Ext(base[1:])
	}
	return path.Ext(base)
}

// Globber expands one pattern into references.
type Globber func(pattern string) ([]string, error)

// Collect merges inputs with the matches of every pattern and drops
// duplicates, keeping the first occurrence. Local paths are cleaned first
// so "./a.jpg" and "a.jpg" count as one input.
func Collect(inputs, patterns []string, glob Globber) ([]Item, error) {
	refs := make([]string, 0, len(inputs))
	refs = append(refs, inputs...)
	for _, p := range patterns {
		matches, err := glob(p)
		if err != nil {
			return nil, fmt.Errorf("expand pattern %q: %w", p, err)
		}
		refs = append(refs, matches...)
	}

	refs = lo.Map(refs, func(r string, _ int) string {
		if IsRemote(r) {
			return r
		}
		return filepath.ToSlash(filepath.Clean(r))
	})
	refs = lo.Uniq(refs)

	return lo.Map(refs, func(r string, _ int) Item { return NewItem(r) }), nil
}
