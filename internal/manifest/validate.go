package manifest

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/AnyUserName/imgvariants-cli/internal/hasher"
)

// Validate checks m for internal consistency and verifies every variant
// file under baseDir: present, same size, same digest. It returns one
// message per problem.
func Validate(fs afero.Fs, m *Manifest, baseDir string) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Assets))
	for k := range m.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seenPaths := map[string]string{}
	for _, key := range keys {
		asset := m.Assets[key]

		if asset.Source == "" {
			errs = append(errs, fmt.Sprintf("asset %q: missing source", key))
		}
		if len(asset.Variants) == 0 {
			errs = append(errs, fmt.Sprintf("asset %q: no variants", key))
		}

		for i, v := range asset.Variants {
			if v.Width <= 0 {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: invalid width %d", key, i, v.Width))
			}
			if v.Hash == "" {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: missing hash", key, i))
			}
			if v.Path == "" {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: missing path", key, i))
				continue
			}
			if want := key + v.Suffix + ".webp"; v.Path != want {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: path %q, expected %q", key, i, v.Path, want))
			}

			// duplicate widths legitimately map to one file
			if prev, ok := seenPaths[v.Path]; ok && prev != key {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: path %q also used by %q", key, i, v.Path, prev))
			}
			seenPaths[v.Path] = key

			errs = append(errs, checkFile(fs, filepath.Join(baseDir, v.Path), key, i, v)...)
		}
	}

	variantCount := 0
	for _, a := range m.Assets {
		variantCount += len(a.Variants)
	}
	if m.Stats.TotalAssets != len(m.Assets) {
		errs = append(errs, fmt.Sprintf("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, len(m.Assets)))
	}
	if m.Stats.TotalVariants != variantCount {
		errs = append(errs, fmt.Sprintf("stats.total_variants mismatch: %d != %d", m.Stats.TotalVariants, variantCount))
	}
	if m.Stats.TotalFailures != len(m.Failures) {
		errs = append(errs, fmt.Sprintf("stats.total_failures mismatch: %d != %d", m.Stats.TotalFailures, len(m.Failures)))
	}

	return errs
}

func checkFile(fs afero.Fs, fullPath, key string, i int, v Variant) []string {
	info, err := fs.Stat(fullPath)
	if err != nil {
		return []string{fmt.Sprintf("asset %q variant[%d]: file not found: %s", key, i, v.Path)}
	}
	if v.Size > 0 && info.Size() != v.Size {
		return []string{fmt.Sprintf("asset %q variant[%d]: size mismatch: manifest=%d, disk=%d",
			key, i, v.Size, info.Size())}
	}

	f, err := fs.Open(fullPath)
	if err != nil {
		return []string{fmt.Sprintf("asset %q variant[%d]: open: %v", key, i, err)}
	}
	defer f.Close()

	digest, err := hasher.DigestReader(f)
	if err != nil {
		return []string{fmt.Sprintf("asset %q variant[%d]: read: %v", key, i, err)}
	}
	if v.Hash != "" && digest != v.Hash {
		return []string{fmt.Sprintf("asset %q variant[%d]: hash mismatch: manifest=%s, disk=%s", key, i, v.Hash, digest)}
	}
	return nil
}
