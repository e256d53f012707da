package manifest

// Manifest is the record of one imgvariants build, written next to the
// variants as imgvariants.manifest.json.
type Manifest struct {
	Version     int              `json:"version"`
	RunID       string           `json:"run_id"`
	GeneratedAt string           `json:"generated_at"`
	OutputDir   string           `json:"output_dir"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Assets      map[string]Asset `json:"assets"` // keyed by base name
	Failures    []Failure        `json:"failures,omitempty"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures build-time parameters for diagnostics.
type BuildInfo struct {
	Modes      []string `json:"modes"`
	Quality    int      `json:"quality"`
	Workers    int      `json:"workers"`
	Upscale    string   `json:"upscale"`
	DurationMS int64    `json:"duration_ms"`
}

// Asset describes one source image and the variants written for it.
type Asset struct {
	Source   string       `json:"source"` // input reference, path or URL
	Original OriginalInfo `json:"original"`
	Variants []Variant    `json:"variants"`
}

// OriginalInfo holds metadata about the source image.
type OriginalInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Variant is one encoded output of an asset.
type Variant struct {
	Mode   string `json:"mode"`   // "widths" or "scales"
	Suffix string `json:"suffix"` // "-640", "@2x"
	Width  int    `json:"width"`  // target width
	Size   int64  `json:"size"`   // bytes on disk
	Hash   string `json:"hash"`   // hex xxhash64
	Path   string `json:"path"`   // file name, relative to the manifest
}

// Failure is an input or target that produced no file.
type Failure struct {
	Source string `json:"source"`
	Suffix string `json:"suffix,omitempty"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// Stats aggregates build metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalAssets      int   `json:"total_assets"`
	TotalVariants    int   `json:"total_variants"`
	TotalFailures    int   `json:"total_failures"`
}

// FileName is the manifest's name inside the output directory.
const FileName = "imgvariants.manifest.json"

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
