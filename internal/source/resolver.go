package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/valyala/fasthttp"
)

// FetchError reports a failed remote fetch: a non-2xx status, a network
// failure or a timeout.
type FetchError struct {
	Ref        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Ref, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ReadError reports an unreadable local file.
type ReadError struct {
	Ref  string
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Ref, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Fetcher downloads a remote reference.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches with a single GET, following a few redirects.
// There are no retries.
type HTTPFetcher struct {
	Client       *fasthttp.Client
	Timeout      time.Duration // 0 = no timeout beyond the context deadline
	MaxRedirects int
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &fasthttp.Client{
			Name:                      "imgvariants",
			MaxIdemponentCallAttempts: 1,
		},
		Timeout:      timeout,
		MaxRedirects: 5,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Ref: url, Err: err}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	timeout := f.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		req.SetTimeout(timeout)
	}

	if err := f.Client.DoRedirects(req, resp, f.MaxRedirects); err != nil {
		return nil, &FetchError{Ref: url, Err: err}
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &FetchError{Ref: url, StatusCode: code}
	}

	// resp is returned to the pool on exit
	return append([]byte(nil), resp.Body()...), nil
}

// Resolver turns a reference into raw bytes.
type Resolver struct {
	fs      afero.Fs
	workDir string
	fetcher Fetcher
}

// NewResolver reads local references from fs relative to workDir and
// remote ones through fetcher.
func NewResolver(fs afero.Fs, workDir string, fetcher Fetcher) *Resolver {
	return &Resolver{fs: fs, workDir: workDir, fetcher: fetcher}
}

// Resolve returns the bytes behind ref, failing with *FetchError or
// *ReadError.
func (r *Resolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	if IsRemote(ref) {
		data, err := r.fetcher.Fetch(ctx, ref)
		if err != nil {
			var fe *FetchError
			if !errors.As(err, &fe) {
				err = &FetchError{Ref: ref, Err: err}
			}
			return nil, err
		}
		return data, nil
	}

	p := filepath.FromSlash(ref)
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.workDir, p)
	}
	data, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return nil, &ReadError{Ref: ref, Path: p, Err: err}
	}
	return data, nil
}
