package prestatic

import (
	"log/slog"
	"net/http"
)

type Options struct {
	DisableBrotli bool `yaml:"disable_brotli"`
	DisableGzip   bool `yaml:"disable_gzip"`
}

// Assets resolves and builds responses for one root. Every call re-probes the
// filesystem.
type Assets struct {
	root   *Root
	opts   Options
	logger *slog.Logger
}

func NewAssets(root *Root, opts Options, logger *slog.Logger) *Assets {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assets{root: root, opts: opts, logger: logger}
}

func (a *Assets) Root() *Root {
	return a.root
}

// Serve runs join, resolve, stat, build and open for one request. Errors are
// *AssetError; a returned Response is never partial.
func (a *Assets) Serve(urlPath string, header http.Header) (*Response, ResolvedVariant, error) {
	name, err := a.root.Join(urlPath)
	if err != nil {
		return nil, ResolvedVariant{}, err
	}
	accepted := ParseAcceptEncoding(header.Get("Accept-Encoding"))
	accepted.Brotli = accepted.Brotli && !a.opts.DisableBrotli
	accepted.Gzip = accepted.Gzip && !a.opts.DisableGzip

	rv := Resolve(a.root, name, accepted)
	a.logger.Debug("variant resolved", "path", name, "physical", rv.PhysicalPath, "encoding", rv.Encoding)

	meta, err := a.root.Stat(rv.PhysicalPath)
	if err != nil {
		return nil, rv, err
	}
	res := Build(rv, meta, ParseValidators(header))
	if res.NotModified() {
		return res, rv, nil
	}
	fp, err := a.root.Open(rv.PhysicalPath)
	if err != nil {
		return nil, rv, err
	}
	res.Body = fp
	return res, rv, nil
}
