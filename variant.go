package prestatic

import (
	"path"
	"strings"
)

type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingBrotli
	EncodingGzip
)

type encodeInfo struct {
	ext    string
	encode string
}

var encodings = map[Encoding]encodeInfo{
	EncodingBrotli: {ext: ".br", encode: "br"},
	EncodingGzip:   {ext: ".gz", encode: "gzip"},
}

// ContentEncoding returns the Content-Encoding token, empty for EncodingNone.
func (e Encoding) ContentEncoding() string {
	return encodings[e].encode
}

func (e Encoding) Ext() string {
	return encodings[e].ext
}

func (e Encoding) String() string {
	if e == EncodingNone {
		return "identity"
	}
	return e.ContentEncoding()
}

type AcceptedEncodings struct {
	Brotli bool
	Gzip   bool
}

// ParseAcceptEncoding only checks for token presence. q-values are not
// honoured, so "br;q=0" still counts as accepting brotli.
func ParseAcceptEncoding(header string) AcceptedEncodings {
	h := strings.ToLower(header)
	return AcceptedEncodings{
		Brotli: strings.Contains(h, "br"),
		Gzip:   strings.Contains(h, "gzip"),
	}
}

type ResolvedVariant struct {
	// PhysicalPath is the root-relative name of the file actually served.
	PhysicalPath string
	Encoding     Encoding
	// SourceExtension is the extension of the logical file, without the dot.
	SourceExtension string
}

// Resolve picks brotli, then gzip, then the original. The original is not
// checked for existence here; the metadata read reports that.
func Resolve(root *Root, name string, accepted AcceptedEncodings) ResolvedVariant {
	rv := ResolvedVariant{
		PhysicalPath:    name,
		Encoding:        EncodingNone,
		SourceExtension: strings.TrimPrefix(path.Ext(name), "."),
	}
	for _, cand := range []struct {
		enc Encoding
		ok  bool
	}{
		{EncodingBrotli, accepted.Brotli},
		{EncodingGzip, accepted.Gzip},
	} {
		if !cand.ok {
			continue
		}
		if p := name + cand.enc.Ext(); root.Exists(p) {
			rv.PhysicalPath = p
			rv.Encoding = cand.enc
			break
		}
	}
	return rv
}
