package prestatic

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

// TestParseAcceptEncoding tests token presence detection
func TestParseAcceptEncoding(t *testing.T) {
	testCases := []struct {
		header string
		expect AcceptedEncodings
	}{
		{header: "", expect: AcceptedEncodings{}},
		{header: "gzip", expect: AcceptedEncodings{Gzip: true}},
		{header: "br", expect: AcceptedEncodings{Brotli: true}},
		{header: "brotli", expect: AcceptedEncodings{Brotli: true}},
		{header: "gzip, deflate, br", expect: AcceptedEncodings{Brotli: true, Gzip: true}},
		{header: "GZIP, BR", expect: AcceptedEncodings{Brotli: true, Gzip: true}},
		{header: "deflate, identity", expect: AcceptedEncodings{}},
		{header: "br;q=0", expect: AcceptedEncodings{Brotli: true}},
		{header: "*", expect: AcceptedEncodings{}},
	}
	for _, tc := range testCases {
		t.Run(tc.header, func(t *testing.T) {
			if diff := cmp.Diff(tc.expect, ParseAcceptEncoding(tc.header)); diff != "" {
				t.Errorf("mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}

// TestResolve tests the brotli > gzip > original preference
func TestResolve(t *testing.T) {
	testCases := []struct {
		name      string
		available []string
		accepted  AcceptedEncodings
		expect    ResolvedVariant
	}{
		{
			name:      "both exist and accepted",
			available: []string{"", ".br", ".gz"},
			accepted:  AcceptedEncodings{Brotli: true, Gzip: true},
			expect:    ResolvedVariant{PhysicalPath: "index.html.br", Encoding: EncodingBrotli, SourceExtension: "html"},
		},
		{
			name:      "only gzip accepted",
			available: []string{"", ".br", ".gz"},
			accepted:  AcceptedEncodings{Gzip: true},
			expect:    ResolvedVariant{PhysicalPath: "index.html.gz", Encoding: EncodingGzip, SourceExtension: "html"},
		},
		{
			name:      "brotli accepted but missing",
			available: []string{"", ".gz"},
			accepted:  AcceptedEncodings{Brotli: true},
			expect:    ResolvedVariant{PhysicalPath: "index.html", Encoding: EncodingNone, SourceExtension: "html"},
		},
		{
			name:      "nothing accepted",
			available: []string{"", ".br", ".gz"},
			expect:    ResolvedVariant{PhysicalPath: "index.html", Encoding: EncodingNone, SourceExtension: "html"},
		},
		{
			name:      "original missing is not checked",
			available: nil,
			accepted:  AcceptedEncodings{Brotli: true, Gzip: true},
			expect:    ResolvedVariant{PhysicalPath: "index.html", Encoding: EncodingNone, SourceExtension: "html"},
		},
		{
			name:      "variant without original",
			available: []string{".gz"},
			accepted:  AcceptedEncodings{Gzip: true},
			expect:    ResolvedVariant{PhysicalPath: "index.html.gz", Encoding: EncodingGzip, SourceExtension: "html"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for _, ext := range tc.available {
				fsys["index.html"+ext] = testFile(ext)
			}
			got := Resolve(NewRoot(fsys), "index.html", tc.accepted)
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Errorf("mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}

// TestResolve_DirectoryVariantIgnored tests that a directory named like a variant is not served
func TestResolve_DirectoryVariantIgnored(t *testing.T) {
	fsys := fstest.MapFS{
		"a.css":      testFile("a"),
		"a.css.br/x": testFile("x"),
		"a.css.gz":   testFile("gz"),
		"noext":      testFile("n"),
		"noext.br":   testFile("nb"),
	}
	root := NewRoot(fsys)
	rv := Resolve(root, "a.css", AcceptedEncodings{Brotli: true, Gzip: true})
	if rv.Encoding != EncodingGzip {
		t.Errorf("expected gzip, got %v", rv.Encoding)
	}
	rv = Resolve(root, "noext", AcceptedEncodings{Brotli: true})
	if rv.SourceExtension != "" || rv.Encoding != EncodingBrotli {
		t.Errorf("unexpected variant %+v", rv)
	}
}

// TestEncodingTokens tests Content-Encoding tokens and file suffixes
func TestEncodingTokens(t *testing.T) {
	testCases := []struct {
		enc   Encoding
		token string
		ext   string
		str   string
	}{
		{enc: EncodingNone, token: "", ext: "", str: "identity"},
		{enc: EncodingBrotli, token: "br", ext: ".br", str: "br"},
		{enc: EncodingGzip, token: "gzip", ext: ".gz", str: "gzip"},
	}
	for _, tc := range testCases {
		if tc.enc.ContentEncoding() != tc.token || tc.enc.Ext() != tc.ext || tc.enc.String() != tc.str {
			t.Errorf("%d: got %q %q %q", tc.enc, tc.enc.ContentEncoding(), tc.enc.Ext(), tc.enc.String())
		}
	}
}
