package prestatic

import (
	"io"
	"net/http"
	"strconv"
)

type Response struct {
	Status int
	Header http.Header
	// Body is nil for 304 responses.
	Body io.ReadCloser
}

// Build decides between a 304 and a 200 for an already resolved variant.
// First match wins: If-None-Match, then If-Modified-Since, then the full
// response. Body is left for the caller to attach.
func Build(rv ResolvedVariant, meta FileMetadata, v Validators) *Response {
	etag := MakeETag(meta)
	if v.HasIfNoneMatch && v.IfNoneMatch == etag {
		return &Response{Status: http.StatusNotModified, Header: http.Header{}}
	}
	if v.HasIfModifiedSince && v.IfModifiedSince.UnixMilli() >= meta.ModTime.UnixMilli() {
		return &Response{Status: http.StatusNotModified, Header: http.Header{}}
	}
	hdr := http.Header{}
	hdr.Set("ETag", etag)
	hdr.Set("Last-Modified", meta.ModTime.UTC().Format(http.TimeFormat))
	hdr.Set("Vary", "accept-encoding")
	hdr.Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	if rv.Encoding != EncodingNone {
		hdr.Set("Content-Encoding", rv.Encoding.ContentEncoding())
		hdr.Set("Content-Type", PrecompressedContentType(rv.SourceExtension))
	}
	return &Response{Status: http.StatusOK, Header: hdr}
}

func (r *Response) NotModified() bool {
	return r.Status == http.StatusNotModified
}

func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Write copies headers, status and body to w and closes the body.
func (r *Response) Write(w http.ResponseWriter) (int64, error) {
	defer r.Close()
	for k, vs := range r.Header {
		w.Header()[k] = vs
	}
	w.WriteHeader(r.Status)
	if r.Body == nil {
		return 0, nil
	}
	return io.Copy(w, r.Body)
}
