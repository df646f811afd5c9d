package prestatic

import (
	"fmt"
	"net/http"
	"time"
)

type Validators struct {
	IfNoneMatch    string
	HasIfNoneMatch bool

	// IfModifiedSince is the Unix epoch when the header was present but malformed.
	IfModifiedSince    time.Time
	HasIfModifiedSince bool
}

func ParseValidators(header http.Header) Validators {
	var v Validators
	if vals, ok := header["If-None-Match"]; ok && len(vals) > 0 {
		v.IfNoneMatch = vals[0]
		v.HasIfNoneMatch = true
	}
	if vals, ok := header["If-Modified-Since"]; ok && len(vals) > 0 {
		v.IfModifiedSince = parseIfModifiedSince(vals[0])
		v.HasIfModifiedSince = true
	}
	return v
}

// parseIfModifiedSince fails open: anything unparseable becomes the epoch,
// which never satisfies the not-modified comparison for real files.
func parseIfModifiedSince(value string) time.Time {
	for _, layout := range []string{http.TimeFormat, time.RFC850, time.ANSIC, time.RFC1123Z, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// MakeETag derives the weak validator from size and millisecond mtime, so each
// variant of a resource has its own tag.
func MakeETag(meta FileMetadata) string {
	return fmt.Sprintf(`W/"%d-%d"`, meta.Size, meta.ModTime.UnixMilli())
}
