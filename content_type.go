package prestatic

const defaultContentType = "application/octet-stream"

// precompressedContentTypes is consulted only for .br/.gz variants; originals
// get their type from the host.
var precompressedContentTypes = map[string]string{
	"html": "text/html",
	"js":   "application/javascript",
	"json": "application/json",
	"css":  "text/css",
	"svg":  "image/svg+xml",
	"xml":  "application/xml",
	"wasm": "application/wasm",
}

func PrecompressedContentType(ext string) string {
	if ct, ok := precompressedContentTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}
