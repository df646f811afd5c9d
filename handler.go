package prestatic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const (
	HealthPath = "/health"

	notFoundBody         = "no such file or directory"
	internalErrorMessage = "Encountered an error serving static content"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler is the HTTP host around Assets: health check, request logging,
// error-kind dispatch and content-type inference for original files.
type Handler struct {
	assets *Assets
	logger *slog.Logger
	// NotFound, when set, receives requests whose asset does not exist
	// instead of the plain-text 404.
	NotFound http.Handler
}

func NewHandler(assets *Assets, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("handler created", "root", assets.Root().Dir())
	return &Handler{assets: assets, logger: logger}
}

func writePlain(res http.ResponseWriter, code int, body string) int {
	res.Header().Set("Content-Type", "text/plain")
	res.WriteHeader(code)
	io.WriteString(res, body)
	return code
}

func writeInternalError(res http.ResponseWriter) int {
	data, err := json.Marshal(errorBody{Code: http.StatusInternalServerError, Message: internalErrorMessage})
	if err != nil {
		return writePlain(res, http.StatusInternalServerError, internalErrorMessage)
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusInternalServerError)
	res.Write(data)
	return http.StatusInternalServerError
}

func (h *Handler) serveError(res http.ResponseWriter, req *http.Request, logger *slog.Logger, err error) int {
	switch KindOf(err) {
	case KindNotFound, KindOutsideRoot:
		logger.Debug("asset not found", "path", req.URL.Path, "kind", KindOf(err), "error", err)
		if h.NotFound != nil {
			h.NotFound.ServeHTTP(res, req)
			return 0
		}
		return writePlain(res, http.StatusNotFound, notFoundBody)
	}
	logger.Error("serve failed", "path", req.URL.Path, "error", err)
	return writeInternalError(res)
}

// inferContentType types an original (unencoded) file by extension, falling
// back to sniffing the first 512 bytes.
func inferContentType(r *Response, name string) error {
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		buf := make([]byte, 512)
		n, err := io.ReadFull(r.Body, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return &AssetError{Kind: KindInternal, Op: "read", Path: name, Err: err}
		}
		ctype = http.DetectContentType(buf[:n])
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(buf[:n]), r.Body), r.Body}
	}
	r.Header.Set("Content-Type", ctype)
	return nil
}

func (h *Handler) serveHTTP(res http.ResponseWriter, req *http.Request, logger *slog.Logger) int {
	if req.URL.Path == HealthPath {
		return writePlain(res, http.StatusOK, "OK")
	}
	r, rv, err := h.assets.Serve(req.URL.Path, req.Header)
	if err != nil {
		return h.serveError(res, req, logger, err)
	}
	if !r.NotModified() && rv.Encoding == EncodingNone {
		if err := inferContentType(r, rv.PhysicalPath); err != nil {
			r.Close()
			return h.serveError(res, req, logger, err)
		}
	}
	if _, err := r.Write(res); err != nil {
		logger.Error("copy error", "path", rv.PhysicalPath, "error", err)
	}
	return r.Status
}

func (h *Handler) recoverServe(res http.ResponseWriter, req *http.Request, logger *slog.Logger) (code int) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if p == http.ErrAbortHandler {
			panic(p)
		}
		logger.Error("panic while serving", "path", req.URL.Path, "panic", p, "stack", string(debug.Stack()))
		code = writePlain(res, http.StatusInternalServerError, fmt.Sprintf("Internal Error: %v", p))
	}()
	return h.serveHTTP(res, req, logger)
}

func (h *Handler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	st := time.Now()
	logger := h.logger.With("request_id", uuid.NewString())
	logger.Info("new request", "method", req.Method, "path", req.URL.Path, "remote", req.RemoteAddr, "req-header", req.Header)
	code := h.recoverServe(res, req, logger)
	logger.Info("request complete", "status", code, "res-header", res.Header(), "elapsed_ns", time.Since(st))
}
