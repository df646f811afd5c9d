package prestatic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const indexFile = "index.html"

type FileMetadata struct {
	Size    int64
	ModTime time.Time
}

// Root is the directory tree assets are served from. It holds no mutable
// state and is safe for concurrent use.
type Root struct {
	fsys fs.StatFS
	// dir is the canonical base directory, empty for non-disk roots.
	dir string
}

func NewRoot(fsys fs.StatFS) *Root {
	return &Root{fsys: fsys}
}

// NewDirRoot canonicalizes dir once so later containment checks compare
// symlink-free absolute paths.
func NewDirRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs %s: %w", dir, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", abs, err)
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", canon)
	}
	return &Root{fsys: os.DirFS(canon).(fs.StatFS), dir: canon}, nil
}

func (r *Root) Dir() string {
	return r.dir
}

// Join maps an untrusted URL path to a slash-separated name relative to the
// root. Paths that climb above the root are rejected rather than clamped.
func (r *Root) Join(urlPath string) (string, error) {
	depth := 0
	for _, seg := range strings.Split(urlPath, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", &AssetError{Kind: KindOutsideRoot, Op: "join", Path: urlPath, Err: ErrOutsideRoot}
			}
		default:
			depth++
		}
	}
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || strings.HasSuffix(urlPath, "/") {
		name = path.Join(name, indexFile)
	}
	if !fs.ValidPath(name) || strings.ContainsRune(name, 0) {
		return "", &AssetError{Kind: KindOutsideRoot, Op: "join", Path: urlPath, Err: ErrOutsideRoot}
	}
	return name, nil
}

// contain verifies that the physical file behind name, after following
// symlinks, still lives under the root.
func (r *Root) contain(name string) error {
	if r.dir == "" {
		return nil
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(r.dir, filepath.FromSlash(name)))
	if err != nil {
		return classify("resolve", name, err)
	}
	rel, err := filepath.Rel(r.dir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &AssetError{Kind: KindOutsideRoot, Op: "resolve", Path: name, Err: ErrOutsideRoot}
	}
	return nil
}

// Stat reads fresh metadata for name on every call; nothing is cached.
func (r *Root) Stat(name string) (FileMetadata, error) {
	if err := r.contain(name); err != nil {
		return FileMetadata{}, err
	}
	info, err := r.fsys.Stat(name)
	if err != nil {
		return FileMetadata{}, classify("stat", name, err)
	}
	if info.IsDir() {
		return FileMetadata{}, &AssetError{Kind: KindNotFound, Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return FileMetadata{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Exists reports whether name is a regular file inside the root.
func (r *Root) Exists(name string) bool {
	_, err := r.Stat(name)
	return err == nil
}

func (r *Root) Open(name string) (fs.File, error) {
	if err := r.contain(name); err != nil {
		return nil, err
	}
	fp, err := r.fsys.Open(name)
	if err != nil {
		return nil, classify("open", name, err)
	}
	return fp, nil
}

func classify(op, name string, err error) error {
	kind := KindInternal
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid), errors.Is(err, syscall.ENOTDIR):
		kind = KindNotFound
	}
	return &AssetError{Kind: kind, Op: op, Path: name, Err: err}
}
