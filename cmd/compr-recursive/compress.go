package main

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/andybalholm/brotli"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/xplshn/tracerr2"
	"golang.org/x/sync/errgroup"
)

// compress:
//   - compress all files in tree, keep original, parallel
//   - check timestamp
//   - gzip -k9nf, brotli -k9nf, or the builtin encoders
//   - remove if not smaller than original
//
// cleanup:
//   - remove all compressed files in tree

type compressor struct {
	ext     string
	cmd     []string
	builtin func(io.Writer) (io.WriteCloser, error)
}

func newGzipWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

func newBrotliWriter(w io.Writer) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, brotli.BestCompression), nil
}

func defaultCompressors() []compressor {
	return []compressor{
		{ext: ".gz", cmd: []string{"gzip", "-k9nf"}, builtin: newGzipWriter},
		{ext: ".br", cmd: []string{"brotli", "-k9nf"}, builtin: newBrotliWriter},
	}
}

// variantExts are never compressed again and are the only files cleanup removes.
var variantExts = []string{".gz", ".br"}

func isVariant(name string) bool {
	return slices.Contains(variantExts, filepath.Ext(name))
}

type walker struct {
	root        string
	compressors []compressor
	builtin     bool
	dry         bool
	minSize     int64
	maxSize     int64
	jobs        int
	cleanOld    bool
	logger      *slog.Logger
}

// builtinCompress writes path+ext through the in-process encoder via a temp
// file, so readers never observe a half-written variant.
func builtinCompress(ctx context.Context, c compressor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return tracerr.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".compr-*")
	if err != nil {
		return tracerr.Wrapf(err, "failed to create temp file for %s", dst)
	}
	defer os.Remove(tmp.Name())
	w, err := c.builtin(tmp)
	if err != nil {
		tmp.Close()
		return tracerr.Wrapf(err, "failed to create encoder for %s", dst)
	}
	if _, err := io.Copy(w, readerCtx{ctx: ctx, r: in}); err != nil {
		tmp.Close()
		return tracerr.Wrapf(err, "failed to compress %s", src)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return tracerr.Wrapf(err, "failed to flush %s", dst)
	}
	if err := tmp.Close(); err != nil {
		return tracerr.Wrapf(err, "failed to close %s", dst)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return tracerr.Wrapf(err, "failed to rename to %s", dst)
	}
	return nil
}

type readerCtx struct {
	ctx context.Context
	r   io.Reader
}

func (r readerCtx) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func (wk *walker) compressFile(ctx context.Context, path string) error {
	absfn := filepath.Join(wk.root, filepath.FromSlash(path))
	origst, err := os.Stat(absfn)
	if err != nil {
		wk.logger.Error("stat failed in compressFile", "path", path, "error", err)
		return tracerr.Wrapf(err, "failed to stat %s", path)
	}
	for _, c := range wk.compressors {
		outfn := absfn + c.ext
		if st, err := os.Stat(outfn); err == nil && !st.ModTime().Before(origst.ModTime()) {
			wk.logger.Info("skip compressing, up-to-date", "path", path, "compressed", path+c.ext)
			continue
		}
		if wk.dry {
			wk.logger.Info("dry-run: would compress file", "path", path, "ext", c.ext, "builtin", wk.builtin, "cmd", c.cmd)
			continue
		}
		var cerr error
		if wk.builtin {
			cerr = builtinCompress(ctx, c, absfn, outfn)
		} else {
			cmd := append(slices.Clone(c.cmd), absfn)
			if err := exec.CommandContext(ctx, cmd[0], cmd[1:]...).Run(); err != nil {
				cerr = tracerr.Wrapf(err, "compress command %v failed", cmd)
			}
		}
		if cerr != nil {
			wk.logger.Error("compress failed", "path", path, "ext", c.ext, "error", cerr)
			return cerr
		}
		st, err := os.Stat(outfn)
		if err != nil {
			wk.logger.Error("stat compressed file failed", "path", outfn, "error", err)
			return tracerr.Wrapf(err, "failed to stat %s", outfn)
		}
		if st.Size() >= origst.Size() {
			wk.logger.Info("compressed file is not smaller than original, removing", "path", path, "compressed", path+c.ext,
				"original_size", humanize.Bytes(uint64(origst.Size())), "compressed_size", humanize.Bytes(uint64(st.Size())))
			if err := os.Remove(outfn); err != nil {
				wk.logger.Error("remove compressed file failed", "path", outfn, "error", err)
				return tracerr.Wrapf(err, "failed to remove %s", outfn)
			}
			continue
		}
		wk.logger.Info("compressed file created", "path", path, "compressed", path+c.ext,
			"original_size", humanize.Bytes(uint64(origst.Size())), "compressed_size", humanize.Bytes(uint64(st.Size())))
	}
	return nil
}

func (wk *walker) cleanupFile(path string) error {
	absfn := filepath.Join(wk.root, filepath.FromSlash(path))
	origst, err := os.Stat(absfn)
	if err != nil {
		wk.logger.Error("stat failed", "path", path, "error", err)
		return tracerr.Wrapf(err, "failed to stat %s", path)
	}
	for _, c := range wk.compressors {
		outfn := absfn + c.ext
		st, err := os.Stat(outfn)
		if err != nil {
			wk.logger.Debug("not exists?", "path", path+c.ext)
			continue
		}
		if wk.cleanOld && !st.ModTime().Before(origst.ModTime()) {
			wk.logger.Info("skip cleanup, up-to-date", "path", path, "compressed", path+c.ext)
			continue
		}
		if wk.dry {
			wk.logger.Info("dry-run: would cleanup file", "path", path, "compressed", path+c.ext)
			continue
		}
		if err := os.Remove(outfn); err != nil {
			wk.logger.Error("remove compressed file failed", "path", outfn, "error", err)
			return tracerr.Wrapf(err, "failed to remove %s", outfn)
		}
		wk.logger.Info("removed compressed file", "path", path, "compressed", path+c.ext)
	}
	return nil
}

// walk visits every original file under root and runs fn on at most
// wk.jobs files concurrently. The first error cancels the rest.
func (wk *walker) walk(ctx context.Context, fn func(ctx context.Context, path string, info fs.FileInfo) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if wk.jobs > 0 {
		g.SetLimit(wk.jobs)
	}
	err := fs.WalkDir(os.DirFS(wk.root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || isVariant(d.Name()) || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			wk.logger.Error("stat failed", "path", path, "error", err)
			return err
		}
		g.Go(func() error {
			return fn(ctx, path, info)
		})
		return nil
	})
	if gerr := g.Wait(); gerr != nil {
		return gerr
	}
	if err != nil {
		return tracerr.Wrapf(err, "walk failed in %s", wk.root)
	}
	return nil
}

func (wk *walker) compressAll(ctx context.Context) error {
	return wk.walk(ctx, func(ctx context.Context, path string, info fs.FileInfo) error {
		if info.Size() < wk.minSize {
			wk.logger.Info("skip compressing, too small", "path", path, "size", humanize.Bytes(uint64(info.Size())), "min_size", wk.minSize)
			return nil
		}
		if wk.maxSize > 0 && info.Size() > wk.maxSize {
			wk.logger.Info("skip compressing, too large", "path", path, "size", humanize.Bytes(uint64(info.Size())), "max_size", wk.maxSize)
			return nil
		}
		wk.logger.Info("compressing file", "path", path)
		return wk.compressFile(ctx, path)
	})
}

func (wk *walker) cleanupAll(ctx context.Context) error {
	return wk.walk(ctx, func(_ context.Context, path string, _ fs.FileInfo) error {
		wk.logger.Info("cleanup file", "path", path, "old_only", wk.cleanOld)
		return wk.cleanupFile(path)
	})
}
