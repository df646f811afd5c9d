package main

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/buildkite/shellwords"
	"github.com/urfave/cli/v3"
	"github.com/xplshn/tracerr2"
)

// overrideCommands replaces the default command of each compressor whose
// override is non-empty. Overrides are split with shell quoting rules.
func overrideCommands(compressors []compressor, overrides map[string]string) error {
	for i := range compressors {
		line := overrides[compressors[i].ext]
		if line == "" {
			continue
		}
		words, err := shellwords.Split(line)
		if err != nil {
			return tracerr.Wrapf(err, "invalid command for %s: %q", compressors[i].ext, line)
		}
		if len(words) == 0 {
			return tracerr.New("empty command for " + compressors[i].ext)
		}
		compressors[i].cmd = words
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("args", "args", os.Args[1:])

	commonFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "target directory", Required: true},
			&cli.BoolFlag{Name: "dry-run", Usage: "dry run"},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: runtime.NumCPU(), Usage: "files processed in parallel"},
		}
	}

	app := &cli.Command{
		Name:  "compr-recursive",
		Usage: "create or remove .gz/.br siblings for every file in a tree",
		Commands: []*cli.Command{
			{
				Name:  "compress",
				Usage: "compress all files in tree, keeping originals",
				Flags: append(commonFlags(),
					&cli.Int64Flag{Name: "min-size", Value: 128, Usage: "minimum file size to compress"},
					&cli.Int64Flag{Name: "max-size", Value: 10 * 1024 * 1024, Usage: "maximum file size to compress"},
					&cli.StringFlag{Name: "gzip-cmd", Usage: "gzip command"},
					&cli.StringFlag{Name: "brotli-cmd", Usage: "brotli command"},
					&cli.BoolFlag{Name: "builtin", Usage: "use the in-process encoders instead of external commands"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					compressors := defaultCompressors()
					if err := overrideCommands(compressors, map[string]string{
						".gz": cmd.String("gzip-cmd"),
						".br": cmd.String("brotli-cmd"),
					}); err != nil {
						return err
					}
					wk := &walker{
						root:        cmd.String("dir"),
						compressors: compressors,
						builtin:     cmd.Bool("builtin"),
						dry:         cmd.Bool("dry-run"),
						minSize:     cmd.Int64("min-size"),
						maxSize:     cmd.Int64("max-size"),
						jobs:        int(cmd.Int("jobs")),
						logger:      logger,
					}
					return wk.compressAll(ctx)
				},
			},
			{
				Name:  "cleanup",
				Usage: "remove compressed files in tree",
				Flags: append(commonFlags(),
					&cli.BoolFlag{Name: "old", Usage: "remove only old compressed files"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					wk := &walker{
						root:        cmd.String("dir"),
						compressors: defaultCompressors(),
						dry:         cmd.Bool("dry-run"),
						cleanOld:    cmd.Bool("old"),
						jobs:        int(cmd.Int("jobs")),
						logger:      logger,
					}
					return wk.cleanupAll(ctx)
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if e, ok := err.(*tracerr.Error); ok {
			e.Print()
		} else {
			logger.Error("compr-recursive failed", "error", err)
		}
		os.Exit(1)
	}
}
