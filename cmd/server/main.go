package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wtnb75/prestatic"
	"github.com/xplshn/tracerr2"
)

func doListen(listen string) (net.Listener, error) {
	protos := strings.SplitN(listen, ":", 2)
	switch protos[0] {
	case "unix", "tcp", "tcp4", "tcp6":
		return net.Listen(protos[0], protos[1])
	}
	return net.Listen("tcp", listen)
}

func serve(ctx context.Context, cfg *serverConfig, logger *slog.Logger) error {
	root, err := prestatic.NewDirRoot(cfg.Dir)
	if err != nil {
		return tracerr.Wrapf(err, "failed to open root %s", cfg.Dir)
	}
	hdl := prestatic.NewHandler(prestatic.NewAssets(root, cfg.Options, logger), logger)
	server := http.Server{
		Handler:           hdl,
		ReadHeaderTimeout: 10 * time.Second,
	}
	listener, err := doListen(cfg.Listen)
	if err != nil {
		logger.Error("listen error", "error", err)
		return tracerr.Wrapf(err, "failed to listen on %s", cfg.Listen)
	}
	defer listener.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()
	logger.Warn("starting server", "addr", listener.Addr().String(), "dir", root.Dir())
	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return tracerr.Wrapf(err, "server error")
	}
	<-done
	return nil
}

func main() {
	var verbosity int
	logger := newLogger(0)

	app := &cli.Command{
		Name:                   "prestatic-server",
		Usage:                  "serve a directory, preferring precompressed .br/.gz siblings",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "serve directory", Sources: cli.EnvVars("PRESTATIC_DIR")},
			&cli.StringFlag{Name: "listen", Value: defaultListen, Usage: "listen address (unix:PATH, tcp:ADDR or ADDR)", Sources: cli.EnvVars("PRESTATIC_LISTEN")},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "increase log verbosity, repeatable", Config: cli.BoolConfig{Count: &verbosity}},
			&cli.StringFlag{Name: "config", Usage: "path to YAML config file"},
			&cli.BoolFlag{Name: "no-brotli", Usage: "never serve .br variants"},
			&cli.BoolFlag{Name: "no-gzip", Usage: "never serve .gz variants"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := &serverConfig{Listen: defaultListen}
			if path := cmd.String("config"); path != "" {
				loaded, err := loadConfig(path, logger)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.IsSet("dir") {
				cfg.Dir = cmd.String("dir")
			}
			if cmd.IsSet("listen") {
				cfg.Listen = cmd.String("listen")
			}
			if verbosity > 0 {
				cfg.Verbose = verbosity
			}
			cfg.DisableBrotli = cfg.DisableBrotli || cmd.Bool("no-brotli")
			cfg.DisableGzip = cfg.DisableGzip || cmd.Bool("no-gzip")
			if cfg.Dir == "" {
				return tracerr.New("directory must be specified")
			}
			logger = newLogger(cfg.Verbose)
			return serve(ctx, cfg, logger)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if e, ok := err.(*tracerr.Error); ok {
			e.Print()
		} else {
			logger.Error("server error", "error", err)
		}
		os.Exit(1)
	}
}
