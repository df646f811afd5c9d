package prestatic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

type Config struct {
	RootDir       string `json:"rootdir,omitempty"`
	DisableBrotli bool   `json:"disableBrotli,omitempty"`
	DisableGzip   bool   `json:"disableGzip,omitempty"`
	// Fallthrough hands missing assets to the next handler instead of a 404.
	Fallthrough bool `json:"fallthrough,omitempty"`
}

func CreateConfig() *Config {
	return &Config{}
}

type Prestatic struct {
	next http.Handler
	hdl  http.Handler
	name string
}

// New builds the middleware form of the server, for proxies that load
// handlers through a (ctx, next, config, name) constructor.
func New(ctx context.Context, next http.Handler, config *Config, name string) (http.Handler, error) {
	if config.RootDir == "" {
		return nil, fmt.Errorf("rootdir cannot be empty")
	}
	root, err := NewDirRoot(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("rootdir %s: %w", config.RootDir, err)
	}
	logger := slog.Default().With("plugin", name)
	logger.Info("prestatic plugin initialized", "rootdir", root.Dir())
	assets := NewAssets(root, Options{DisableBrotli: config.DisableBrotli, DisableGzip: config.DisableGzip}, logger)
	hdl := NewHandler(assets, logger)
	if config.Fallthrough {
		hdl.NotFound = next
	}

	return &Prestatic{
		next: next,
		hdl:  hdl,
		name: name,
	}, nil
}

func (p *Prestatic) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	p.hdl.ServeHTTP(res, req)
}
