package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/five82/sockhttp/internal/client"
	"github.com/five82/sockhttp/internal/codec"
	"github.com/five82/sockhttp/internal/config"
	"github.com/five82/sockhttp/internal/observability"
	"github.com/five82/sockhttp/internal/prefs"
	"github.com/five82/sockhttp/internal/state"
	"github.com/five82/sockhttp/internal/ui"
)

// Request describes the exchange sockctl issues.
type Request struct {
	Method   string
	Endpoint string
	Headers  []client.Header
	Body     []byte
}

// Options configure sockctl. Zero values defer to the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/sockhttp/prefs.toml
	SocketPath string
	Codec      string // "raw" forces raw bytes even when the config names a codec
	PollEvery  time.Duration
	Request    Request
	Out        io.Writer // Probe output; nil means os.Stdout
}

type env struct {
	cfg    config.Config
	log    *zap.Logger
	close  func()
	codecs *codec.Registry
	req    Request
}

func setup(opts Options, quietStderr bool) (env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return env{}, fmt.Errorf("load config: %w", err)
	}
	if opts.SocketPath != "" {
		path, err := config.ExpandPath(opts.SocketPath)
		if err != nil {
			return env{}, fmt.Errorf("socket path: %w", err)
		}
		cfg.SocketPath = path
	}
	if opts.Codec != "" {
		cfg.Codec = strings.ToLower(strings.TrimSpace(opts.Codec))
		if err := config.ValidateCodec(cfg.Codec); err != nil {
			return env{}, err
		}
	}
	if cfg.Codec == "raw" {
		cfg.Codec = ""
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	logger, closeLog := zap.NewNop(), func() {}
	if !quietStderr || cfg.Log.File != "" {
		logger, closeLog, err = observability.SetupLogger(cfg.Log)
		if err != nil {
			return env{}, fmt.Errorf("setup logger: %w", err)
		}
	}

	codecs, err := codec.Default()
	if err != nil {
		closeLog()
		return env{}, fmt.Errorf("init codecs: %w", err)
	}

	req := opts.Request
	if req.Method == "" {
		req.Method = "GET"
	}
	if req.Endpoint == "" {
		req.Endpoint = "/"
	}

	return env{cfg: cfg, log: logger, close: closeLog, codecs: codecs, req: req}, nil
}

func (e env) dialOptions() []client.Option {
	opts := []client.Option{client.WithLogger(e.log)}
	if e.cfg.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(e.cfg.UserAgent))
	}
	return opts
}

// Run polls the configured request and shows the latest answer in the watch
// view until the context is cancelled or the user quits. Logs are dropped
// unless a log file is configured, since the view owns the terminal.
func Run(ctx context.Context, opts Options) error {
	e, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer e.close()

	userPrefs := prefs.Load(opts.PrefsPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	poller := NewPoller(store, e.cfg.SocketPath, e.req, e.cfg.PollInterval, e.log, e.dialOptions()...)
	done := poller.Start(ctx)

	uiOpts := ui.Options{
		Store:     store,
		Socket:    e.cfg.SocketPath,
		Target:    e.req.Method + " " + e.req.Endpoint,
		Codecs:    e.codecs,
		PollTick:  e.cfg.PollInterval,
		ThemeName: userPrefs.Theme,
		Pretty:    userPrefs.Pretty,
		PrefsPath: opts.PrefsPath,
	}
	err = ui.Run(ctx, uiOpts)
	cancel()
	<-done
	return err
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
