package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/five82/sockhttp/internal/app"
	"github.com/five82/sockhttp/internal/client"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// headerFlags collects repeated -H 'Name: value' flags in order.
type headerFlags []client.Header

func (h *headerFlags) String() string {
	parts := make([]string, 0, len(*h))
	for _, hdr := range *h {
		parts = append(parts, hdr.Name+": "+hdr.Value)
	}
	return strings.Join(parts, ", ")
}

func (h *headerFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return errors.New(`header must look like "Name: value"`)
	}
	*h = append(*h, client.Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	return nil
}

func run(args []string) int {
	fs := flag.NewFlagSet("sockctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (optional, defaults to ~/.config/sockhttp/config.toml)")
	socketPath := fs.String("socket", "", "unix socket path (overrides config)")
	method := fs.String("X", "GET", "request method")
	data := fs.String("d", "", "request body; with -codec it is read as JSON")
	codecName := fs.String("codec", "", "payload codec: json, cbor, proto or raw (overrides config)")
	watch := fs.Bool("watch", false, "poll the request and show the latest answer")
	poll := fs.Duration("poll", 0, "watch refresh interval (optional, defaults to 2s)")
	var headers headerFlags
	fs.Var(&headers, "H", "request header 'Name: value' (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: sockctl [flags] [endpoint]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	endpoint := "/"
	switch fs.NArg() {
	case 0:
	case 1:
		endpoint = fs.Arg(0)
	default:
		fs.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		SocketPath: *socketPath,
		Codec:      *codecName,
		PollEvery:  *poll,
		Request: app.Request{
			Method:   strings.ToUpper(*method),
			Endpoint: endpoint,
			Headers:  headers,
		},
	}
	if *data != "" {
		opts.Request.Body = []byte(*data)
	}
	if opts.PollEvery < 0 {
		opts.PollEvery = 0
	}

	if *watch {
		if err := app.Run(ctx, opts); err != nil {
			fmt.Fprintf(os.Stderr, "sockctl: %v\n", err)
			return 1
		}
		return 0
	}

	ok, err := app.Probe(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sockctl: %v\n", err)
		return 1
	}
	if !ok {
		return 1
	}
	return 0
}
