package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/five82/sockhttp/internal/client"
	"github.com/five82/sockhttp/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
	minRequestTimeout   = 5 * time.Second
)

// Poller sends one request at a fixed cadence and records each outcome in
// a state.Store. It owns its client: the first dial happens lazily and a
// closed session is replaced with Reconnect.
type Poller struct {
	store    *state.Store
	log      *zap.Logger
	socket   string
	req      Request
	interval time.Duration
	dial     []client.Option

	client *client.Client
	dialed bool
}

// NewPoller returns a poller for req on the socket at path.
func NewPoller(store *state.Store, path string, req Request, interval time.Duration, logger *zap.Logger, opts ...client.Option) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		store:    store,
		log:      logger,
		socket:   path,
		req:      req,
		interval: interval,
		dial:     opts,
	}
}

// Start launches the polling goroutine and returns immediately. The returned
// channel is closed once the goroutine has exited and released its session.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer p.close()

		failures := 0
		for {
			if err := p.refresh(ctx); err != nil {
				failures++
			} else {
				failures = 0
			}

			wait := p.interval
			if failures > 0 {
				wait = calculateBackoff(failures, p.interval)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// refresh runs one poll. A non-2xx answer is a result, not a failure.
func (p *Poller) refresh(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := p.ensureClient(ctx); err != nil {
		p.store.Update(nil, err)
		p.log.Warn("dial failed", zap.String("socket", p.socket), zap.Error(err))
		return err
	}

	pollCtx, cancel := context.WithTimeout(ctx, max(p.interval, minRequestTimeout))
	defer cancel()

	start := time.Now()
	resp, err := p.client.Send(pollCtx, p.req.Endpoint, p.req.Method, p.req.Headers, p.req.Body)
	latency := time.Since(start)

	var statusErr *client.StatusError
	switch {
	case err == nil:
		p.store.Update(&state.Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body, Latency: latency}, nil)
		return nil
	case errors.As(err, &statusErr):
		p.store.Update(&state.Result{StatusCode: statusErr.StatusCode, Body: statusErr.Body, Latency: latency}, nil)
		return nil
	}

	p.store.Update(nil, err)
	p.log.Warn("poll failed",
		zap.String("endpoint", p.req.Endpoint),
		zap.Stringer("kind", client.KindOf(err)),
		zap.Error(err),
	)
	if client.IsClosed(err) && ctx.Err() == nil {
		p.reconnect(ctx)
	}
	return err
}

func (p *Poller) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}
	c, err := client.Dial(ctx, p.socket, p.dial...)
	if err != nil {
		return err
	}
	if p.dialed {
		p.store.RecordReconnect()
	}
	p.client = c
	p.dialed = true
	return nil
}

func (p *Poller) reconnect(ctx context.Context) {
	c, err := p.client.Reconnect(ctx)
	if err != nil {
		// The old client is consumed either way; the next poll dials fresh.
		p.client = nil
		p.log.Warn("reconnect failed", zap.String("socket", p.socket), zap.Error(err))
		return
	}
	p.client = c
	p.store.RecordReconnect()
}

func (p *Poller) close() {
	if p.client != nil {
		_ = p.client.Abort()
		p.client = nil
	}
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
