// Package natsclient provides the NATS/JetStream connectivity used by the
// flowgroup persistence layers: durable component state and versioned flow
// snapshots both live in JetStream key-value buckets.
package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/flowgroup/pkg/retry"
)

// Options configures the NATS connection
type Options struct {
	URL            string        // NATS server URL
	Name           string        // Connection name reported to the server
	ConnectTimeout time.Duration // Timeout for the initial connection
	MaxReconnects  int           // -1 for unlimited
	ReconnectWait  time.Duration // Delay between reconnect attempts
	Logger         *slog.Logger
}

// DefaultOptions returns sensible connection defaults
func DefaultOptions() Options {
	return Options{
		URL:            nats.DefaultURL,
		Name:           "flowgroup",
		ConnectTimeout: 5 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		Logger:         slog.Default(),
	}
}

// Client wraps a NATS connection with its JetStream context
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// Connect establishes a NATS connection and JetStream context, retrying the
// initial connection with backoff so a briefly unavailable server does not
// fail process startup.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		opts.URL = nats.DefaultURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	natsOpts := []nats.Option{
		nats.Name(opts.Name),
		nats.Timeout(opts.ConnectTimeout),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				opts.Logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			opts.Logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*nats.Conn, error) {
		return nats.Connect(opts.URL, natsOpts...)
	})
	if err != nil {
		return nil, fmt.Errorf("natsclient: connect to %s: %w", opts.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natsclient: create jetstream context: %w", err)
	}

	return &Client{nc: nc, js: js, logger: opts.Logger}, nil
}

// Conn returns the underlying NATS connection
func (c *Client) Conn() *nats.Conn { return c.nc }

// JetStream returns the JetStream context
func (c *Client) JetStream() jetstream.JetStream { return c.js }

// CreateKeyValueBucket creates the bucket if it does not exist and returns
// a handle to it
func (c *Client) CreateKeyValueBucket(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	bucket, err := c.js.CreateKeyValue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("natsclient: create kv bucket %s: %w", cfg.Bucket, err)
	}
	return bucket, nil
}

// Close drains and closes the connection
func (c *Client) Close() {
	if c.nc == nil || c.nc.IsClosed() {
		return
	}
	if err := c.nc.Drain(); err != nil {
		c.logger.Warn("NATS drain failed, closing hard", "error", err)
		c.nc.Close()
	}
}
