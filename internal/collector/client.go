package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"TickSentinel/internal/model"
)

// DefaultRetryDelay is the fixed pause between connection attempts.
const DefaultRetryDelay = 5 * time.Second

// State is a stage of the connection lifecycle.
type State int32

const (
	Disconnected State = iota
	Connecting
	Authenticating
	Subscribing
	Streaming
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Subscribing:
		return "subscribing"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// AuthError reports that the feed explicitly rejected the credential.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authorization rejected (%s): %s", e.Code, e.Message)
	}
	return "authorization rejected: " + e.Message
}

// ConfigError reports a configuration problem no retry can fix.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "invalid feed configuration: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// IsTerminal reports whether err must stop the retry loop.
func IsTerminal(err error) bool {
	var ae *AuthError
	var ce *ConfigError
	return errors.As(err, &ae) || errors.As(err, &ce)
}

// TickHandler consumes one tick. The client does not read the next frame
// until the handler returns.
type TickHandler func(ctx context.Context, t model.Tick)

// Options configures a Client.
type Options struct {
	Endpoint   string
	Token      string
	Symbols    []string
	RetryDelay time.Duration
}

// Client owns at most one feed connection at a time and reconnects forever
// on transport errors.
type Client struct {
	opts   Options
	dialer Dialer
	log    *zap.Logger
	state  atomic.Int32

	// OnStateChange, when set before Run, is called on every transition.
	OnStateChange func(from, to State)
}

// NewClient creates a Client in the Disconnected state.
func NewClient(opts Options, dialer Dialer, logger *zap.Logger) *Client {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Client{opts: opts, dialer: dialer, log: logger.Named("collector")}
}

// State returns the current lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

func (c *Client) setState(to State) {
	from := State(c.state.Swap(int32(to)))
	if from == to {
		return
	}
	c.log.Info("state transition", zap.Stringer("from", from), zap.Stringer("to", to))
	if c.OnStateChange != nil {
		c.OnStateChange(from, to)
	}
}

// Run drives connect, authorize, subscribe and stream cycles until ctx is
// cancelled or a terminal error occurs. It never returns on transport errors.
func (c *Client) Run(ctx context.Context, handle TickHandler) error {
	if err := validateEndpoint(c.opts.Endpoint); err != nil {
		c.setState(Failed)
		return err
	}

	for {
		err := c.session(ctx, handle)
		if ctx.Err() != nil {
			c.setState(Closed)
			return ctx.Err()
		}
		if IsTerminal(err) {
			c.log.Error("feed stopped", zap.Error(err))
			c.setState(Failed)
			return err
		}

		c.setState(Disconnected)
		c.log.Warn("feed session ended, reconnecting",
			zap.Error(err), zap.Duration("retry_in", c.opts.RetryDelay))

		timer := time.NewTimer(c.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(Closed)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection from dial until it breaks.
func (c *Client) session(ctx context.Context, handle TickHandler) error {
	c.setState(Connecting)
	conn, err := c.dialer.Dial(ctx, c.opts.Endpoint)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()
	// unblocks a pending read on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.setState(Authenticating)
	if err := conn.WriteJSON(AuthorizeRequest{Authorize: c.opts.Token}); err != nil {
		return fmt.Errorf("send authorize: %w", err)
	}
	data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read authorize response: %w", err)
	}
	resp, err := decodeMessage(data)
	if err != nil {
		return fmt.Errorf("authorize response: %w", err)
	}
	if resp.Error != nil {
		return &AuthError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	c.log.Info("authorized")

	c.setState(Subscribing)
	if err := conn.WriteJSON(TicksRequest{Ticks: c.opts.Symbols}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	c.log.Info("subscribed", zap.Strings("symbols", c.opts.Symbols))

	c.setState(Streaming)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		msg, err := decodeMessage(data)
		if err != nil {
			return err
		}
		switch {
		case msg.Error != nil:
			c.log.Warn("feed error message",
				zap.String("msg_type", msg.MsgType),
				zap.String("code", msg.Error.Code),
				zap.String("message", msg.Error.Message))
		case msg.Tick != nil:
			// a frame read before cancellation is dropped, not handled
			if err := ctx.Err(); err != nil {
				return err
			}
			handle(ctx, *msg.Tick)
		}
	}
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &ConfigError{Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &ConfigError{Err: fmt.Errorf("endpoint %q: scheme must be ws or wss", endpoint)}
	}
	if u.Host == "" {
		return &ConfigError{Err: fmt.Errorf("endpoint %q: missing host", endpoint)}
	}
	return nil
}
