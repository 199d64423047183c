package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one live transport connection carrying text frames.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens transport connections.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

const writeWait = 10 * time.Second

// WebsocketDialer dials the feed over websocket and keeps the connection
// alive with control pings.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	PingPeriod       time.Duration // zero disables pings and read deadlines
	ReadLimit        int64
	Proxy            string
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if d.Proxy != "" {
		u, err := url.Parse(d.Proxy)
		if err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("proxy %q: %w", d.Proxy, err)}
		}
		dialer.Proxy = http.ProxyURL(u)
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("dial: status %d, body: %s: %w", resp.StatusCode, body, err)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &wsConn{ws: ws, pingPeriod: d.PingPeriod, done: make(chan struct{})}
	if d.ReadLimit > 0 {
		ws.SetReadLimit(d.ReadLimit)
	}
	if c.pingPeriod > 0 {
		ws.SetPongHandler(func(string) error { return c.extendDeadline() })
		if err := c.extendDeadline(); err != nil {
			ws.Close()
			return nil, err
		}
		go c.keepalive()
	}
	return c, nil
}

type wsConn struct {
	ws         *websocket.Conn
	pingPeriod time.Duration
	writeMu    sync.Mutex
	done       chan struct{}
	closeOnce  sync.Once
}

// extendDeadline pushes the read deadline past the next expected pong.
func (c *wsConn) extendDeadline() error {
	if c.pingPeriod <= 0 {
		return nil
	}
	return c.ws.SetReadDeadline(time.Now().Add(c.pingPeriod * 2))
}

func (c *wsConn) keepalive() {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if err := c.extendDeadline(); err != nil {
			return nil, err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
