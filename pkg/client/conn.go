package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parlorvoice/parlor/pkg/wire"
)

func defaultJitter() float64 {
	return 0.5 + rand.Float64()
}

// Connect opens the transport and starts the read loop. It returns once the
// connection is established and the hello has been sent; required init
// events arrive asynchronously (see OnInitialized).
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.URL == "" || c.cfg.Tokens == nil {
		return fmt.Errorf("client: config requires URL and Tokens")
	}
	c.mu.Lock()
	if c.state == Connected || c.state == Connecting || c.state == Reconnecting {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = Connecting
	c.localClose = false
	c.attempt = 0
	c.closed = make(chan struct{})
	fn := c.onStateChange
	c.mu.Unlock()
	if fn != nil {
		fn(Connecting)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(Disconnected)
		return err
	}
	c.install(conn)
	return c.sendHello()
}

// Disconnect closes the transport deliberately. No reconnection is
// attempted. Safe to call in any state.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.localClose = true
	if c.closed != nil {
		select {
		case <-c.closed:
		default:
			close(c.closed)
		}
	}
	conn := c.conn
	c.conn = nil
	c.state = Closing
	c.failPendingLocked(ErrNotConnected)
	fn := c.onStateChange
	c.mu.Unlock()
	if fn != nil {
		fn(Closing)
	}

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
	c.setState(Disconnected)
	return nil
}

// Close shuts the client down, including the playback path. The client
// cannot be reconnected afterwards.
func (c *Client) Close() error {
	err := c.Disconnect()
	c.play.close()
	return err
}

// dial opens one websocket attempt against the configured endpoint,
// presenting the access token and resumption identity as query parameters.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("client: parse url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", c.cfg.Tokens.AccessToken())
	if sid := c.cfg.Tokens.UISessionID(); sid != "" {
		q.Set("ui_session_id", sid)
	}
	u.RawQuery = q.Encode()

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("client: dial %s: %w", c.cfg.URL, err)
	}
	return conn, nil
}

// install adopts a freshly dialed connection: per-connection state is
// reset so the post-connect snapshot is authoritative, then the read loop
// starts.
func (c *Client) install(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.attempt = 0
	c.init.reset()
	c.mu.Unlock()

	c.arbiter.Reset()
	c.play.Flush()
	c.setState(Connected)
	go c.readLoop(conn)
}

// sendHello announces the client on a new connection, carrying the UI
// session ID so the server can resume state.
func (c *Client) sendHello() error {
	return c.Send(wire.NewClientHello(c.cfg.Tokens.UISessionID()))
}

func (c *Client) readLoop(conn *websocket.Conn) {
	var err error
	for {
		var mt int
		var data []byte
		mt, data, err = conn.ReadMessage()
		if err != nil {
			break
		}
		c.stats.bytesReceived.Add(uint64(len(data)))
		switch mt {
		case websocket.BinaryMessage:
			c.stats.audioReceived.Add(1)
			c.play.enqueue(data)
		case websocket.TextMessage:
			c.stats.textReceived.Add(1)
			ev, perr := wire.ParseServerEvent(data)
			if perr != nil {
				c.logger.Warn("client: dropping malformed event", "error", perr)
				continue
			}
			c.dispatch(ev)
		}
	}
	c.readExited(conn, err)
}

// readExited handles a read loop ending. A deliberate close ends here
// quietly; anything else starts the reconnect loop.
func (c *Client) readExited(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn || c.localClose {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	closed := c.closed
	c.failPendingLocked(fmt.Errorf("%w: %v", ErrNotConnected, err))
	c.mu.Unlock()

	c.logger.Warn("client: connection lost", "error", err)
	c.setState(Reconnecting)
	go c.reconnectLoop(closed)
}

// reconnectLoop retries with exponential backoff until it reconnects, the
// attempt budget runs out, or the client is closed.
func (c *Client) reconnectLoop(closed chan struct{}) {
	for {
		c.mu.Lock()
		attempt := c.attempt
		c.attempt++
		c.mu.Unlock()

		if attempt >= c.cfg.MaxAttempts {
			c.logger.Error("client: reconnect budget exhausted", "attempts", attempt)
			c.setState(Failed)
			c.terminal(fmt.Errorf("%w: %d attempts", ErrConnectionFailed, attempt))
			return
		}

		delay := c.backoff(attempt)
		c.logger.Info("client: reconnecting", "attempt", attempt+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-closed:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			if IsAuthRejected(err) {
				c.logger.Error("client: credentials rejected during reconnect")
				c.setState(Failed)
				c.terminal(err)
				return
			}
			c.logger.Warn("client: reconnect attempt failed", "error", err)
			continue
		}

		c.mu.Lock()
		if c.localClose {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.mu.Unlock()

		c.stats.reconnects.Add(1)
		c.install(conn)
		if err := c.sendHello(); err != nil {
			// The read loop on the new connection notices the failure
			// and starts a fresh reconnect cycle.
			c.logger.Warn("client: hello after reconnect failed", "error", err)
			return
		}
		go c.resyncIndex()
		return
	}
}

// resyncIndex refreshes the first session page after a reconnect;
// replacing the index wholesale discards any state the server may have
// changed while the client was offline.
func (c *Client) resyncIndex() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	page, err := c.ListSessions(ctx, 0, c.cfg.PageSize)
	if err != nil {
		c.logger.Warn("client: session index resync failed", "error", err)
		return
	}
	c.index.LoadFirstPage(page)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.BaseDelay << attempt
	if d <= 0 || d > c.cfg.MaxDelay {
		d = c.cfg.MaxDelay
	}
	return time.Duration(float64(d) * c.cfg.jitter())
}
