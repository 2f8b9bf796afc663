package client

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parlorvoice/parlor/pkg/session"
	"github.com/parlorvoice/parlor/pkg/turn"
	"github.com/parlorvoice/parlor/pkg/wire"
)

// TokenSource supplies the transport credential and the resumption
// identity. *auth.Manager implements it.
type TokenSource interface {
	AccessToken() string
	UISessionID() string
}

// Config configures a Client.
type Config struct {
	// URL is the realtime transport endpoint, e.g. "wss://api.parlor.dev/v1/live".
	// Required.
	URL string

	// Tokens supplies the access token presented when opening the transport
	// and the UI session ID carried across reconnects. Required.
	Tokens TokenSource

	// BaseDelay and MaxDelay bound the reconnect backoff. Defaults: 500ms
	// and 30s.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// MaxAttempts is the consecutive reconnect failure budget before the
	// connection is declared Failed. Default 8.
	MaxAttempts int

	// PageSize is the session index page requested during resync. Default 50.
	PageSize int

	// WireRate is the negotiated binary-frame sample rate. Default 16000.
	WireRate int

	// Sink receives decoded agent audio. Nil discards it. SinkRate, when it
	// differs from WireRate, inserts a resampler ahead of the sink.
	Sink     io.Writer
	SinkRate int

	// CacheSize bounds the hydrated-session cache. 0 keeps the default.
	CacheSize int

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// jitter scales each backoff delay; the default draws from [0.5, 1.5).
	// Overridable in tests for determinism.
	jitter func() float64
}

// Client is the connection engine. It owns the transport exclusively and
// composes the turn arbiter, session index, playback path, and
// initialization tracker.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	arbiter *turn.Arbiter
	index   *session.Index
	play    *playback
	stats   stats

	writeMu sync.Mutex

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	attempt    int
	localClose bool
	closed     chan struct{}
	init       *initTracker
	pending    map[string]*pendingCall
	catalogs   map[wire.EventType]json.RawMessage

	onStateChange func(State)
	onInitialized func()
	onTurnChange  func(turn.State)
	onTerminal    func(error)
}

// New creates a Client. No I/O happens until Connect.
func New(cfg Config) *Client {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.WireRate <= 0 {
		cfg.WireRate = 16000
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.jitter == nil {
		cfg.jitter = defaultJitter
	}

	c := &Client{
		cfg:      cfg,
		logger:   cfg.Logger,
		state:    Disconnected,
		init:     newInitTracker(wire.RequiredInitEvents()),
		pending:  make(map[string]*pendingCall),
		catalogs: make(map[wire.EventType]json.RawMessage),
	}
	c.arbiter = turn.NewArbiter(c, cfg.Logger)
	c.index = session.NewIndex(c, session.WithCacheSize(cfg.CacheSize), session.WithLogger(cfg.Logger))
	c.play = newPlayback(cfg.Sink, cfg.WireRate, cfg.SinkRate, cfg.Logger)
	c.arbiter.OnChange(c.turnChanged)
	return c
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Arbiter returns the turn arbiter.
func (c *Client) Arbiter() *turn.Arbiter {
	return c.arbiter
}

// Sessions returns the session index.
func (c *Client) Sessions() *session.Index {
	return c.index
}

// Initialized reports whether every required event kind has arrived on the
// current connection.
func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.init.initialized()
}

// Catalog returns the raw payload of the most recent push of the given
// kind, or nil.
func (c *Client) Catalog(kind wire.EventType) json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalogs[kind]
}

// Stats returns a snapshot of transport counters.
func (c *Client) Stats() Stats {
	return c.stats.snapshot()
}

// OnStateChange registers a callback invoked on every connection state
// transition.
func (c *Client) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// OnInitialized registers a callback fired once per connection when the
// required event set completes.
func (c *Client) OnInitialized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInitialized = fn
}

// OnTurnChange registers a callback for turn transitions. The callback runs
// on the dispatch path and must not call back into the arbiter.
func (c *Client) OnTurnChange(fn func(turn.State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTurnChange = fn
}

// OnTerminal registers a callback fired when the connection fails
// permanently (reconnect budget exhausted or credentials rejected).
func (c *Client) OnTerminal(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTerminal = fn
}

// turnChanged runs on every arbiter transition: barge-in flushes queued
// agent audio so the interrupted response stops playing promptly.
func (c *Client) turnChanged(st turn.State) {
	if st.Interrupted {
		if n := c.play.Flush(); n > 0 {
			c.logger.Debug("client: flushed playback on barge-in", "frames", n)
		}
	}
	c.mu.Lock()
	fn := c.onTurnChange
	c.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// setState transitions the connection state and notifies outside the lock.
func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.logger.Debug("client: state", "from", c.state.String(), "to", s.String())
	c.state = s
	fn := c.onStateChange
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (c *Client) terminal(err error) {
	c.mu.Lock()
	fn := c.onTerminal
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
