package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/parlorvoice/parlor/pkg/audio/framer"
	"github.com/parlorvoice/parlor/pkg/wire"
)

const frameDumpLimit = 500

// Send transmits one control event. It fails fast with ErrNotConnected
// outside the Connected state; callers that need delivery across a
// reconnect retry at their own layer.
func (c *Client) Send(ev *wire.ClientEvent) error {
	c.mu.Lock()
	conn := c.conn
	live := c.state == Connected
	c.mu.Unlock()
	if !live || conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("client: marshal %s: %w", string(ev.Type), err)
	}
	c.logger.Debug("client: send", "frame", truncate(data, frameDumpLimit))

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("client: write %s: %w", string(ev.Type), err)
	}
	c.stats.textSent.Add(1)
	c.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

// SendControl implements turn.ControlSender.
func (c *Client) SendControl(ev *wire.ClientEvent) error {
	return c.Send(ev)
}

// SendAudio transmits one captured chunk as a binary frame. Chunks offered
// while the user does not hold the turn are dropped with a warning rather
// than failing the capture pipeline.
func (c *Client) SendAudio(chunk *framer.Chunk) error {
	if !c.arbiter.CanTransmit() {
		c.stats.audioDropped.Add(1)
		c.logger.Warn("client: dropping audio chunk, user does not hold the turn")
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	live := c.state == Connected
	c.mu.Unlock()
	if !live || conn == nil {
		return ErrNotConnected
	}

	data := chunk.Bytes()
	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("client: write audio: %w", err)
	}
	c.stats.audioSent.Add(1)
	c.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

// Call sends a request event and blocks until the matching response (by
// request_id), the context is done, or the connection drops. An error
// envelope answering the request resolves to its decoded error.
func (c *Client) Call(ctx context.Context, ev *wire.ClientEvent) (*wire.ServerEvent, error) {
	ch := make(chan *wire.ServerEvent, 1)
	errCh := make(chan error, 1)

	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.pending[ev.EventID] = &pendingCall{resp: ch, err: errCh}
	closed := c.closed
	c.mu.Unlock()

	if err := c.Send(ev); err != nil {
		c.dropPending(ev.EventID)
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Type == wire.EventTypeError {
			return nil, resp.Err.ToError()
		}
		return resp, nil
	case err := <-errCh:
		return nil, err
	case <-closed:
		c.dropPending(ev.EventID)
		return nil, ErrNotConnected
	case <-ctx.Done():
		c.dropPending(ev.EventID)
		return nil, ctx.Err()
	}
}

type pendingCall struct {
	resp chan *wire.ServerEvent
	err  chan error
}

// deliver routes a response to the waiting Call, reporting whether one was
// found.
func (c *Client) deliver(ev *wire.ServerEvent) bool {
	c.mu.Lock()
	call, ok := c.pending[ev.RequestID]
	if ok {
		delete(c.pending, ev.RequestID)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	call.resp <- ev
	return true
}

func (c *Client) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// failPendingLocked fails every in-flight call. Caller holds c.mu.
func (c *Client) failPendingLocked(err error) {
	for id, call := range c.pending {
		delete(c.pending, id)
		select {
		case call.err <- err:
		default:
		}
	}
}

// ListSessions implements session.Fetcher over the live transport.
func (c *Client) ListSessions(ctx context.Context, offset, limit int) (*wire.SessionPage, error) {
	resp, err := c.Call(ctx, wire.NewSessionList(offset, limit))
	if err != nil {
		return nil, err
	}
	if resp.Type != wire.EventSessionPage {
		return nil, fmt.Errorf("client: unexpected response type %q to session-list", string(resp.Type))
	}
	return &wire.SessionPage{Sessions: resp.Sessions, Total: resp.Total}, nil
}

// GetSession implements session.Fetcher over the live transport.
func (c *Client) GetSession(ctx context.Context, id string) (*wire.SessionDetail, error) {
	resp, err := c.Call(ctx, wire.NewSessionGet(id))
	if err != nil {
		return nil, err
	}
	if resp.Type != wire.EventSessionDetail || resp.Session == nil {
		return nil, fmt.Errorf("client: unexpected response type %q to session-get", string(resp.Type))
	}
	return resp.Session, nil
}

// LoadSessions performs the initial page load after initialization.
func (c *Client) LoadSessions(ctx context.Context) error {
	page, err := c.ListSessions(ctx, 0, c.cfg.PageSize)
	if err != nil {
		return err
	}
	c.index.LoadFirstPage(page)
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
