package client

import (
	"github.com/parlorvoice/parlor/pkg/wire"
)

// dispatch routes one parsed server event. Unknown kinds are logged and
// dropped so new server features never break older clients.
func (c *Client) dispatch(ev *wire.ServerEvent) {
	switch ev.Type {
	case wire.EventUnknown:
		c.logger.Debug("client: dropping unknown event", "type", ev.RawType, "event_id", ev.EventID)
		return

	case wire.EventTurnStart:
		c.arbiter.HandleTurnStart(ev.Speaker)
		return

	case wire.EventTurnEnd:
		c.arbiter.HandleTurnEnd(ev.Speaker)
		return

	case wire.EventSessionPage, wire.EventSessionDetail:
		if !c.deliver(ev) {
			c.logger.Debug("client: response with no pending request", "type", string(ev.Type), "request_id", ev.RequestID)
		}
		return

	case wire.EventTypeError:
		if ev.RequestID != "" && c.deliver(ev) {
			return
		}
		c.logger.Warn("client: server error event", "code", errCode(ev), "message", errMessage(ev))
		return

	case wire.EventActiveSession:
		c.markRequired(ev)
		if ev.Session != nil {
			c.index.AdoptActive(ev.Session)
		}
		return

	case wire.EventUserProfile, wire.EventAgentCatalog, wire.EventVoiceCatalog,
		wire.EventAvatarCatalog, wire.EventToolCatalog:
		c.mu.Lock()
		c.catalogs[ev.Type] = ev.Catalog
		c.mu.Unlock()
		c.markRequired(ev)
		return

	default:
		c.logger.Debug("client: unhandled event", "type", string(ev.Type))
	}
}

// markRequired feeds the init tracker and fires the one-shot initialized
// callback when the required set completes.
func (c *Client) markRequired(ev *wire.ServerEvent) {
	c.mu.Lock()
	done := c.init.mark(ev.Type)
	fn := c.onInitialized
	c.mu.Unlock()
	if done {
		c.logger.Info("client: initialization complete")
		if fn != nil {
			fn()
		}
	}
}

func errCode(ev *wire.ServerEvent) string {
	if ev.Err != nil {
		return ev.Err.Code
	}
	return ""
}

func errMessage(ev *wire.ServerEvent) string {
	if ev.Err != nil {
		return ev.Err.Message
	}
	return ""
}
