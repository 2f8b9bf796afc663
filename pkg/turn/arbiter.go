package turn

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/parlorvoice/parlor/pkg/wire"
)

// Speaker identifies the current turn holder.
type Speaker int

const (
	None Speaker = iota
	User
	Agent
)

// String returns the string representation of the speaker.
func (s Speaker) String() string {
	switch s {
	case None:
		return "none"
	case User:
		return "user"
	case Agent:
		return "agent"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Speaker) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Speaker) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "user":
		*s = User
	case "agent":
		*s = Agent
	default:
		*s = None
	}
	return nil
}

// State is a snapshot of the arbiter. Interrupted is true from the moment a
// barge-in is issued until the server closes the interrupted agent turn.
type State struct {
	Speaker     Speaker
	Interrupted bool
}

// ControlSender emits control events upstream. The connection engine
// implements it.
type ControlSender interface {
	SendControl(ev *wire.ClientEvent) error
}

// Arbiter is the per-connection turn state machine. One instance lives for
// the connection's lifetime and is reset to idle on reconnect.
type Arbiter struct {
	sender ControlSender
	logger *slog.Logger

	mu          sync.Mutex
	speaker     Speaker
	interrupted bool
	onChange    func(State)
}

// NewArbiter creates an idle arbiter that emits interrupts and aborts
// through sender. logger may be nil.
func NewArbiter(sender ControlSender, logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{sender: sender, logger: logger}
}

// OnChange registers a callback invoked on every state transition, including
// the transient pass through Interrupted during a barge-in. The callback
// runs with the arbiter lock held; it must not call back into the arbiter.
func (a *Arbiter) OnChange(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// State returns the current snapshot.
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{Speaker: a.speaker, Interrupted: a.interrupted}
}

// CanTransmit reports whether the local side may send audio. True only while
// the user holds the turn.
func (a *Arbiter) CanTransmit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaker == User
}

// BeginCapture claims the turn for the local user. Called when the user
// starts talking. If the agent is speaking this is a barge-in: an interrupt
// is sent upstream and the user is granted the turn optimistically.
func (a *Arbiter) BeginCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.speaker {
	case User:
		return nil
	case None:
		a.transition(User)
		return nil
	case Agent:
		if err := a.sender.SendControl(wire.NewInterrupt()); err != nil {
			return err
		}
		a.interrupted = true
		a.notify() // observable Interrupted phase before the grant
		a.transition(User)
		return nil
	}
	return nil
}

// EndCapture releases the user's turn. Called when the user stops talking.
// No-op unless the user currently holds the turn.
func (a *Arbiter) EndCapture() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.speaker == User {
		a.transition(None)
	}
}

// AbortAgentTurn cancels an in-progress agent turn without claiming it.
// Idempotent when the agent is not speaking.
func (a *Arbiter) AbortAgentTurn() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.speaker != Agent {
		return nil
	}
	if err := a.sender.SendControl(wire.NewTurnAbort()); err != nil {
		return err
	}
	a.transition(None)
	return nil
}

// HandleTurnStart applies a server turn-start. The server is authoritative:
// its grant replaces whatever the local state is, including an optimistic
// barge-in grant that the server declined.
func (a *Arbiter) HandleTurnStart(speaker wire.Speaker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch speaker {
	case wire.SpeakerUser:
		a.interrupted = false
		a.transition(User)
	case wire.SpeakerAgent:
		if a.interrupted {
			a.logger.Debug("turn: server retained agent turn after interrupt")
			a.interrupted = false
		}
		a.transition(Agent)
	default:
		a.logger.Warn("turn: turn-start with unknown speaker", "speaker", string(speaker))
	}
}

// HandleTurnEnd applies a server turn-end. Only the named speaker's turn is
// released; a stale turn-end for a party that no longer holds the turn is
// ignored.
func (a *Arbiter) HandleTurnEnd(speaker wire.Speaker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case speaker == wire.SpeakerAgent:
		a.interrupted = false
		if a.speaker == Agent {
			a.transition(None)
		}
	case speaker == wire.SpeakerUser && a.speaker == User:
		a.transition(None)
	}
}

// Reset returns the arbiter to idle. Called on reconnect.
func (a *Arbiter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interrupted = false
	if a.speaker != None {
		a.transition(None)
	}
}

func (a *Arbiter) transition(to Speaker) {
	if a.speaker == to {
		return
	}
	a.logger.Debug("turn: transition", "from", a.speaker.String(), "to", to.String())
	a.speaker = to
	a.notify()
}

func (a *Arbiter) notify() {
	if a.onChange != nil {
		a.onChange(State{Speaker: a.speaker, Interrupted: a.interrupted})
	}
}
