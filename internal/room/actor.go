// Package room implements the Room Actor: one single-consumer event queue
// per table, driving the poker state machine and issuing the
// post-transition persist/broadcast/timer pipeline. The machine itself
// (poker.RoomState) never suspends mid-transition — all I/O happens here,
// after a transition settles, on the actor's own goroutine.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"holdemroom/internal/broadcast"
	"holdemroom/internal/redact"
	"holdemroom/internal/store"
	"holdemroom/poker"
)

// EventType enumerates the typed events the actor's queue accepts: JOIN,
// LEAVE, START, INTENT, TIMER_EXPIRY, SUBSCRIBE, UNSUBSCRIBE, plus a
// handful of actor-internal events (deliver, disconnect-grace) that never
// cross the wire but still flow through the same serialized queue.
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventStart
	EventIntent
	EventTimerExpiry
	EventSubscribe
	EventUnsubscribe
	EventDisconnect
	EventReconnect
	eventDeliver
	eventRevealElapsed
	EventClose
)

// Event is one message posted to a room actor's queue.
type Event struct {
	Type        EventType
	PlayerID    string
	DisplayName string
	Action      poker.ActionType
	Amount      int64
	Subscriber  *Subscriber
	Payload     []byte // eventDeliver only: a published RoomSnapshot
	Response    chan error
}

// Subscriber is one connected socket's view of the room. PlayerID is empty
// for a spectator.
type Subscriber struct {
	ID       string
	PlayerID string
	Send     func(view redact.View)
}

// Actor drives one room's state machine off a single goroutine.
type Actor struct {
	RoomID string

	room *poker.RoomState

	events chan Event
	done   chan struct{}

	subscribers map[string]*Subscriber

	st     store.Store
	fabric broadcast.Fabric
	logger *log.Logger

	turnTimer       *time.Timer
	turnTimerPlayer string

	revealTimer *time.Timer

	disconnectTimers map[string]*time.Timer

	lastActivity atomic.Int64 // unix nanos, last event processed
	closed       atomic.Bool
}

// New creates a room actor and starts its event loop.
func New(roomID string, cfg poker.Config, st store.Store, fabric broadcast.Fabric) (*Actor, error) {
	rs, err := poker.NewRoomState(roomID, cfg)
	if err != nil {
		return nil, err
	}
	a := &Actor{
		RoomID:           roomID,
		room:             rs,
		events:           make(chan Event, 256),
		done:             make(chan struct{}),
		subscribers:      make(map[string]*Subscriber),
		st:               st,
		fabric:           fabric,
		logger:           log.WithPrefix(fmt.Sprintf("room %s", roomID)),
		disconnectTimers: make(map[string]*time.Timer),
	}
	go a.run()
	return a, nil
}

func (a *Actor) run() {
	a.lastActivity.Store(time.Now().UnixNano())
	for {
		select {
		case e := <-a.events:
			a.lastActivity.Store(time.Now().UnixNano())
			err := a.handle(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-a.done:
			return
		}
	}
}

// IsIdleFor reports whether no event has been processed for at least d —
// used by the lobby registry's sweep to reclaim empty, inactive rooms.
func (a *Actor) IsIdleFor(d time.Duration) bool {
	last := time.Unix(0, a.lastActivity.Load())
	return time.Since(last) >= d
}

// IsClosed reports whether Close has already been called.
func (a *Actor) IsClosed() bool {
	return a.closed.Load()
}

// PlayerCount returns the number of seated players (spectators included).
func (a *Actor) PlayerCount() int {
	return len(a.room.Snapshot().Players)
}

// submit enqueues an event and blocks until it has been processed.
func (a *Actor) submit(e Event) error {
	e.Response = make(chan error, 1)
	select {
	case a.events <- e:
	case <-a.done:
		return poker.ErrRoomClosed
	}
	select {
	case err := <-e.Response:
		return err
	case <-a.done:
		return poker.ErrRoomClosed
	}
}

// Join, Leave, StartGame, and Act are the external entry points the
// gateway calls; each posts one event to the actor's queue and waits for
// it to be processed.

func (a *Actor) Join(playerID, displayName string) error {
	return a.submit(Event{Type: EventJoin, PlayerID: playerID, DisplayName: displayName})
}

func (a *Actor) Leave(playerID string) error {
	return a.submit(Event{Type: EventLeave, PlayerID: playerID})
}

func (a *Actor) StartGame(playerID string) error {
	return a.submit(Event{Type: EventStart, PlayerID: playerID})
}

func (a *Actor) Act(playerID string, action poker.ActionType, amount int64) error {
	return a.submit(Event{Type: EventIntent, PlayerID: playerID, Action: action, Amount: amount})
}

// Subscribe registers a socket for broadcast delivery.
func (a *Actor) Subscribe(sub *Subscriber) error {
	return a.submit(Event{Type: EventSubscribe, Subscriber: sub})
}

func (a *Actor) Unsubscribe(subscriberID string) error {
	return a.submit(Event{Type: EventUnsubscribe, PlayerID: subscriberID})
}

// Disconnect arms the disconnect-grace timer for playerID.
func (a *Actor) Disconnect(playerID string) error {
	return a.submit(Event{Type: EventDisconnect, PlayerID: playerID})
}

// Reconnect cancels any pending disconnect-grace timer for playerID.
func (a *Actor) Reconnect(playerID string) error {
	return a.submit(Event{Type: EventReconnect, PlayerID: playerID})
}

func (a *Actor) Close() {
	if !a.closed.CompareAndSwap(false, true) {
		return
	}
	close(a.done)
	if a.turnTimer != nil {
		a.turnTimer.Stop()
	}
	if a.revealTimer != nil {
		a.revealTimer.Stop()
	}
	for _, t := range a.disconnectTimers {
		t.Stop()
	}
}

// Snapshot exposes the current (non-redacted) state for diagnostics/tests.
func (a *Actor) Snapshot() poker.RoomSnapshot {
	return a.room.Snapshot()
}

func (a *Actor) handle(e Event) error {
	switch e.Type {
	case EventJoin:
		_, err := a.room.Join(e.PlayerID, e.DisplayName)
		if err != nil {
			return err
		}
		return a.afterTransition()

	case EventLeave:
		if err := a.room.Leave(e.PlayerID); err != nil {
			return err
		}
		return a.afterTransition()

	case EventStart:
		if err := a.room.StartGame(e.PlayerID); err != nil {
			return err
		}
		return a.afterTransition()

	case EventIntent:
		if err := a.room.Act(e.PlayerID, e.Action, e.Amount); err != nil {
			return err
		}
		return a.afterTransition()

	case EventTimerExpiry:
		if err := a.room.ApplyTimeout(e.PlayerID); err != nil {
			return err
		}
		return a.afterTransition()

	case eventRevealElapsed:
		a.room.Cleanup()
		return a.afterTransition()

	case EventSubscribe:
		a.subscribers[e.Subscriber.ID] = e.Subscriber
		a.deliverTo(e.Subscriber, a.room.Snapshot())
		return nil

	case EventUnsubscribe:
		delete(a.subscribers, e.PlayerID)
		return nil

	case EventDisconnect:
		a.armDisconnectTimer(e.PlayerID)
		return nil

	case EventReconnect:
		a.cancelDisconnectTimer(e.PlayerID)
		return nil

	case eventDeliver:
		var snap poker.RoomSnapshot
		if err := json.Unmarshal(e.Payload, &snap); err != nil {
			a.logger.Warn("failed to decode broadcast record", "err", err)
			return nil
		}
		a.deliverAll(snap)
		return nil

	case EventClose:
		return nil

	default:
		return fmt.Errorf("unknown room event type: %d", e.Type)
	}
}

// afterTransition runs the post-transition pipeline, in order: persist,
// broadcast, then arm/disarm timers.
func (a *Actor) afterTransition() error {
	snap := a.room.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal room snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.st.Set(ctx, store.RoomKey(a.RoomID), data); err != nil {
		// Store writes are best-effort: log and keep going, the in-memory
		// actor state remains canonical.
		a.logger.Warn("room state persist failed", "err", err)
	}

	if err := a.fabric.Publish(ctx, a.RoomID, data); err != nil {
		a.logger.Warn("broadcast publish failed", "err", err)
	}

	a.rearmTimers(snap)
	return nil
}

// DeliverLocal is called by the shared Fabric's OnMessage callback (wired by
// the lobby) to hand this room's published record back onto its own actor
// queue, keeping subscriber-set reads on the single serialized goroutine —
// no external lock ever touches the subscriber map. Never blocks the
// fabric's own goroutine for long: the queue is buffered, and a full queue
// just drops this stale broadcast (a fresher one follows the next
// transition).
func (a *Actor) DeliverLocal(payload []byte) {
	select {
	case a.events <- Event{Type: eventDeliver, Payload: payload}:
	default:
		a.logger.Warn("dropped a broadcast record, event queue full")
	}
}

func (a *Actor) deliverAll(snap poker.RoomSnapshot) {
	for _, sub := range a.subscribers {
		a.deliverTo(sub, snap)
	}
}

func (a *Actor) deliverTo(sub *Subscriber, snap poker.RoomSnapshot) {
	view := redact.ForViewer(snap, sub.PlayerID)
	sub.Send(view)
}

// rearmTimers applies the timer lifecycle rules: the turn timer is armed on
// turn entry and cancelled on any valid action; the REVEAL->CLEANUP delay
// is likewise timer-driven rather than an immediate transition.
func (a *Actor) rearmTimers(snap poker.RoomSnapshot) {
	if a.turnTimer != nil {
		a.turnTimer.Stop()
		a.turnTimer = nil
	}
	if a.revealTimer != nil {
		a.revealTimer.Stop()
		a.revealTimer = nil
	}

	switch snap.Phase {
	case poker.PhasePreFlop, poker.PhaseFlop, poker.PhaseTurn, poker.PhaseRiver:
		if snap.ActivePlayerIndex < 0 || snap.ActivePlayerIndex >= len(snap.Players) {
			return
		}
		playerID := snap.Players[snap.ActivePlayerIndex].ID
		a.turnTimerPlayer = playerID
		a.turnTimer = time.AfterFunc(a.room.TurnTimeout(), func() {
			a.enqueueNoWait(Event{Type: EventTimerExpiry, PlayerID: playerID})
		})

	case poker.PhaseReveal:
		a.revealTimer = time.AfterFunc(a.room.RevealDelay(), func() {
			a.enqueueNoWait(Event{Type: eventRevealElapsed})
		})
	}
}

func (a *Actor) armDisconnectTimer(playerID string) {
	a.cancelDisconnectTimer(playerID)
	a.disconnectTimers[playerID] = time.AfterFunc(a.room.DisconnectGrace(), func() {
		a.enqueueNoWait(Event{Type: EventLeave, PlayerID: playerID})
	})
}

func (a *Actor) cancelDisconnectTimer(playerID string) {
	if t, ok := a.disconnectTimers[playerID]; ok {
		t.Stop()
		delete(a.disconnectTimers, playerID)
	}
}

// enqueueNoWait posts a fire-and-forget event from a timer goroutine; it
// never blocks on a Response channel the way submit does.
func (a *Actor) enqueueNoWait(e Event) {
	select {
	case a.events <- e:
	case <-a.done:
	}
}
