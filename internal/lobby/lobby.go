// Package lobby owns the set of live rooms: it creates a Room Actor on
// first reference, shares one Store Adapter and Broadcast Fabric across all
// of them, and sweeps idle, empty rooms on a fixed interval.
package lobby

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"holdemroom/internal/broadcast"
	"holdemroom/internal/room"
	"holdemroom/internal/store"
	"holdemroom/poker"
)

const (
	defaultIdleRoomTTL   = 10 * time.Minute
	defaultSweepInterval = 1 * time.Minute
)

// Lobby tracks every room actor currently resident on this node.
type Lobby struct {
	mu    sync.RWMutex
	rooms map[string]*room.Actor

	cfg    poker.Config
	st     store.Store
	fabric broadcast.Fabric

	idleRoomTTL   time.Duration
	sweepInterval time.Duration
	done          chan struct{}
	stopOnce      sync.Once
}

// New creates a lobby. cfg is the per-room config applied to every room
// created through this lobby; st and fabric are shared across all rooms.
func New(cfg poker.Config, st store.Store, fabric broadcast.Fabric) *Lobby {
	l := &Lobby{
		rooms:         make(map[string]*room.Actor),
		cfg:           cfg,
		st:            st,
		fabric:        fabric,
		idleRoomTTL:   defaultIdleRoomTTL,
		sweepInterval: defaultSweepInterval,
		done:          make(chan struct{}),
	}
	fabric.OnMessage(l.deliver)
	go l.sweepLoop()
	return l
}

// NewRoom allocates a fresh room id and its actor.
func (l *Lobby) NewRoom() (*room.Actor, error) {
	return l.getOrCreate(uuid.NewString())
}

// GetOrCreate returns the actor for roomID, creating one if it does not
// exist yet on this node.
func (l *Lobby) GetOrCreate(roomID string) (*room.Actor, error) {
	return l.getOrCreate(roomID)
}

// Get returns the actor for roomID if it is already resident, or nil.
func (l *Lobby) Get(roomID string) *room.Actor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rooms[roomID]
}

func (l *Lobby) getOrCreate(roomID string) (*room.Actor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.rooms[roomID]; ok && !a.IsClosed() {
		return a, nil
	}

	a, err := room.New(roomID, l.cfg, l.st, l.fabric)
	if err != nil {
		return nil, err
	}
	l.rooms[roomID] = a
	return a, nil
}

// deliver routes an incoming broadcast record to the local actor for that
// room, if this node has one resident.
func (l *Lobby) deliver(roomID string, payload []byte) {
	l.mu.RLock()
	a, ok := l.rooms[roomID]
	l.mu.RUnlock()
	if !ok {
		return
	}
	a.DeliverLocal(payload)
}

func (l *Lobby) sweepLoop() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweepIdle()
		case <-l.done:
			return
		}
	}
}

// sweepIdle closes and forgets any room actor that has had no players and
// no activity for the idle TTL.
func (l *Lobby) sweepIdle() {
	l.mu.Lock()
	var stale []string
	for id, a := range l.rooms {
		if a.IsClosed() || (a.PlayerCount() == 0 && a.IsIdleFor(l.idleRoomTTL)) {
			stale = append(stale, id)
		}
	}
	reclaimed := make([]*room.Actor, 0, len(stale))
	for _, id := range stale {
		reclaimed = append(reclaimed, l.rooms[id])
		delete(l.rooms, id)
	}
	l.mu.Unlock()

	for i, id := range stale {
		log.Debug("reclaiming idle room", "room", id)
		reclaimed[i].Close()
	}
}

// Stop shuts down every resident room actor and the shared fabric.
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		rooms := make([]*room.Actor, 0, len(l.rooms))
		for _, a := range l.rooms {
			rooms = append(rooms, a)
		}
		l.rooms = make(map[string]*room.Actor)
		l.mu.Unlock()

		for _, a := range rooms {
			a.Close()
		}
		_ = l.fabric.Close()
	})
}
