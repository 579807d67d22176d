// Package gateway translates external wire messages into room actor events
// and vice versa. Each socket carries a per-connection context
// {roomId, playerId}; reconnecting with a previously issued playerId
// reattaches the session and cancels any pending disconnect-grace timer.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"holdemroom/internal/lobby"
	"holdemroom/internal/redact"
	"holdemroom/internal/room"
	"holdemroom/poker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// envelope is the wire-level message shape for both directions: a type tag
// plus an opaque JSON body.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type joinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
	PlayerID string `json:"playerId,omitempty"`
}

type joinedRoomResponse struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type sendIntentRequest struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Gateway upgrades HTTP connections to websockets and wires each socket's
// traffic to the lobby's room actors.
type Gateway struct {
	lobby *lobby.Lobby
	log   *log.Logger
}

func New(l *lobby.Lobby) *Gateway {
	return &Gateway{lobby: l, log: log.WithPrefix("gateway")}
}

// session is one connected socket's context.
type session struct {
	gw   *Gateway
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	roomID   string
	playerID string
	actor    *room.Actor
	subID    string
}

// HandleWebSocket upgrades the request and starts the session's pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", "err", err)
		return
	}

	s := &session{
		gw:   g,
		conn: conn,
		send: make(chan []byte, 64),
	}
	go s.writePump()
	go s.readPump()
}

func (s *session) readPump() {
	defer s.teardown()

	s.conn.SetReadLimit(65536)
	s.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.gw.log.Debug("read error", "err", err)
			}
			return
		}
		s.handle(data)
	}
}

func (s *session) handle(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendError("invalid message envelope")
		return
	}

	switch env.Type {
	case "join_room":
		s.handleJoinRoom(env.Data)
	case "start_game":
		s.handleStartGame()
	case "send_intent":
		s.handleSendIntent(env.Data)
	default:
		s.sendError("unknown event type: " + env.Type)
	}
}

func (s *session) handleJoinRoom(data json.RawMessage) {
	var req joinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.sendError("join_room requires roomId")
		return
	}

	a, err := s.gw.lobby.GetOrCreate(req.RoomID)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}

	if err := a.Join(playerID, req.Nickname); err != nil {
		s.sendError(err.Error())
		return
	}

	s.mu.Lock()
	previousActor, previousSub := s.actor, s.subID
	s.roomID = req.RoomID
	s.playerID = playerID
	s.actor = a
	s.subID = uuid.NewString()
	subID := s.subID
	s.mu.Unlock()

	if previousActor != nil && previousSub != "" {
		_ = previousActor.Unsubscribe(previousSub)
	}

	_ = a.Reconnect(playerID)

	sub := &room.Subscriber{
		ID:       subID,
		PlayerID: playerID,
		Send:     s.deliverView,
	}
	if err := a.Subscribe(sub); err != nil {
		s.sendError(err.Error())
		return
	}

	s.sendEnvelope("joined_room", joinedRoomResponse{RoomID: req.RoomID, PlayerID: playerID})
}

func (s *session) handleStartGame() {
	a, playerID, ok := s.current()
	if !ok {
		s.sendError("not in a room")
		return
	}
	if err := a.StartGame(playerID); err != nil {
		s.sendError(err.Error())
	}
}

func (s *session) handleSendIntent(data json.RawMessage) {
	a, playerID, ok := s.current()
	if !ok {
		s.sendError("not in a room")
		return
	}

	var req sendIntentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError("invalid send_intent payload")
		return
	}
	action, ok := poker.ParseActionType(req.Type)
	if !ok {
		s.sendError("unknown intent type: " + req.Type)
		return
	}
	if err := a.Act(playerID, action, req.Amount); err != nil {
		s.sendError(err.Error())
	}
}

func (s *session) current() (*room.Actor, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actor == nil {
		return nil, "", false
	}
	return s.actor, s.playerID, true
}

// deliverView is the Subscriber.Send callback: it marshals a redacted view
// and pushes it onto this socket's write queue, dropping it if the queue is
// backed up rather than blocking the room actor.
func (s *session) deliverView(view redact.View) {
	data, err := json.Marshal(envelope{Type: "gameState", Data: mustMarshal(view)})
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
		s.gw.log.Warn("dropped snapshot delivery, socket send buffer full", "player", s.playerID)
	}
}

func (s *session) sendEnvelope(eventType string, payload interface{}) {
	data, err := json.Marshal(envelope{Type: eventType, Data: mustMarshal(payload)})
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
	}
}

func (s *session) sendError(msg string) {
	s.sendEnvelope("error", errorResponse{Message: msg})
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

func (s *session) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown runs when the read pump exits: it arms the disconnect-grace
// timer on the player's actor rather than immediately removing the seat,
// giving a reconnecting socket a window to reclaim it.
func (s *session) teardown() {
	s.mu.Lock()
	a, playerID, subID := s.actor, s.playerID, s.subID
	s.mu.Unlock()

	if a != nil && subID != "" {
		_ = a.Unsubscribe(subID)
	}
	if a != nil && playerID != "" {
		_ = a.Disconnect(playerID)
	}
	close(s.send)
}
