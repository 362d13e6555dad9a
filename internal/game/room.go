package game

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// outboundQueueSize bounds how many messages may sit in a player's send
// channel before the drop policy kicks in.
const outboundQueueSize = 64

var errRoomFull = errors.New("room is full")

// Player represents a connected player and its bounded outbound queue.
type Player struct {
	ID       string
	SendChan chan []byte
	mu       sync.Mutex
}

// NewPlayer creates a connected player with a bounded outbound queue.
func NewPlayer(id string) *Player {
	return &Player{
		ID:       id,
		SendChan: make(chan []byte, outboundQueueSize),
	}
}

// Send queues a message for delivery to this player. Critical messages
// (player:death, match:ended, weapon:pickup_confirmed, room:joined) evict the
// oldest queued message when the queue is full instead of being dropped, so a
// lagging connection never misses a state-defining event even though it may
// miss a few interpolated position updates.
func (p *Player) Send(msg []byte, critical bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case p.SendChan <- msg:
		return
	default:
	}

	if !critical {
		log.Printf("dropping non-critical message for player %s (send queue full)", p.ID)
		return
	}

	select {
	case <-p.SendChan:
	default:
	}

	select {
	case p.SendChan <- msg:
	default:
		log.Printf("dropping critical message for player %s (send queue still full)", p.ID)
	}
}

// Room represents a game room with its own authoritative simulation. Each
// room owns a GameServer and a Match and supervises its own tick/broadcast
// loops, so one room's panic or slow tick never touches another room's
// players.
type Room struct {
	ID         string
	Players    []*Player
	MaxPlayers int
	GameServer *GameServer
	Match      *Match
	cancel     context.CancelFunc
	mu         sync.RWMutex
}

// NewRoom creates a room with its own GameServer and Match, wired with a real
// clock. capacity bounds how many players may join before the RoomManager
// opens a new room.
func NewRoom(capacity int) *Room {
	match := NewMatch()

	if os.Getenv("TEST_MODE") == "true" {
		match.SetTestMode()
		log.Println("Match created in TEST MODE (kill target: 2, time limit: 10s)")
	}

	return &Room{
		ID:         uuid.New().String(),
		Players:    make([]*Player, 0, capacity),
		MaxPlayers: capacity,
		GameServer: NewGameServer(nil),
		Match:      match,
	}
}

// Start launches the room's GameServer loops and begins the match clock,
// bound to ctx so a server-wide shutdown tears every room down together.
// Call this exactly once, right after the room is created.
func (r *Room) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.GameServer.SetOnFatal(func(err error) {
		log.Printf("room %s: fatal game server error: %v", r.ID, err)
		r.Match.EndMatch("server_error")
	})
	r.GameServer.Start(ctx)
	r.Match.Start()
}

// Stop cancels the room's tick/broadcast loops and waits for them to exit.
func (r *Room) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.GameServer.Stop()
}

// AddPlayer adds a player to the room and registers them as a match
// participant.
func (r *Room) AddPlayer(player *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Players) >= r.MaxPlayers {
		return errRoomFull
	}

	r.Players = append(r.Players, player)
	r.Match.Join(player.ID)
	return nil
}

// RemovePlayer removes a player from the room by ID
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, player := range r.Players {
		if player.ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty returns true if the room has no players (thread-safe)
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players) == 0
}

// IsFull returns true if the room is at capacity (thread-safe)
func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players) >= r.MaxPlayers
}

// PlayerCount returns the number of players in the room (thread-safe)
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players)
}

// Broadcast sends a message to all players in the room, optionally excluding
// a sender. critical controls the per-player drop policy when a connection's
// outbound queue is backed up; see Player.Send.
func (r *Room) Broadcast(message []byte, excludePlayerID string, critical bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, player := range r.Players {
		if player.ID != excludePlayerID {
			player.Send(message, critical)
		}
	}
}

// GetPlayer returns a player by ID, or nil if not found
func (r *Room) GetPlayer(playerID string) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, player := range r.Players {
		if player.ID == playerID {
			return player
		}
	}
	return nil
}

// GetPlayers returns a copy of all players in the room
func (r *Room) GetPlayers() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]*Player, len(r.Players))
	copy(players, r.Players)
	return players
}

// RoomManager manages all game rooms and player assignments. Rooms fill to
// capacity before a new one opens, and every room is playable the moment it
// is created — there is no separate waiting-room stage.
type RoomManager struct {
	rooms        map[string]*Room
	playerToRoom map[string]string
	capacity     int
	mu           sync.RWMutex
}

// NewRoomManager creates a room manager that opens rooms of the given
// capacity. A non-positive capacity falls back to DefaultRoomCapacity.
func NewRoomManager(capacity int) *RoomManager {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	return &RoomManager{
		rooms:        make(map[string]*Room),
		playerToRoom: make(map[string]string),
		capacity:     capacity,
	}
}

// AddPlayer places a player into the first room with free capacity, or opens
// a new room if every existing room is full. created reports whether a new
// room was opened, so callers know when they still need to start its
// GameServer/Match and wire its callbacks.
func (rm *RoomManager) AddPlayer(player *Player) (room *Room, created bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, existing := range rm.rooms {
		if !existing.IsFull() {
			if err := existing.AddPlayer(player); err != nil {
				continue
			}
			rm.playerToRoom[player.ID] = existing.ID
			log.Printf("Player %s joined room %s (%d/%d)", player.ID, existing.ID, existing.PlayerCount(), existing.MaxPlayers)
			return existing, false
		}
	}

	newRoom := NewRoom(rm.capacity)
	_ = newRoom.AddPlayer(player)
	rm.rooms[newRoom.ID] = newRoom
	rm.playerToRoom[player.ID] = newRoom.ID
	log.Printf("Room created: %s (capacity %d), first player: %s", newRoom.ID, rm.capacity, player.ID)
	return newRoom, true
}

// RemovePlayer removes a player from their room, stops and discards the room
// once it is empty, and notifies the remaining players.
func (rm *RoomManager) RemovePlayer(playerID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	roomID, exists := rm.playerToRoom[playerID]
	if !exists {
		return
	}
	delete(rm.playerToRoom, playerID)

	room, exists := rm.rooms[roomID]
	if !exists {
		return
	}

	room.RemovePlayer(playerID)
	room.GameServer.RemovePlayer(playerID)

	message := map[string]interface{}{
		"type":      "player:left",
		"timestamp": time.Now().UnixMilli(),
		"data": map[string]interface{}{
			"playerId": playerID,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling player:left message: %v", err)
	} else {
		room.Broadcast(msgBytes, "", false)
	}

	if room.IsEmpty() {
		room.Stop()
		delete(rm.rooms, roomID)
		log.Printf("Room %s removed (no players remaining)", roomID)
	}
}

// GetRoomByPlayerID finds a room by player ID
func (rm *RoomManager) GetRoomByPlayerID(playerID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	roomID, exists := rm.playerToRoom[playerID]
	if !exists {
		return nil
	}

	return rm.rooms[roomID]
}

// SendToPlayer sends a message to a player in any room.
// Returns true if the player was found and the message was queued.
func (rm *RoomManager) SendToPlayer(playerID string, msgBytes []byte, critical bool) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	roomID, inRoom := rm.playerToRoom[playerID]
	if !inRoom {
		return false
	}
	room, roomExists := rm.rooms[roomID]
	if !roomExists {
		return false
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return false
	}

	player.Send(msgBytes, critical)
	return true
}

// GetAllRooms returns a snapshot of all active rooms (thread-safe)
func (rm *RoomManager) GetAllRooms() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
