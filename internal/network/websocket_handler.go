package network

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stickarena/arena-server/internal/config"
	"github.com/stickarena/arena-server/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// MVP: Allow all origins (for localhost development)
		// Production: Restrict to your domain
		return true
	},
}

// Message represents the standard WebSocket message format
type Message struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// WebSocketHandler manages WebSocket connections and room management. Unlike
// the single shared GameServer this handler once held, every room now owns
// its own GameServer and Match; the handler's job is to wire callbacks on a
// room the moment it is created and start its loops.
type WebSocketHandler struct {
	roomManager       *game.RoomManager
	cfg               config.Config
	ctx               context.Context
	timerInterval     time.Duration // Interval for match timer broadcasts (default 1s)
	validator         *SchemaValidator
	outgoingValidator *SchemaValidator
	deltaMu           sync.Mutex
	deltaTrackers     map[string]*DeltaTracker // room ID -> per-client delta compression state
}

// NewWebSocketHandler creates a new WebSocket handler with default configuration
func NewWebSocketHandler() *WebSocketHandler {
	return NewWebSocketHandlerWithConfig(config.Default())
}

// NewWebSocketHandlerWithConfig creates a WebSocket handler from an explicit
// config.Config, used for a custom ROOM_CAPACITY, timer interval, etc.
func NewWebSocketHandlerWithConfig(cfg config.Config) *WebSocketHandler {
	// Use singleton schema loaders to avoid loading schemas multiple times
	// This prevents race conditions and reduces memory usage in tests
	schemaLoader := GetClientToServerSchemaLoader()
	outgoingSchemaLoader := GetServerToClientSchemaLoader()

	return &WebSocketHandler{
		roomManager:       game.NewRoomManager(cfg.RoomCapacity),
		cfg:               cfg,
		ctx:               context.Background(),
		timerInterval:     1 * time.Second,
		validator:         NewSchemaValidator(schemaLoader),
		outgoingValidator: NewSchemaValidator(outgoingSchemaLoader),
		deltaTrackers:     make(map[string]*DeltaTracker),
	}
}

// deltaTrackerFor returns the delta-compression tracker for a room, creating
// one the first time the room's callbacks are wired.
func (h *WebSocketHandler) deltaTrackerFor(roomID string) *DeltaTracker {
	h.deltaMu.Lock()
	defer h.deltaMu.Unlock()

	tracker, ok := h.deltaTrackers[roomID]
	if !ok {
		tracker = NewDeltaTracker()
		h.deltaTrackers[roomID] = tracker
	}
	return tracker
}

// cleanupPlayerDelta drops a disconnected player's delta-tracking state and
// discards the room's tracker entirely once the room has no players left.
func (h *WebSocketHandler) cleanupPlayerDelta(room *game.Room, playerID string) {
	h.deltaMu.Lock()
	tracker, ok := h.deltaTrackers[room.ID]
	h.deltaMu.Unlock()
	if !ok {
		return
	}

	tracker.RemoveClient(playerID)

	if room.IsEmpty() {
		h.deltaMu.Lock()
		delete(h.deltaTrackers, room.ID)
		h.deltaMu.Unlock()
	}
}

// wireRoomCallbacks registers this handler's message-processing callbacks on
// a freshly created room's GameServer, each closure capturing the room so
// broadcasts and lookups stay scoped to it instead of leaking across rooms.
func (h *WebSocketHandler) wireRoomCallbacks(room *game.Room) {
	room.GameServer.SetBroadcastFunc(func(playerStates []game.PlayerStateSnapshot) {
		h.broadcastPlayerStates(room, playerStates)
		h.broadcastStateDeltas(room, playerStates)
	})
	room.GameServer.SetSnapshotFunc(func(playerStates []game.PlayerStateSnapshot) {
		h.broadcastStateSnapshot(room, playerStates)
	})
	room.GameServer.SetOnReloadComplete(func(playerID string) {
		h.onReloadComplete(room, playerID)
	})
	room.GameServer.SetOnHit(func(hit game.HitEvent) {
		h.onHit(room, hit)
	})
	room.GameServer.SetOnRespawn(func(playerID string, position game.Vector2) {
		h.onRespawn(room, playerID, position)
	})
	room.GameServer.SetOnWeaponRespawn(func(crate *game.WeaponCrate) {
		h.onWeaponRespawn(room, crate)
	})
	room.GameServer.SetOnRollEnd(func(playerID string, reason string) {
		h.onRollEnd(room, playerID, reason)
	})
}

// matchTimerLoop broadcasts match timer updates at the configured interval
func (h *WebSocketHandler) matchTimerLoop(ctx context.Context) {
	ticker := time.NewTicker(h.timerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Match timer loop stopped")
			return
		case <-ticker.C:
			h.broadcastMatchTimers()
		}
	}
}

// Global handler instance for the legacy function to share room state
// Uses lazy initialization to prevent schema loading at package init time
var (
	globalHandler       *WebSocketHandler
	globalHandlerOnce   sync.Once
	globalHandlerConfig = config.Default()
)

// SetGlobalHandlerConfig supplies the config.Config the global handler is
// built with. Must be called before the first StartGlobalHandler/
// HandleWebSocket call; later calls are no-ops once the handler exists.
func SetGlobalHandlerConfig(cfg config.Config) {
	globalHandlerConfig = cfg
}

// getGlobalHandler returns the singleton global handler instance
func getGlobalHandler() *WebSocketHandler {
	globalHandlerOnce.Do(func() {
		globalHandler = NewWebSocketHandlerWithConfig(globalHandlerConfig)
	})
	return globalHandler
}

// resetGlobalHandler resets the global handler (for testing only)
func resetGlobalHandler() {
	globalHandler = nil
	globalHandlerOnce = sync.Once{}
}

// Start records ctx (used to start every room's GameServer from here on) and
// launches the match timer broadcast loop.
func (h *WebSocketHandler) Start(ctx context.Context) {
	h.ctx = ctx
	go h.matchTimerLoop(ctx)
}

// Stop tears down every active room's GameServer loops.
func (h *WebSocketHandler) Stop() {
	for _, room := range h.roomManager.GetAllRooms() {
		room.Stop()
	}
}

// StartGlobalHandler starts the global handler
func StartGlobalHandler(ctx context.Context) {
	getGlobalHandler().Start(ctx)
}

// StopGlobalHandler stops the global handler
func StopGlobalHandler() {
	getGlobalHandler().Stop()
}

// validateOutgoingMessage validates outgoing server→client messages against JSON schemas
// Only validates when ENABLE_SCHEMA_VALIDATION environment variable is set to "true"
// Returns nil if validation passes or is disabled, error if validation fails
func (h *WebSocketHandler) validateOutgoingMessage(messageType string, data interface{}) (err error) {
	// Check if schema validation is enabled (development mode only)
	if os.Getenv("ENABLE_SCHEMA_VALIDATION") != "true" {
		return nil // Skip validation in production
	}

	// Recover from any panics in the validator library (e.g., NaN values)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Schema validator panicked for %s: %v", messageType, r)
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()

	// Map message type to schema name (message:type_subtype → message-type-subtype-data)
	// Server-to-client schemas follow the pattern: {message-type}-data.json
	// Replace colons and underscores with hyphens to match filename convention
	schemaName := strings.ReplaceAll(messageType, ":", "-")
	schemaName = strings.ReplaceAll(schemaName, "_", "-")
	schemaName = schemaName + "-data"

	// Validate the data against the schema
	err = h.outgoingValidator.Validate(schemaName, data)
	if err != nil {
		log.Printf("Outgoing message validation failed for %s: %v", messageType, err)
		return err
	}

	return nil
}

// idleTimeout returns how long a connection may go without a client frame
// before it is dropped, per spec.md's IDLE_TIMEOUT_MS.
func (h *WebSocketHandler) idleTimeout() time.Duration {
	return time.Duration(h.cfg.IdleTimeoutMs) * time.Millisecond
}

// HandleWebSocket upgrades HTTP connection to WebSocket and manages message loop
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	defer conn.Close()

	// Create player with unique ID and a bounded outbound queue
	playerID := uuid.New().String()
	player := game.NewPlayer(playerID)

	log.Printf("Client connected: %s", playerID)

	room, created := h.roomManager.AddPlayer(player)
	if created {
		h.wireRoomCallbacks(room)
		room.Start(h.ctx)
	}
	room.GameServer.AddPlayer(playerID)

	h.sendRoomJoined(room, playerID)
	for _, p := range room.GetPlayers() {
		h.sendWeaponSpawns(room, p.ID)
	}
	h.sendInitialSnapshot(room, playerID)

	// Start goroutine to send messages to client
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range player.SendChan {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("Write error for %s: %v", playerID, err)
				return
			}
		}
	}()

	if timeout := h.idleTimeout(); timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
	}

	// Message handling loop
	for {
		// Read message from client
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			} else {
				log.Printf("Client disconnected: %s", playerID)
			}
			break
		}

		if timeout := h.idleTimeout(); timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		}

		// Parse JSON message
		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}

		// Handle different message types
		switch msg.Type {
		case "input:state":
			h.handleInputState(playerID, msg.Data)

		case "player:shoot":
			h.handlePlayerShoot(playerID, msg.Data)

		case "player:reload":
			h.handlePlayerReload(playerID)

		case "weapon:pickup_attempt":
			h.handleWeaponPickup(playerID, msg.Data)

		case "player:melee_attack":
			h.handlePlayerMeleeAttack(playerID, msg.Data)

		case "player:dodge_roll":
			h.handlePlayerDodgeRoll(playerID)

		default:
			// Unknown kind: log, drop the message, keep the connection open
			log.Printf("Unknown message type %q from %s", msg.Type, playerID)
		}
	}

	// Clean up on disconnect
	h.cleanupPlayerDelta(room, playerID)
	h.roomManager.RemovePlayer(playerID)
	close(player.SendChan)
	<-done // Wait for send goroutine to finish

	log.Printf("Connection closed: %s", playerID)
}

// sendRoomJoined sends a room:joined confirmation to the joining player. This
// is a critical message: a client that misses it never learns its room, so
// it must survive outbound queue pressure.
func (h *WebSocketHandler) sendRoomJoined(room *game.Room, playerID string) {
	data := map[string]interface{}{
		"roomId":   room.ID,
		"playerId": playerID,
	}

	if err := h.validateOutgoingMessage("room:joined", data); err != nil {
		log.Printf("Schema validation failed for room:joined: %v", err)
	}

	message := Message{
		Type:      "room:joined",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling room:joined message: %v", err)
		return
	}

	h.roomManager.SendToPlayer(playerID, msgBytes, true)
}

// HandleWebSocket is the legacy function for backward compatibility
// It uses a shared global handler to ensure all connections share the same room state
func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	getGlobalHandler().HandleWebSocket(w, r)
}
