package proto

import (
	"fmt"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/game"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	typeSession     = "session"
	typeState       = "state"
	typeFrameStatus = "frameStatus"
	typeHeartbeat   = "heartbeat"
)

// Client message type identifiers.
const (
	TypeKey        = "key"
	TypeReady      = "ready"
	TypeFrameAdd   = "frameAdd"
	TypeFrameEvent = "frameEvent"
	TypeHeartbeat  = typeHeartbeat
)

// Exported aliases for outbound message type identifiers.
const (
	TypeSession     = typeSession
	TypeState       = typeState
	TypeFrameStatus = typeFrameStatus
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver            int                   `json:"ver,omitempty"`
	Type           string                `json:"type"`
	Key            string                `json:"key,omitempty"`
	SafeAreaInsets *frame.SafeAreaInsets `json:"safeAreaInsets,omitempty"`
	Result         string                `json:"result,omitempty"`
	Message        string                `json:"message,omitempty"`
	Event          string                `json:"event,omitempty"`
	SentAt         int64                 `json:"sentAt,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(codec Codec, payload []byte) (ClientMessage, error) {
	if codec == nil {
		codec = JSON
	}
	var msg ClientMessage
	if err := codec.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("client message missing type")
	}
	return msg, nil
}

// SessionConfig tells the client how to lay out the board.
type SessionConfig struct {
	GridSize   int    `json:"gridSize"`
	CellSize   int    `json:"cellSize"`
	TickMillis int64  `json:"tickMillis"`
	Title      string `json:"title,omitempty"`
}

// SessionV1 is sent once after the websocket is accepted.
type SessionV1 struct {
	Ver    int           `json:"ver"`
	Type   string        `json:"type"`
	ID     string        `json:"id"`
	Config SessionConfig `json:"config"`
}

// NewSessionMessage describes a freshly started session.
func NewSessionMessage(id string, cfg game.Config, title string) SessionV1 {
	cfg = cfg.Normalized()
	return SessionV1{
		Ver:  Version,
		Type: TypeSession,
		ID:   id,
		Config: SessionConfig{
			GridSize:   cfg.GridSize,
			CellSize:   cfg.CellSize,
			TickMillis: cfg.TickInterval.Milliseconds(),
			Title:      title,
		},
	}
}

// StateV1 captures the version 1 board payload.
type StateV1 struct {
	Ver            int                   `json:"ver"`
	Type           string                `json:"type"`
	Tick           uint64                `json:"tick"`
	Phase          game.Phase            `json:"phase"`
	Player         game.Position         `json:"player"`
	Adversaries    []game.Adversary      `json:"adversaries"`
	Collectibles   []game.Position       `json:"collectibles"`
	Score          int                   `json:"score"`
	GameOver       bool                  `json:"gameOver"`
	SafeAreaInsets *frame.SafeAreaInsets `json:"safeAreaInsets,omitempty"`
}

// NewStateMessage renders a controller snapshot for the wire.
func NewStateMessage(s game.State, insets *frame.SafeAreaInsets) StateV1 {
	adversaries := s.Adversaries
	if adversaries == nil {
		adversaries = []game.Adversary{}
	}
	collectibles := s.Collectibles.Positions()
	if collectibles == nil {
		collectibles = []game.Position{}
	}
	return StateV1{
		Ver:            Version,
		Type:           TypeState,
		Tick:           s.Tick,
		Phase:          s.Phase(),
		Player:         s.Player,
		Adversaries:    adversaries,
		Collectibles:   collectibles,
		Score:          s.Score,
		GameOver:       s.GameOver,
		SafeAreaInsets: insets,
	}
}

// FrameStatusV1 carries the user-visible add-frame status line.
type FrameStatusV1 struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// NewFrameStatusMessage wraps an add-frame status line.
func NewFrameStatusMessage(status string) FrameStatusV1 {
	return FrameStatusV1{Ver: Version, Type: TypeFrameStatus, Status: status}
}

// HeartbeatV1 echoes timing metadata back to the client.
type HeartbeatV1 struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// NewHeartbeatMessage answers a client heartbeat sent at clientTime.
func NewHeartbeatMessage(serverTime, clientTime int64) HeartbeatV1 {
	msg := HeartbeatV1{
		Ver:        Version,
		Type:       TypeHeartbeat,
		ServerTime: serverTime,
		ClientTime: clientTime,
	}
	if clientTime > 0 && serverTime >= clientTime {
		msg.RTTMillis = serverTime - clientTime
	}
	return msg
}

// ServerMessage enumerates the outbound payloads.
type ServerMessage interface {
	SessionV1 | StateV1 | FrameStatusV1 | HeartbeatV1
}

// Encode renders an outbound message with the given codec.
func Encode[M ServerMessage](codec Codec, msg M) ([]byte, error) {
	if codec == nil {
		codec = JSON
	}
	return codec.Marshal(msg)
}
