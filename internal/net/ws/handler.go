package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pixel-pursuit/server/internal/frame"
	"pixel-pursuit/server/internal/game"
	"pixel-pursuit/server/internal/net/proto"
	"pixel-pursuit/server/internal/session"
	"pixel-pursuit/server/internal/telemetry"
)

const writeWait = 10 * time.Second

// Config wires the websocket handler to the session registry and the
// optional host notification sink.
type Config struct {
	Registry *session.Registry
	Notifier frame.Notifier
	Logger   telemetry.Logger
	Metrics  telemetry.Metrics
	Title    string
	Now      func() time.Time
}

// Handler upgrades connections and runs one game session per socket.
type Handler struct {
	registry *session.Registry
	notifier frame.Notifier
	logger   telemetry.Logger
	metrics  telemetry.Metrics
	title    string
	now      func() time.Time
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket session handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		registry: cfg.Registry,
		notifier: cfg.Notifier,
		logger:   logger,
		metrics:  metrics,
		title:    cfg.Title,
		now:      now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP negotiates the codec from the query string and upgrades.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, err := proto.CodecFor(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}
	h.Serve(r.Context(), conn, codec)
}

// subscriber serializes writes to a single connection.
type subscriber struct {
	conn  *websocket.Conn
	codec proto.Codec
	mu    sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	messageType := websocket.TextMessage
	if s.codec.Binary() {
		messageType = websocket.BinaryMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *subscriber) close(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

// Serve runs a session for conn until the client disconnects or the session
// is ended by the server.
func (h *Handler) Serve(ctx context.Context, conn *websocket.Conn, codec proto.Codec) {
	if h == nil || h.registry == nil || conn == nil {
		return
	}
	if codec == nil {
		codec = proto.JSON
	}
	defer conn.Close()
	sub := &subscriber{conn: conn, codec: codec}

	sess, err := h.registry.Start(ctx)
	if err != nil {
		if errors.Is(err, session.ErrCapacity) {
			sub.close(websocket.CloseTryAgainLater, "server full")
		} else {
			sub.close(websocket.CloseInternalServerErr, "session unavailable")
		}
		h.logger.Printf("rejecting websocket session: %v", err)
		return
	}
	defer h.registry.End(sess.ID, session.ReasonDisconnected)

	ctrl := sess.Controller()
	data, err := proto.Encode(codec, proto.NewSessionMessage(sess.ID, ctrl.Config(), h.title))
	if err != nil {
		h.logger.Printf("failed to marshal session for %s: %v", sess.ID, err)
		return
	}
	if err := sub.write(data); err != nil {
		return
	}

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.pump(sess, sub, stop)
	}()
	defer func() {
		close(stop)
		<-writerDone
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.DecodeClientMessage(codec, payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", sess.ID, err)
			continue
		}
		if !h.handle(ctx, sess, sub, msg) {
			return
		}
	}
}

// pump forwards controller snapshots until the session ends or the reader
// stops.
func (h *Handler) pump(sess *session.Session, sub *subscriber, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-sess.Done():
			sub.close(websocket.CloseGoingAway, "session ended")
			sub.conn.Close()
			return
		case state := <-sess.Updates():
			if !h.sendState(sess, sub, state) {
				sub.conn.Close()
				return
			}
		}
	}
}

func (h *Handler) sendState(sess *session.Session, sub *subscriber, state game.State) bool {
	data, err := proto.Encode(sub.codec, proto.NewStateMessage(state, sess.Insets()))
	if err != nil {
		h.logger.Printf("failed to marshal state for %s: %v", sess.ID, err)
		return true
	}
	if err := sub.write(data); err != nil {
		h.logger.Printf("failed to send update to %s: %v", sess.ID, err)
		return false
	}
	h.metrics.Add(telemetry.KeyBroadcasts, 1)
	h.metrics.Add(telemetry.KeyBroadcastBytes, uint64(len(data)))
	return true
}

// handle applies one client message. It reports false when the connection
// should be torn down.
func (h *Handler) handle(ctx context.Context, sess *session.Session, sub *subscriber, msg proto.ClientMessage) bool {
	switch msg.Type {
	case proto.TypeKey:
		sess.HandleKey(msg.Key)
	case proto.TypeReady:
		if msg.SafeAreaInsets != nil {
			sess.SetInsets(*msg.SafeAreaInsets)
		}
		return h.sendState(sess, sub, sess.Snapshot())
	case proto.TypeFrameAdd:
		err := frame.ErrorForAddResult(msg.Result, msg.Message)
		if h.notifier != nil {
			h.notifier.AddOutcome(ctx, sess.ID, err)
		}
		return writeMessage(h, sess, sub, proto.NewFrameStatusMessage(frame.AddStatus(err)))
	case proto.TypeFrameEvent:
		kind, ok := frame.ParseEventKind(msg.Event)
		if !ok {
			h.logger.Printf("ignoring unknown frame event %q from %s", msg.Event, sess.ID)
			return true
		}
		if h.notifier != nil {
			h.notifier.Lifecycle(ctx, frame.LifecycleEvent{
				Kind:      kind,
				Source:    frame.SourceClient,
				SessionID: sess.ID,
			})
		}
	case proto.TypeHeartbeat:
		return writeMessage(h, sess, sub, proto.NewHeartbeatMessage(h.now().UnixMilli(), msg.SentAt))
	default:
		h.logger.Printf("unknown message type %q from %s", msg.Type, sess.ID)
	}
	return true
}

func writeMessage[M proto.ServerMessage](h *Handler, sess *session.Session, sub *subscriber, msg M) bool {
	data, err := proto.Encode(sub.codec, msg)
	if err != nil {
		h.logger.Printf("failed to marshal response for %s: %v", sess.ID, err)
		return true
	}
	return sub.write(data) == nil
}
