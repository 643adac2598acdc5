package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stkdecider/dashboard"
	"stkdecider/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4096
)

// ClientMessage is what the browser sends over the session socket.
type ClientMessage struct {
	Type   string `json:"type"` // "analyze", "ping"
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
}

// Envelope is every message the server sends over the session socket.
type Envelope struct {
	Type    string           `json:"type"` // "session", "state", "error", "pong"
	Session string           `json:"session,omitempty"`
	State   *dashboard.State `json:"state,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// SessionHandler runs one dashboard.Controller per websocket connection and
// streams its states to the browser.
type SessionHandler struct {
	analyzer dashboard.Analyzer
	options  dashboard.Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a session handler. origins restricts the
// websocket handshake the way CORS restricts REST calls; "*" allows all.
func NewSessionHandler(analyzer dashboard.Analyzer, opts dashboard.Options, origins []string, logger *zap.Logger, m *metrics.Metrics) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &SessionHandler{
		analyzer: analyzer,
		options:  opts,
		logger:   logger,
		metrics:  m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleSession upgrades the request and serves the session until the
// client disconnects.
func (h *SessionHandler) HandleSession(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	logger := h.logger.With(zap.String("session", id))

	opts := h.options
	opts.Logger = logger
	opts.Metrics = h.metrics
	ctrl, err := dashboard.NewController(h.analyzer, opts)
	if err != nil {
		logger.Error("create controller", zap.Error(err))
		conn.Close()
		return
	}

	h.metrics.SessionOpened()
	logger.Info("ws session opened", zap.String("remote", c.ClientIP()))

	s := &session{
		id:      id,
		conn:    conn,
		ctrl:    ctrl,
		logger:  logger,
		replies: make(chan Envelope, 8),
	}
	states, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	s.reply(Envelope{Type: "session", Session: id})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(states)
	}()

	s.readPump()
	ctrl.Close()
	<-writerDone
	conn.Close()

	h.metrics.SessionClosed()
	logger.Info("ws session closed")
}

type session struct {
	id      string
	conn    *websocket.Conn
	ctrl    *dashboard.Controller
	logger  *zap.Logger
	replies chan Envelope
}

func (s *session) reply(env Envelope) {
	select {
	case s.replies <- env:
	default:
		s.logger.Debug("dropping reply, client too slow", zap.String("type", env.Type))
	}
}

func (s *session) readPump() {
	s.conn.SetReadLimit(readLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("ws read failed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(Envelope{Type: "error", Error: "invalid message: " + err.Error()})
			continue
		}

		switch msg.Type {
		case "analyze":
			// a new analyze supersedes the previous one
			s.ctrl.Submit(msg.Symbol, msg.Days)
		case "ping":
			s.reply(Envelope{Type: "pong", Session: s.id})
		default:
			s.reply(Envelope{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}

func (s *session) writePump(states <-chan dashboard.State) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-states:
			if !ok {
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.write(Envelope{Type: "state", State: &st}); err != nil {
				s.fail(err)
				return
			}
		case env := <-s.replies:
			if err := s.write(env); err != nil {
				s.fail(err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.fail(err)
				return
			}
		}
	}
}

func (s *session) write(env Envelope) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(env)
}

// fail unblocks readPump after a write error.
func (s *session) fail(err error) {
	s.logger.Debug("ws write failed", zap.Error(err))
	s.conn.Close()
}
