package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/auth"
	"github.com/spec-kit/plantpal-service/internal/domain"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// ServerConfig tunes the websocket transport.
type ServerConfig struct {
	// TrustClientRoom lets any connection join any room it names. When false,
	// only authenticated connections may join, and only their own room.
	TrustClientRoom bool
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	MaxMessageBytes int64
}

func (c ServerConfig) normalized() ServerConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.ReadTimeout {
		c.PingInterval = c.ReadTimeout * 9 / 10
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 4 << 10
	}
	return c
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Server upgrades HTTP requests to websocket clients of a Hub.
type Server struct {
	hub      *Hub
	verifier auth.TokenVerifier
	cfg      ServerConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer builds the websocket transport. verifier may be nil, in which case
// every connection is anonymous.
func NewServer(hub *Hub, verifier auth.TokenVerifier, cfg ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		hub:      hub,
		verifier: verifier,
		cfg:      cfg.normalized(),
		logger:   logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler routes /ws to the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// ServeWS authenticates the request when a token is present, upgrades it and
// runs the read loop until the peer goes away.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ws.SetReadLimit(s.cfg.MaxMessageBytes)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	client := s.hub.Connect(&wsConn{ws: ws, writeTimeout: s.cfg.WriteTimeout}, identity.SubjectID)
	defer s.hub.Disconnect(client)

	go s.pingLoop(ws, client)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read ended", zap.String("client_id", client.ID()), zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		s.handleFrame(client, data)
	}
}

func (s *Server) handleFrame(client *Client, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Debug("ignoring malformed frame", zap.String("client_id", client.ID()), zap.Error(err))
		return
	}

	switch frame.Event {
	case EventJoinRoom:
		var room string
		if err := json.Unmarshal(frame.Data, &room); err != nil || room == "" {
			s.logger.Debug("ignoring join_room without a room id", zap.String("client_id", client.ID()))
			return
		}
		if !s.mayJoin(client, room) {
			s.logger.Warn("join_room rejected",
				zap.String("client_id", client.ID()),
				zap.String("subject_id", client.SubjectID()),
				zap.String("room", room),
			)
			return
		}
		if s.hub.Join(client, room) {
			s.hub.Notify(room, domain.Notification{Type: domain.NotificationSuccess, Msg: WelcomeMessage})
		}
	default:
		s.logger.Debug("ignoring unknown event", zap.String("event", frame.Event))
	}
}

func (s *Server) mayJoin(client *Client, room string) bool {
	if s.cfg.TrustClientRoom {
		return true
	}
	return client.SubjectID() != "" && client.SubjectID() == room
}

// authenticate verifies an optional token from ?token= or X-Auth-Token.
// A present but invalid token is refused before the upgrade.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get(auth.HeaderAuthToken)
	}
	if token == "" || s.verifier == nil {
		return auth.Identity{}, true
	}

	identity, err := s.verifier.Verify(token)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    apperrors.CodeInvalidToken,
				"message": "token is not valid",
			},
		})
		return auth.Identity{}, false
	}
	return identity, true
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) pingLoop(ws *websocket.Conn, client *Client) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("websocket ping failed", zap.String("client_id", client.ID()), zap.Error(err))
				return
			}
		}
	}
}

// wsConn applies the write deadline to every frame.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) WriteJSON(v any) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

func (c *wsConn) Close() error {
	deadline := time.Now().Add(c.writeTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}
