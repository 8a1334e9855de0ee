package chat

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"PingSpace/logger"
	"PingSpace/tools/ids"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the websocket endpoint: handshake, registry bookkeeping and
// the per-connection read loop.
type Server struct {
	mgr      *ConnManager
	presence *Tracker
}

func NewServer(mgr *ConnManager, presence *Tracker) *Server {
	return &Server{mgr: mgr, presence: presence}
}

// HandleWS upgrades GET /ws?userId=<id>. The user ID is trusted here;
// session auth happens at the HTTP layer before the client opens the
// socket.
func (s *Server) HandleWS(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter is required"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed user=%s err=%v", userID, err)
		return
	}

	client := NewClient(userID, ids.GenerateString(), ws)
	if replaced := s.mgr.Register(client); replaced != nil {
		// Second login wins; drop the previous session.
		logger.Infof("[ws] replacing session user=%s old=%s new=%s",
			userID, replaced.SessionID, client.SessionID)
		replaced.Close()
	}
	s.presence.ClientOnline(client)
	logger.Infof("[ws] connected user=%s session=%s", userID, client.SessionID)

	go client.writePump()
	s.readLoop(client)

	// Only clear presence if this session still owns the registry slot; a
	// newer login for the same user must survive this disconnect.
	client.Close()
	if s.mgr.Unregister(client) {
		s.presence.ClientOffline(client)
	}
	logger.Infof("[ws] disconnected user=%s session=%s", userID, client.SessionID)
}

// HandlePresence serves GET /api/presence/:id, an ops view of one user's
// presence backed by the registry and the redis mirror.
func (s *Server) HandlePresence(c *gin.Context) {
	userID := c.Param("id")
	sessionID, online := s.presence.Lookup(userID)
	c.JSON(http.StatusOK, gin.H{"userId": userID, "online": online, "sessionId": sessionID})
}

// readLoop consumes inbound frames until the peer goes away. The push
// protocol is one-directional; inbound traffic is only pong keepalives and
// the close handshake, anything else is ignored.
func (s *Server) readLoop(c *Client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		s.presence.Heartbeat(c)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debugf("[ws] peer closed user=%s", c.UserID)
			} else {
				logger.Debugf("[ws] read err user=%s err=%v", c.UserID, err)
			}
			return
		}
	}
}
