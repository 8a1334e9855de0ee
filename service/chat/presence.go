package chat

import (
	"time"

	"PingSpace/logger"
	"PingSpace/service/storage"
)

const presenceTTL = 2 * time.Minute

// Tracker derives the online-user set from the registry and broadcasts it to
// every connection whenever the set changes. Clients render per-contact
// status from the full set, so a diff protocol is deliberately not used.
type Tracker struct {
	mgr *ConnManager
	fan *Fanout

	mirror bool // redis mirror enabled
}

func NewTracker(mgr *ConnManager, fan *Fanout, mirror bool) *Tracker {
	return &Tracker{mgr: mgr, fan: fan, mirror: mirror}
}

// ClientOnline records the registration side effects: redis mirror and the
// getOnlineUsers broadcast. The online snapshot is taken synchronously, so
// the next broadcast every connection receives includes this user.
func (t *Tracker) ClientOnline(c *Client) {
	if t.mirror {
		if err := storage.PresenceOnline(c.UserID, c.SessionID, presenceTTL); err != nil {
			logger.Warnf("[presence] redis mirror online user=%s err=%v", c.UserID, err)
		}
	}
	t.broadcast()
}

// ClientOffline is the unregister counterpart. Callers must only invoke it
// after ConnManager.Unregister returned true, so a stale disconnect never
// clears a newer session's presence.
func (t *Tracker) ClientOffline(c *Client) {
	if t.mirror {
		if err := storage.PresenceOffline(c.UserID); err != nil {
			logger.Warnf("[presence] redis mirror offline user=%s err=%v", c.UserID, err)
		}
	}
	t.broadcast()
}

// Lookup reports a user's presence. The in-process registry is
// authoritative; when it misses and the mirror is enabled, the redis key
// still answers for sessions that outlived a restart until their TTL lapses.
func (t *Tracker) Lookup(userID string) (sessionID string, online bool) {
	if c, ok := t.mgr.Lookup(userID); ok {
		return c.SessionID, true
	}
	if !t.mirror {
		return "", false
	}
	sid, online, err := storage.PresenceLookup(userID)
	if err != nil {
		logger.Debugf("[presence] redis lookup user=%s err=%v", userID, err)
		return "", false
	}
	return sid, online
}

// Heartbeat renews the redis mirror TTL; called from the pong handler.
func (t *Tracker) Heartbeat(c *Client) {
	if !t.mirror {
		return
	}
	if err := storage.PresenceOnline(c.UserID, c.SessionID, presenceTTL); err != nil {
		logger.Debugf("[presence] redis heartbeat user=%s err=%v", c.UserID, err)
	}
}

func (t *Tracker) broadcast() {
	online := t.mgr.Online()
	payload, ok := EncodeFrame(EventOnlineUsers, online)
	if !ok {
		return
	}
	t.fan.Broadcast(t.mgr.Clients(), payload)
}
