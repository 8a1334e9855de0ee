package chat

import (
	"encoding/json"

	"PingSpace/logger"
)

// Wire event names. These match what the web client subscribes to, so they
// are load-bearing strings.
const (
	EventOnlineUsers     = "getOnlineUsers"
	EventNewMessage      = "newMessage"
	EventNewRequest      = "newRequest"
	EventRequestAccepted = "requestAccepted"
	EventRequestCanceled = "requestCanceled"
	EventRequestRejected = "requestRejected"
	EventFriendRemoved   = "friendRemoved"
)

// Frame is the envelope for every server→client push.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EncodeFrame serializes an event envelope. A payload that fails to
// marshal is a programming error; it is logged and dropped.
func EncodeFrame(event string, data interface{}) ([]byte, bool) {
	b, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		logger.Errorf("[ws] encode frame event=%s err=%v", event, err)
		return nil, false
	}
	return b, true
}
