package chat

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

// recvFrame waits for one frame on the client's queue and decodes the
// envelope. Fanout delivery is asynchronous, so every read needs a deadline.
func recvFrame(t *testing.T, c *Client) (event string, data json.RawMessage) {
	t.Helper()
	select {
	case payload := <-c.Send:
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("bad frame %q: %v", payload, err)
		}
		return f.Event, f.Data
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame delivered for user %s", c.UserID)
		return "", nil
	}
}

func expectSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected frame for user %s: %s", c.UserID, payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *ConnManager) {
	t.Helper()
	mgr := NewConnManager()
	fan := NewFanout(1, 16)
	t.Cleanup(fan.Close)
	return NewDispatcher(mgr, fan), mgr
}

func TestPushToUsersDeliversIdenticalPayload(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	alice := NewClient("alice", "s1", nil)
	bob := NewClient("bob", "s2", nil)
	mgr.Register(alice)
	mgr.Register(bob)

	d.PushToUsers([]string{"alice", "bob"}, EventNewMessage, map[string]string{"text": "hi"})

	var frames [][]byte
	for _, c := range []*Client{alice, bob} {
		event, data := recvFrame(t, c)
		if event != EventNewMessage {
			t.Fatalf("event = %q", event)
		}
		frames = append(frames, data)
	}
	if !bytes.Equal(frames[0], frames[1]) {
		t.Fatalf("recipients got different payloads: %s vs %s", frames[0], frames[1])
	}
}

// Offline recipients are skipped; connecting later does not replay the push.
func TestPushSkipsOfflineRecipients(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	alice := NewClient("alice", "s1", nil)
	carol := NewClient("carol", "s3", nil)
	mgr.Register(alice)
	mgr.Register(carol)

	d.PushToUsers([]string{"alice", "bob", "carol"}, EventNewMessage, "group ping")

	recvFrame(t, alice)
	recvFrame(t, carol)

	bob := NewClient("bob", "s2", nil)
	mgr.Register(bob)
	expectSilent(t, bob)
}

func TestPushToUserSingleRecipient(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	alice := NewClient("alice", "s1", nil)
	bob := NewClient("bob", "s2", nil)
	mgr.Register(alice)
	mgr.Register(bob)

	d.PushToUser("bob", EventNewRequest, map[string]string{"senderId": "alice"})

	event, _ := recvFrame(t, bob)
	if event != EventNewRequest {
		t.Fatalf("event = %q", event)
	}
	expectSilent(t, alice)
}

// Frames pushed to one recipient arrive in the order they were enqueued.
func TestPushOrderPreserved(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	alice := NewClient("alice", "s1", nil)
	mgr.Register(alice)

	for i := 0; i < 5; i++ {
		d.PushToUser("alice", EventNewMessage, i)
	}
	for i := 0; i < 5; i++ {
		_, data := recvFrame(t, alice)
		var got int
		if err := json.Unmarshal(data, &got); err != nil || got != i {
			t.Fatalf("frame %d = %s (err %v)", i, data, err)
		}
	}
}
