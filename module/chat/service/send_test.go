package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	chatmodel "PingSpace/module/chat/model"
	usermodel "PingSpace/module/user/model"
)

func newTestService(groups *memGroups, users *memUsers) (*ChatService, *memMessages, *fakePusher) {
	msgs := &memMessages{}
	pusher := &fakePusher{}
	if groups == nil {
		groups = newMemGroups()
	}
	if users == nil {
		users = newMemUsers()
	}
	return NewChatService(msgs, groups, users, pusher), msgs, pusher
}

func TestSendDirectRejectsEmptyPayload(t *testing.T) {
	svc, msgs, _ := newTestService(nil, nil)
	_, err := svc.SendDirect(context.Background(), "alice", "bob", Payload{})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("want ErrEmptyMessage, got %v", err)
	}
	if len(msgs.snapshot()) != 0 {
		t.Fatalf("empty message must not be persisted")
	}
}

func TestSendDirectPersistsAndPushesBothEnds(t *testing.T) {
	users := newMemUsers(
		&usermodel.User{ID: "alice", FullName: "Alice A", ProfilePic: "a.png"},
		&usermodel.User{ID: "bob", FullName: "Bob B"},
	)
	svc, msgs, pusher := newTestService(nil, users)

	m, err := svc.SendDirect(context.Background(), "alice", "bob", Payload{Text: "hi"})
	if err != nil {
		t.Fatalf("SendDirect: %v", err)
	}
	if m.Sender == nil || m.Sender.FullName != "Alice A" {
		t.Fatalf("sender snapshot not populated: %+v", m.Sender)
	}
	if !m.IsLast {
		t.Fatalf("new message must carry the last flag")
	}

	stored := msgs.snapshot()
	if len(stored) != 1 || !stored[0].IsLast {
		t.Fatalf("stored = %+v", stored)
	}

	pushes := pusher.all()
	if len(pushes) != 1 {
		t.Fatalf("want 1 push, got %d", len(pushes))
	}
	if got := pushes[0].users; len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("recipients = %v", got)
	}
	if pushes[0].event != "newMessage" {
		t.Fatalf("event = %q", pushes[0].event)
	}
}

func TestSendGroupUnknownGroup(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	_, err := svc.SendGroup(context.Background(), "alice", "nope", Payload{Text: "hi"})
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("want ErrGroupNotFound, got %v", err)
	}
}

func TestSendGroupPushesCurrentMembers(t *testing.T) {
	groups := newMemGroups(&chatmodel.Group{
		ID: "g1", GroupName: "trio", Members: []string{"alice", "bob", "carol"}, AdminID: "alice",
	})
	svc, _, pusher := newTestService(groups, newMemUsers(&usermodel.User{ID: "alice"}))

	if _, err := svc.SendGroup(context.Background(), "alice", "g1", Payload{Image: "pic.png"}); err != nil {
		t.Fatalf("SendGroup: %v", err)
	}
	pushes := pusher.all()
	if len(pushes) != 1 {
		t.Fatalf("want 1 push, got %d", len(pushes))
	}
	if got := pushes[0].users; len(got) != 3 {
		t.Fatalf("recipients = %v", got)
	}
}

// A group that disappears between persist and dispatch resolves to zero
// recipients; the send still succeeds and the message stays stored.
func TestSendGroupVanishedBeforeDispatch(t *testing.T) {
	groups := newMemGroups(&chatmodel.Group{ID: "g1", Members: []string{"alice", "bob"}, AdminID: "alice"})
	msgs := &memMessages{}
	pusher := &fakePusher{}
	svc := NewChatService(&vanishingMessages{inner: msgs, groups: groups, groupID: "g1"},
		groups, newMemUsers(), pusher)

	m, err := svc.SendGroup(context.Background(), "alice", "g1", Payload{Text: "bye"})
	if err != nil {
		t.Fatalf("SendGroup: %v", err)
	}
	if m == nil || len(msgs.snapshot()) != 1 {
		t.Fatalf("message must remain persisted")
	}
	if len(pusher.all()) != 0 {
		t.Fatalf("no pushes expected for a vanished group")
	}
}

// vanishingMessages deletes the group as a side effect of the insert,
// modeling deletion racing the send between persistence and dispatch.
type vanishingMessages struct {
	inner   *memMessages
	groups  *memGroups
	groupID string
}

func (s *vanishingMessages) InsertWithLast(ctx context.Context, m *chatmodel.Message) error {
	if err := s.inner.InsertWithLast(ctx, m); err != nil {
		return err
	}
	s.groups.delete(s.groupID)
	return nil
}

func (s *vanishingMessages) ListDirect(ctx context.Context, a, b string) ([]*chatmodel.Message, error) {
	return s.inner.ListDirect(ctx, a, b)
}
func (s *vanishingMessages) ListGroup(ctx context.Context, id string) ([]*chatmodel.Message, error) {
	return s.inner.ListGroup(ctx, id)
}
func (s *vanishingMessages) LastDirect(ctx context.Context, a, b string) (*chatmodel.Message, error) {
	return s.inner.LastDirect(ctx, a, b)
}
func (s *vanishingMessages) LastGroup(ctx context.Context, id string) (*chatmodel.Message, error) {
	return s.inner.LastGroup(ctx, id)
}
func (s *vanishingMessages) DirectPartners(ctx context.Context, u string) ([]string, error) {
	return s.inner.DirectPartners(ctx, u)
}

// notifyingMessages signals each completed insert so a test can observe a
// sender that is past persistence but still inside its critical section.
type notifyingMessages struct {
	*memMessages
	inserted chan string
}

func (s *notifyingMessages) InsertWithLast(ctx context.Context, m *chatmodel.Message) error {
	err := s.memMessages.InsertWithLast(ctx, m)
	s.inserted <- m.ID
	return err
}

// stallingUsers blocks the first sender lookup until the gate closes,
// pinning that send between persistence and fan-out.
type stallingUsers struct {
	inner *memUsers
	gate  chan struct{}

	mu  sync.Mutex
	hit bool
}

func (u *stallingUsers) Get(ctx context.Context, id string) (*usermodel.User, error) {
	u.mu.Lock()
	first := !u.hit
	u.hit = true
	u.mu.Unlock()
	if first {
		<-u.gate
	}
	return u.inner.Get(ctx, id)
}

func (u *stallingUsers) ListOthers(ctx context.Context, id string) ([]*usermodel.User, error) {
	return u.inner.ListOthers(ctx, id)
}

// A send whose sender lookup is slow must still fan out before a later send
// into the same conversation: frames reach recipients in the order the last
// pointer moved, never inverted.
func TestDispatchOrderFollowsPointerCompletion(t *testing.T) {
	msgs := &memMessages{}
	pusher := &fakePusher{}
	users := &stallingUsers{
		inner: newMemUsers(
			&usermodel.User{ID: "alice", FullName: "Alice"},
			&usermodel.User{ID: "bob", FullName: "Bob"},
		),
		gate: make(chan struct{}),
	}
	inserted := make(chan string, 2)
	svc := NewChatService(&notifyingMessages{memMessages: msgs, inserted: inserted},
		newMemGroups(), users, pusher)

	done := make(chan struct{}, 2)
	go func() {
		if _, err := svc.SendDirect(context.Background(), "alice", "bob", Payload{Text: "first"}); err != nil {
			t.Errorf("SendDirect: %v", err)
		}
		done <- struct{}{}
	}()
	// First message is persisted; its sender is stalled before fan-out.
	<-inserted

	go func() {
		if _, err := svc.SendDirect(context.Background(), "bob", "alice", Payload{Text: "second"}); err != nil {
			t.Errorf("SendDirect: %v", err)
		}
		done <- struct{}{}
	}()
	time.Sleep(50 * time.Millisecond)
	close(users.gate)
	<-done
	<-done

	pushes := pusher.all()
	if len(pushes) != 2 {
		t.Fatalf("want 2 pushes, got %d", len(pushes))
	}
	a := pushes[0].data.(*chatmodel.Message)
	b := pushes[1].data.(*chatmodel.Message)
	if a.Text != "first" || b.Text != "second" {
		t.Fatalf("dispatch order [%s %s] inverts the pointer order", a.Text, b.Text)
	}
	last, _ := msgs.LastDirect(context.Background(), "alice", "bob")
	if last == nil || last.Text != "second" {
		t.Fatalf("last = %+v, want the second message", last)
	}
}

// Concurrent sends into one conversation must converge to exactly one
// flagged message, with every message persisted.
func TestConcurrentSendsKeepSingleLastFlag(t *testing.T) {
	svc, msgs, _ := newTestService(nil, nil)

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := svc.SendDirect(context.Background(), "alice", "bob",
				Payload{Text: fmt.Sprintf("msg-%d", i)})
			if err != nil {
				t.Errorf("SendDirect: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored := msgs.snapshot()
	if len(stored) != n {
		t.Fatalf("want %d stored messages, got %d", n, len(stored))
	}
	flagged := 0
	for _, m := range stored {
		if m.IsLast {
			flagged++
		}
	}
	if flagged != 1 {
		t.Fatalf("want exactly 1 flagged message, got %d", flagged)
	}
}

// Sends into distinct conversations each keep their own single flag.
func TestConcurrentSendsAcrossConversations(t *testing.T) {
	svc, msgs, _ := newTestService(nil, nil)

	peers := []string{"bob", "carol", "dave"}
	var wg sync.WaitGroup
	for _, peer := range peers {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(peer string, i int) {
				defer wg.Done()
				if _, err := svc.SendDirect(context.Background(), "alice", peer,
					Payload{Text: fmt.Sprintf("to %s %d", peer, i)}); err != nil {
					t.Errorf("SendDirect: %v", err)
				}
			}(peer, i)
		}
	}
	wg.Wait()

	for _, peer := range peers {
		last, _ := msgs.LastDirect(context.Background(), "alice", peer)
		if last == nil {
			t.Fatalf("conversation with %s has no flagged message", peer)
		}
		count := 0
		for _, m := range msgs.snapshot() {
			if m.IsLast && m.Kind == chatmodel.TargetDirect && (m.ReceiverID == peer || m.SenderID == peer) {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("conversation with %s has %d flagged messages", peer, count)
		}
	}
}
