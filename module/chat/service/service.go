package service

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/pkg/errors"

	chatmodel "PingSpace/module/chat/model"
	usermodel "PingSpace/module/user/model"
)

// Store surfaces consumed by the chat service. The Mongo implementations
// live in module/chat/store; tests substitute in-memory fakes.

type MessageStore interface {
	InsertWithLast(ctx context.Context, m *chatmodel.Message) error
	ListDirect(ctx context.Context, a, b string) ([]*chatmodel.Message, error)
	ListGroup(ctx context.Context, groupID string) ([]*chatmodel.Message, error)
	LastDirect(ctx context.Context, a, b string) (*chatmodel.Message, error)
	LastGroup(ctx context.Context, groupID string) (*chatmodel.Message, error)
	DirectPartners(ctx context.Context, userID string) ([]string, error)
}

type GroupStore interface {
	Get(ctx context.Context, groupID string) (*chatmodel.Group, error)
	ListByMember(ctx context.Context, userID string) ([]*chatmodel.Group, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*usermodel.User, error)
	ListOthers(ctx context.Context, userID string) ([]*usermodel.User, error)
}

// Pusher delivers events to live connections. Implemented by the websocket
// dispatcher; fire-and-forget by contract.
type Pusher interface {
	PushToUser(userID, event string, data interface{})
	PushToUsers(userIDs []string, event string, data interface{})
}

var (
	ErrEmptyMessage  = errors.New("message must contain text or image or video")
	ErrGroupNotFound = errors.New("group not found")
	ErrNotMember     = errors.New("not a member of this group")
)

const convLockStripes = 64

// ChatService orchestrates the send path (persist with last-pointer flip,
// resolve recipients, fan out) and the read paths (history, sidebar).
type ChatService struct {
	msgs   MessageStore
	groups GroupStore
	users  UserStore
	pusher Pusher

	// Per-conversation serialization for the send path. Striped so
	// unrelated conversations never contend. The storage transaction
	// already guarantees atomicity; the stripe lock makes the winner of
	// two rapid sends deterministic and, because it is held through the
	// fan-out enqueue, keeps dispatch order aligned with pointer
	// completion order within a conversation.
	convLocks [convLockStripes]sync.Mutex
}

func NewChatService(msgs MessageStore, groups GroupStore, users UserStore, pusher Pusher) *ChatService {
	return &ChatService{msgs: msgs, groups: groups, users: users, pusher: pusher}
}

func (s *ChatService) lockConversation(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.convLocks[h.Sum32()%convLockStripes]
}

// directKey canonicalizes the unordered user pair.
func directKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "d:" + a + ":" + b
}

func groupKey(groupID string) string { return "g:" + groupID }
