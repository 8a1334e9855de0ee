package service

import (
	"context"
	"sort"
	"sync"

	chatmodel "PingSpace/module/chat/model"
	usermodel "PingSpace/module/user/model"
)

// In-memory store fakes. memMessages mirrors the storage contract of the
// Mongo implementation: demote-and-insert happens under one lock, so the
// last flag can never be observed half-flipped.

type memMessages struct {
	mu   sync.Mutex
	msgs []*chatmodel.Message
}

func sameConversation(a, b *chatmodel.Message) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == chatmodel.TargetGroup {
		return a.GroupID == b.GroupID
	}
	return (a.SenderID == b.SenderID && a.ReceiverID == b.ReceiverID) ||
		(a.SenderID == b.ReceiverID && a.ReceiverID == b.SenderID)
}

func (s *memMessages) InsertWithLast(_ context.Context, m *chatmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.IsLast = true
	cp := *m
	for _, old := range s.msgs {
		if old.IsLast && sameConversation(old, &cp) {
			old.IsLast = false
		}
	}
	s.msgs = append(s.msgs, &cp)
	return nil
}

func (s *memMessages) snapshot() []*chatmodel.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*chatmodel.Message, 0, len(s.msgs))
	for _, m := range s.msgs {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

func (s *memMessages) ListDirect(_ context.Context, a, b string) ([]*chatmodel.Message, error) {
	probe := &chatmodel.Message{Kind: chatmodel.TargetDirect, SenderID: a, ReceiverID: b}
	return s.filter(probe), nil
}

func (s *memMessages) ListGroup(_ context.Context, groupID string) ([]*chatmodel.Message, error) {
	probe := &chatmodel.Message{Kind: chatmodel.TargetGroup, GroupID: groupID}
	return s.filter(probe), nil
}

func (s *memMessages) filter(probe *chatmodel.Message) []*chatmodel.Message {
	var out []*chatmodel.Message
	for _, m := range s.snapshot() {
		if sameConversation(m, probe) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memMessages) LastDirect(_ context.Context, a, b string) (*chatmodel.Message, error) {
	probe := &chatmodel.Message{Kind: chatmodel.TargetDirect, SenderID: a, ReceiverID: b}
	return s.last(probe), nil
}

func (s *memMessages) LastGroup(_ context.Context, groupID string) (*chatmodel.Message, error) {
	probe := &chatmodel.Message{Kind: chatmodel.TargetGroup, GroupID: groupID}
	return s.last(probe), nil
}

func (s *memMessages) last(probe *chatmodel.Message) *chatmodel.Message {
	for _, m := range s.snapshot() {
		if m.IsLast && sameConversation(m, probe) {
			return m
		}
	}
	return nil
}

func (s *memMessages) DirectPartners(_ context.Context, userID string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.snapshot() {
		if m.Kind != chatmodel.TargetDirect {
			continue
		}
		var other string
		switch userID {
		case m.SenderID:
			other = m.ReceiverID
		case m.ReceiverID:
			other = m.SenderID
		default:
			continue
		}
		if _, dup := seen[other]; dup || other == userID {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out, nil
}

type memGroups struct {
	mu     sync.Mutex
	groups map[string]*chatmodel.Group
}

func newMemGroups(groups ...*chatmodel.Group) *memGroups {
	s := &memGroups{groups: make(map[string]*chatmodel.Group)}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return s
}

func (s *memGroups) Get(_ context.Context, groupID string) (*chatmodel.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (s *memGroups) ListByMember(_ context.Context, userID string) ([]*chatmodel.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*chatmodel.Group
	for _, g := range s.groups {
		if g.HasMember(userID) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memGroups) delete(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupID)
}

type memUsers struct {
	users map[string]*usermodel.User
}

func newMemUsers(users ...*usermodel.User) *memUsers {
	s := &memUsers{users: make(map[string]*usermodel.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUsers) Get(_ context.Context, userID string) (*usermodel.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) ListOthers(_ context.Context, userID string) ([]*usermodel.User, error) {
	var out []*usermodel.User
	for _, u := range s.users {
		if u.ID == userID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type push struct {
	users []string
	event string
	data  interface{}
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []push
}

func (p *fakePusher) PushToUser(userID, event string, data interface{}) {
	p.PushToUsers([]string{userID}, event, data)
}

func (p *fakePusher) PushToUsers(userIDs []string, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, push{users: append([]string(nil), userIDs...), event: event, data: data})
}

func (p *fakePusher) all() []push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]push(nil), p.pushes...)
}
