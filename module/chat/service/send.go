package service

import (
	"context"
	"time"

	"PingSpace/logger"
	"PingSpace/module/chat/model"
	usermodel "PingSpace/module/user/model"
	wschat "PingSpace/service/chat"
	"PingSpace/tools/ids"
)

// Payload is the client-supplied message body. Image and video carry URLs
// already uploaded to the object store.
type Payload struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	Video string `json:"video"`
}

// SendDirect persists a direct message, flips the conversation's last
// pointer atomically, and fans the populated message out to both ends.
// Push failures never surface here; only persistence errors do.
func (s *ChatService) SendDirect(ctx context.Context, senderID, receiverID string, in Payload) (*model.Message, error) {
	m := &model.Message{
		ID:         ids.GenerateString(),
		Kind:       model.TargetDirect,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       in.Text,
		Image:      in.Image,
		Video:      in.Video,
		CreatedAt:  time.Now().UTC(),
	}
	if !m.HasContent() {
		return nil, ErrEmptyMessage
	}

	if err := s.deliver(ctx, directKey(senderID, receiverID), m); err != nil {
		return nil, err
	}
	return m, nil
}

// SendGroup is the group counterpart. The group must exist when the send is
// accepted; if it vanishes before dispatch the fan-out is simply empty.
func (s *ChatService) SendGroup(ctx context.Context, senderID, groupID string, in Payload) (*model.Message, error) {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}

	m := &model.Message{
		ID:        ids.GenerateString(),
		Kind:      model.TargetGroup,
		SenderID:  senderID,
		GroupID:   groupID,
		Text:      in.Text,
		Image:     in.Image,
		Video:     in.Video,
		CreatedAt: time.Now().UTC(),
	}
	if !m.HasContent() {
		return nil, ErrEmptyMessage
	}

	if err := s.deliver(ctx, groupKey(groupID), m); err != nil {
		return nil, err
	}
	return m, nil
}

// deliver persists the message as its conversation's last one and enqueues
// the fan-out, all under the conversation's stripe lock. The lock must cover
// the push enqueue too, not just the storage transaction: a send that wins
// the pointer flip but enqueues second would reach recipients out of order.
func (s *ChatService) deliver(ctx context.Context, convKey string, m *model.Message) error {
	mu := s.lockConversation(convKey)
	mu.Lock()
	defer mu.Unlock()
	if err := s.msgs.InsertWithLast(ctx, m); err != nil {
		return err
	}
	s.populateSenders(ctx, m)
	s.dispatch(ctx, m)
	return nil
}

// dispatch resolves recipients and pushes. Resolution failure degrades to
// no pushes; the message is already durable either way.
func (s *ChatService) dispatch(ctx context.Context, m *model.Message) {
	recipients, err := s.ResolveRecipients(ctx, m)
	if err != nil {
		logger.Warnf("[chat] resolve recipients msg=%s err=%v", m.ID, err)
		return
	}
	if len(recipients) == 0 {
		return
	}
	s.pusher.PushToUsers(recipients, wschat.EventNewMessage, m)
}

// GetDirectMessages returns the full history between two users, oldest
// first, senders populated.
func (s *ChatService) GetDirectMessages(ctx context.Context, userID, otherID string) ([]*model.Message, error) {
	msgs, err := s.msgs.ListDirect(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	s.populateSenders(ctx, msgs...)
	return msgs, nil
}

// GetGroupMessages returns a group's history for a member.
func (s *ChatService) GetGroupMessages(ctx context.Context, userID, groupID string) ([]*model.Message, error) {
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	if !g.HasMember(userID) {
		return nil, ErrNotMember
	}
	msgs, err := s.msgs.ListGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.populateSenders(ctx, msgs...)
	return msgs, nil
}

// populateSenders attaches the sender display snapshot to each message.
// A missing sender leaves the snapshot nil rather than failing the read.
func (s *ChatService) populateSenders(ctx context.Context, msgs ...*model.Message) {
	cache := make(map[string]*usermodel.User, 4)
	for _, m := range msgs {
		u, ok := cache[m.SenderID]
		if !ok {
			var err error
			u, err = s.users.Get(ctx, m.SenderID)
			if err != nil {
				logger.Debugf("[chat] populate sender user=%s err=%v", m.SenderID, err)
				continue
			}
			cache[m.SenderID] = u
		}
		if u != nil {
			m.Sender = &model.SenderInfo{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic}
		}
	}
}
