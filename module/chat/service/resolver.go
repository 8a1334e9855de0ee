package service

import (
	"context"

	"PingSpace/module/chat/model"
)

// ResolveRecipients maps a persisted message to the identities that must
// receive its push.
//
// Direct: both ends, sender included, so a sender's other tabs echo the
// message and the sending tab gets its confirmation.
//
// Group: the group's member set fetched fresh at dispatch time, not the set
// at compose time. A member removed between persist and dispatch gets
// nothing; a vanished group resolves to the empty set and dispatch becomes a
// no-op while the message stays persisted.
func (s *ChatService) ResolveRecipients(ctx context.Context, m *model.Message) ([]string, error) {
	switch m.Kind {
	case model.TargetDirect:
		if m.ReceiverID == m.SenderID {
			return []string{m.SenderID}, nil
		}
		return []string{m.SenderID, m.ReceiverID}, nil
	case model.TargetGroup:
		g, err := s.groups.Get(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, nil
		}
		return g.Members, nil
	default:
		return nil, nil
	}
}
