package service

import (
	"context"
	"sort"
	"time"

	"PingSpace/module/chat/model"
	usermodel "PingSpace/module/user/model"
)

// SidebarEntry is one row of the unified conversation list: a group the
// user belongs to, a direct counterpart with history, or a known user with
// no history yet.
type SidebarEntry struct {
	ID         string         `json:"_id"`
	IsGroup    bool           `json:"isGroup"`
	GroupName  string         `json:"groupName,omitempty"`
	GroupImage string         `json:"groupImage,omitempty"`
	Members    []string       `json:"members,omitempty"`
	FullName   string         `json:"fullName,omitempty"`
	ProfilePic string         `json:"profilePic,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	LastMsg    *model.Message `json:"lastMessage"`
}

// BuildSidebar reconstructs the conversation list from durable state alone.
// This is the reconciliation path for clients that were offline: the last
// message shown per conversation is the flagged one, the same message live
// fan-out would have delivered last.
//
// Sort order: newest activity first, where activity is the last message's
// creation time, falling back to the conversation's own creation time.
func (s *ChatService) BuildSidebar(ctx context.Context, userID string) ([]*SidebarEntry, error) {
	var entries []*SidebarEntry

	groups, err := s.groups.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		last, err := s.msgs.LastGroup(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		s.populateLast(ctx, last)
		e := &SidebarEntry{
			ID:         g.ID,
			IsGroup:    true,
			GroupName:  g.GroupName,
			GroupImage: g.GroupImage,
			Members:    g.Members,
			CreatedAt:  g.CreatedAt,
			LastMsg:    last,
		}
		if last != nil {
			e.CreatedAt = last.CreatedAt
		}
		entries = append(entries, e)
	}

	// Direct rows: everyone the user has history with, plus every other
	// known user as an empty conversation stub.
	partners, err := s.msgs.DirectPartners(ctx, userID)
	if err != nil {
		return nil, err
	}
	others, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}

	counterparts := make([]*usermodel.User, 0, len(others)+len(partners))
	seen := make(map[string]struct{}, len(others))
	for _, u := range others {
		seen[u.ID] = struct{}{}
		counterparts = append(counterparts, u)
	}
	// Partners missing from the user listing are looked up individually;
	// a vanished account is dropped, matching the resolver's treatment of
	// deleted users.
	for _, p := range partners {
		if _, ok := seen[p]; ok {
			continue
		}
		u, err := s.users.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		if u != nil {
			seen[u.ID] = struct{}{}
			counterparts = append(counterparts, u)
		}
	}

	for _, u := range counterparts {
		last, err := s.msgs.LastDirect(ctx, userID, u.ID)
		if err != nil {
			return nil, err
		}
		s.populateLast(ctx, last)
		e := &SidebarEntry{
			ID:         u.ID,
			IsGroup:    false,
			FullName:   u.FullName,
			ProfilePic: u.ProfilePic,
			CreatedAt:  u.CreatedAt,
			LastMsg:    last,
		}
		if last != nil {
			e.CreatedAt = last.CreatedAt
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *ChatService) populateLast(ctx context.Context, m *model.Message) {
	if m != nil {
		s.populateSenders(ctx, m)
	}
}
