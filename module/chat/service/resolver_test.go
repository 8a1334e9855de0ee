package service

import (
	"context"
	"reflect"
	"testing"

	chatmodel "PingSpace/module/chat/model"
)

func TestResolveRecipientsDirect(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	m := &chatmodel.Message{Kind: chatmodel.TargetDirect, SenderID: "alice", ReceiverID: "bob"}
	got, err := svc.ResolveRecipients(context.Background(), m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Fatalf("recipients = %v", got)
	}
}

func TestResolveRecipientsSelfMessage(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	m := &chatmodel.Message{Kind: chatmodel.TargetDirect, SenderID: "alice", ReceiverID: "alice"}
	got, err := svc.ResolveRecipients(context.Background(), m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("recipients = %v", got)
	}
}

func TestResolveRecipientsGroupUsesFreshMembers(t *testing.T) {
	groups := newMemGroups(&chatmodel.Group{ID: "g1", Members: []string{"alice", "bob", "carol"}, AdminID: "alice"})
	svc, _, _ := newTestService(groups, nil)
	m := &chatmodel.Message{Kind: chatmodel.TargetGroup, SenderID: "alice", GroupID: "g1"}

	got, err := svc.ResolveRecipients(context.Background(), m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("recipients = %v", got)
	}

	// Membership changes between compose and dispatch are honored.
	groups.groups["g1"].Members = []string{"alice", "carol"}
	got, err = svc.ResolveRecipients(context.Background(), m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alice", "carol"}) {
		t.Fatalf("recipients after removal = %v", got)
	}
}

func TestResolveRecipientsVanishedGroup(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	m := &chatmodel.Message{Kind: chatmodel.TargetGroup, SenderID: "alice", GroupID: "gone"}
	got, err := svc.ResolveRecipients(context.Background(), m)
	if err != nil {
		t.Fatalf("vanished group must not error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("recipients = %v, want empty", got)
	}
}
