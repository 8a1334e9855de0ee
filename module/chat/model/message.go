package model

import "time"

const MessageTableName = "messages"

// TargetKind tags which leg of a message target is set. Resolved once when
// the message is created, never re-inferred downstream.
type TargetKind int32

const (
	TargetDirect TargetKind = 1 // ReceiverID set, GroupID empty
	TargetGroup  TargetKind = 2 // GroupID set, ReceiverID empty
)

// SenderInfo is the sender snapshot delivered with every pushed message.
type SenderInfo struct {
	ID         string `bson:"_id" json:"_id"`
	FullName   string `bson:"full_name" json:"fullName"`
	ProfilePic string `bson:"profile_pic" json:"profilePic"`
}

// Message is one chat message, direct or group. Exactly one of ReceiverID
// and GroupID is non-empty, per Kind.
//
// IsLast marks the newest message of its conversation. For any conversation
// at most one persisted message carries the flag; the flip from the previous
// holder to the new one is a single transaction (see store.InsertWithLast).
type Message struct {
	ID         string     `bson:"_id" json:"_id"`
	Kind       TargetKind `bson:"kind" json:"kind"`
	SenderID   string     `bson:"sender_id" json:"senderId"`
	ReceiverID string     `bson:"receiver_id,omitempty" json:"receiverId,omitempty"`
	GroupID    string     `bson:"group_id,omitempty" json:"groupId,omitempty"`

	Text  string `bson:"text" json:"text"`
	Image string `bson:"image" json:"image"`
	Video string `bson:"video" json:"video"`

	IsLast    bool      `bson:"is_last" json:"isLast"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`

	// Populated for delivery and history reads, never persisted.
	Sender *SenderInfo `bson:"-" json:"sender,omitempty"`
}

func (*Message) TableName() string { return MessageTableName }

// HasContent reports whether at least one payload field is non-empty.
func (m *Message) HasContent() bool {
	return m.Text != "" || m.Image != "" || m.Video != ""
}
