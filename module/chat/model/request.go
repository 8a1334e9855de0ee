package model

import "time"

const RequestTableName = "friend_requests"

// Request status
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestCanceled = "cancelled"
	RequestRejected = "rejected"
)

// Request is a friend request between two users.
type Request struct {
	ID        string    `bson:"_id" json:"_id"`
	SenderID  string    `bson:"sender_id" json:"sender"`
	Receiver  string    `bson:"receiver_id" json:"receiver"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`

	// Snapshots populated for push payloads, never persisted.
	SenderInfo   *SenderInfo `bson:"-" json:"senderInfo,omitempty"`
	ReceiverInfo *SenderInfo `bson:"-" json:"receiverInfo,omitempty"`
}

func (*Request) TableName() string { return RequestTableName }
