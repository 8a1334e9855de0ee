package model

import "time"

const GroupTableName = "groups"

// Group is a named multi-member conversation.
// Invariants kept by the group handlers: AdminID is always a member and the
// member list never drops to zero.
type Group struct {
	ID         string    `bson:"_id" json:"_id"`
	GroupName  string    `bson:"group_name" json:"groupName"`
	GroupImage string    `bson:"group_image" json:"groupImage"`
	Members    []string  `bson:"members" json:"members"`
	AdminID    string    `bson:"admin_id" json:"admin"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

func (*Group) TableName() string { return GroupTableName }

func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
