package model

import "time"

const UserTableName = "users"

// User is an account document. Friends is symmetric: accepting a request
// appends each side to the other's list.
type User struct {
	ID         string    `bson:"_id" json:"_id"`
	Email      string    `bson:"email" json:"email"`
	FullName   string    `bson:"full_name" json:"fullName"`
	Password   string    `bson:"password" json:"-"` // bcrypt hash
	ProfilePic string    `bson:"profile_pic" json:"profilePic"`
	CoverPic   string    `bson:"cover_pic" json:"coverPic"`
	Bio        string    `bson:"bio" json:"bio"`
	Friends    []string  `bson:"friends" json:"friends"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

func (*User) TableName() string { return UserTableName }

func (u *User) HasFriend(userID string) bool {
	for _, f := range u.Friends {
		if f == userID {
			return true
		}
	}
	return false
}
