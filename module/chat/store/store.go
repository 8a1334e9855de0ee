package store

import (
	"PingSpace/data/database/mgo/mongoutil"
	chatmodel "PingSpace/module/chat/model"
	usermodel "PingSpace/module/user/model"
)

// Stores bundles the Mongo-backed repositories behind one constructor so
// main wires a single object.
type Stores struct {
	Messages *MessageStore
	Groups   *GroupStore
	Users    *UserStore
	Requests *RequestStore
}

func NewStores(cli *mongoutil.Client) *Stores {
	db := cli.GetDB()
	return &Stores{
		Messages: &MessageStore{cli: cli, coll: db.Collection(chatmodel.MessageTableName)},
		Groups:   &GroupStore{coll: db.Collection(chatmodel.GroupTableName)},
		Users:    &UserStore{coll: db.Collection(usermodel.UserTableName)},
		Requests: &RequestStore{coll: db.Collection(chatmodel.RequestTableName)},
	}
}
