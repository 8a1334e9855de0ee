package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"PingSpace/module/chat/model"
)

type GroupStore struct {
	coll *mongo.Collection
}

func (s *GroupStore) Insert(ctx context.Context, g *model.Group) error {
	_, err := s.coll.InsertOne(ctx, g)
	return errors.Wrap(err, "insert group")
}

// Get returns the group or nil when it no longer exists.
func (s *GroupStore) Get(ctx context.Context, groupID string) (*model.Group, error) {
	var g model.Group
	err := s.coll.FindOne(ctx, bson.M{"_id": groupID}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find group")
	}
	return &g, nil
}

// ListByMember returns every group the user belongs to.
func (s *GroupStore) ListByMember(ctx context.Context, userID string) ([]*model.Group, error) {
	cur, err := s.coll.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, errors.Wrap(err, "find groups by member")
	}
	var out []*model.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode groups")
	}
	return out, nil
}

func (s *GroupStore) UpdateName(ctx context.Context, groupID, name string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{"$set": bson.M{"group_name": name}})
	return errors.Wrap(err, "update group name")
}

func (s *GroupStore) UpdateImage(ctx context.Context, groupID, image string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{"$set": bson.M{"group_image": image}})
	return errors.Wrap(err, "update group image")
}

// AddMembers appends without duplicating existing members.
func (s *GroupStore) AddMembers(ctx context.Context, groupID string, memberIDs []string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": groupID},
		bson.M{"$addToSet": bson.M{"members": bson.M{"$each": memberIDs}}})
	return errors.Wrap(err, "add group members")
}

// SetMembers replaces the member list; callers enforce the non-empty and
// admin-still-member invariants before calling.
func (s *GroupStore) SetMembers(ctx context.Context, groupID string, members []string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{"$set": bson.M{"members": members}})
	return errors.Wrap(err, "set group members")
}

func (s *GroupStore) Delete(ctx context.Context, groupID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": groupID})
	return errors.Wrap(err, "delete group")
}
