package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"PingSpace/module/user/model"
)

type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Insert(ctx context.Context, u *model.User) error {
	_, err := s.coll.InsertOne(ctx, u)
	return errors.Wrap(err, "insert user")
}

// Get returns the user or nil when the account does not exist.
func (s *UserStore) Get(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// GetMany returns the subset of the given IDs that exist.
func (s *UserStore) GetMany(ctx context.Context, userIDs []string) ([]*model.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	var out []*model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return out, nil
}

// ListOthers returns every user except the given one.
func (s *UserStore) ListOthers(ctx context.Context, userID string) ([]*model.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$ne": userID}})
	if err != nil {
		return nil, errors.Wrap(err, "find other users")
	}
	var out []*model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return out, nil
}

// AddFriend links both sides; $addToSet keeps the relation set-valued.
func (s *UserStore) AddFriend(ctx context.Context, userID, friendID string) error {
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"friends": friendID}}); err != nil {
		return errors.Wrap(err, "add friend")
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": friendID},
		bson.M{"$addToSet": bson.M{"friends": userID}})
	return errors.Wrap(err, "add friend reverse")
}

// RemoveFriend unlinks both sides.
func (s *UserStore) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": friendID}}); err != nil {
		return errors.Wrap(err, "remove friend")
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": friendID},
		bson.M{"$pull": bson.M{"friends": userID}})
	return errors.Wrap(err, "remove friend reverse")
}
