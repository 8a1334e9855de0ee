package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"PingSpace/module/chat/model"
)

type RequestStore struct {
	coll *mongo.Collection
}

func (s *RequestStore) Insert(ctx context.Context, r *model.Request) error {
	_, err := s.coll.InsertOne(ctx, r)
	return errors.Wrap(err, "insert request")
}

func (s *RequestStore) Get(ctx context.Context, requestID string) (*model.Request, error) {
	var r model.Request
	err := s.coll.FindOne(ctx, bson.M{"_id": requestID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find request")
	}
	return &r, nil
}

// FindBetween returns a pending or accepted request linking two users in
// either direction. Used to reject duplicate sends.
func (s *RequestStore) FindBetween(ctx context.Context, a, b string) (*model.Request, error) {
	filter := bson.M{
		"status": bson.M{"$in": bson.A{model.RequestPending, model.RequestAccepted}},
		"$or": bson.A{
			bson.M{"sender_id": a, "receiver_id": b},
			bson.M{"sender_id": b, "receiver_id": a},
		},
	}
	var r model.Request
	err := s.coll.FindOne(ctx, filter).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find request between users")
	}
	return &r, nil
}

func (s *RequestStore) UpdateStatus(ctx context.Context, requestID, status string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": requestID},
		bson.M{"$set": bson.M{"status": status}})
	return errors.Wrap(err, "update request status")
}

func (s *RequestStore) Delete(ctx context.Context, requestID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": requestID})
	return errors.Wrap(err, "delete request")
}
