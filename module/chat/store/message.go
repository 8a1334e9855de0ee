package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"PingSpace/data/database/mgo/mongoutil"
	"PingSpace/module/chat/model"
)

type MessageStore struct {
	cli  *mongoutil.Client
	coll *mongo.Collection
}

// conversationFilter selects every message of the message's conversation.
func conversationFilter(m *model.Message) bson.M {
	if m.Kind == model.TargetGroup {
		return bson.M{"kind": model.TargetGroup, "group_id": m.GroupID}
	}
	return bson.M{
		"kind": model.TargetDirect,
		"$or": bson.A{
			bson.M{"sender_id": m.SenderID, "receiver_id": m.ReceiverID},
			bson.M{"sender_id": m.ReceiverID, "receiver_id": m.SenderID},
		},
	}
}

// InsertWithLast persists the message as its conversation's last one:
// demote every currently flagged message of the conversation and insert the
// new one flagged, as one multi-document transaction. Readers never observe
// zero or two flags, and concurrent sends into the same conversation
// converge on a single winner regardless of interleaving.
func (s *MessageStore) InsertWithLast(ctx context.Context, m *model.Message) error {
	m.IsLast = true
	err := s.cli.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.coll.UpdateMany(sc,
			bson.M{"$and": bson.A{conversationFilter(m), bson.M{"is_last": true}}},
			bson.M{"$set": bson.M{"is_last": false}},
		); err != nil {
			return nil, err
		}
		if _, err := s.coll.InsertOne(sc, m); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return errors.Wrap(err, "insert message with last flag")
}

// ListDirect returns the full direct history between two users, oldest
// first.
func (s *MessageStore) ListDirect(ctx context.Context, a, b string) ([]*model.Message, error) {
	filter := bson.M{
		"kind": model.TargetDirect,
		"$or": bson.A{
			bson.M{"sender_id": a, "receiver_id": b},
			bson.M{"sender_id": b, "receiver_id": a},
		},
	}
	return s.list(ctx, filter)
}

// ListGroup returns the full group history, oldest first.
func (s *MessageStore) ListGroup(ctx context.Context, groupID string) ([]*model.Message, error) {
	return s.list(ctx, bson.M{"kind": model.TargetGroup, "group_id": groupID})
}

func (s *MessageStore) list(ctx context.Context, filter bson.M) ([]*model.Message, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}

// LastDirect returns the flagged last message between two users, or nil.
func (s *MessageStore) LastDirect(ctx context.Context, a, b string) (*model.Message, error) {
	filter := bson.M{
		"kind":    model.TargetDirect,
		"is_last": true,
		"$or": bson.A{
			bson.M{"sender_id": a, "receiver_id": b},
			bson.M{"sender_id": b, "receiver_id": a},
		},
	}
	return s.findOne(ctx, filter)
}

// LastGroup returns the group's flagged last message, or nil.
func (s *MessageStore) LastGroup(ctx context.Context, groupID string) (*model.Message, error) {
	return s.findOne(ctx, bson.M{"kind": model.TargetGroup, "group_id": groupID, "is_last": true})
}

func (s *MessageStore) findOne(ctx context.Context, filter bson.M) (*model.Message, error) {
	var m model.Message
	err := s.coll.FindOne(ctx, filter).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find last message")
	}
	return &m, nil
}

// DirectPartners returns every user the given user has exchanged direct
// messages with, in either direction, deduplicated.
func (s *MessageStore) DirectPartners(ctx context.Context, userID string) ([]string, error) {
	sent, err := s.coll.Distinct(ctx, "receiver_id",
		bson.M{"kind": model.TargetDirect, "sender_id": userID})
	if err != nil {
		return nil, errors.Wrap(err, "distinct receivers")
	}
	received, err := s.coll.Distinct(ctx, "sender_id",
		bson.M{"kind": model.TargetDirect, "receiver_id": userID})
	if err != nil {
		return nil, errors.Wrap(err, "distinct senders")
	}

	seen := make(map[string]struct{})
	var out []string
	for _, vals := range [][]interface{}{sent, received} {
		for _, v := range vals {
			id, ok := v.(string)
			if !ok || id == "" || id == userID {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}
