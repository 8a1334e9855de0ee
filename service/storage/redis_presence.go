package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

var (
	rdb *redis.Client
	ctx = context.Background()
)

func InitRedis(c Config) error {
	rdb = redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	return rdb.Ping(ctx).Err()
}

// presence key: ps:presence:<user>
// Value: session id, TTL controls the online validity period. The in-process
// registry is authoritative for delivery; this mirror exists for ops tooling
// and survives as a hint across restarts until the TTL lapses.
func presenceKey(user string) string { return "ps:presence:" + user }

// PresenceOnline sets the user as online and renews the TTL.
func PresenceOnline(user, sessionID string, ttl time.Duration) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), sessionID, ttl).Err()
}

// PresenceOffline actively sets the user offline (deletes the key).
func PresenceOffline(user string) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup checks whether the user is online.
func PresenceLookup(user string) (sessionID string, online bool, err error) {
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
