package global

import (
	"os"
	"strconv"

	"PingSpace/logger"
	"PingSpace/service/storage"
	"PingSpace/tools/ids"
)

// AppConfig carries the process configuration. Defaults suit local
// development; every field is overridable through the environment.
type AppConfig struct {
	Port   string
	NodeID int64

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JwtSecret string
}

var Global = AppConfig{
	Port:          "5000",
	NodeID:        1,
	MongoURI:      "mongodb://localhost:27017",
	MongoDatabase: "pingspace",
	RedisAddr:     "127.0.0.1:6379",
	JwtSecret:     "dev-only-secret-change-me",
}

// LoadEnv applies environment overrides onto the defaults.
func LoadEnv() {
	if v := os.Getenv("PORT"); v != "" {
		Global.Port = v
	}
	if v := os.Getenv("NODE_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			Global.NodeID = n
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		Global.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		Global.MongoDatabase = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		Global.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		Global.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			Global.RedisDB = n
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		Global.JwtSecret = v
	}
}

func ConfigIds() {
	ids.SetNodeID(Global.NodeID)
}

// ConfigRedis connects the presence mirror. The mirror is an optional
// observability aid; callers may run without it.
func ConfigRedis() error {
	err := storage.InitRedis(storage.Config{
		Addr:     Global.RedisAddr,
		Password: Global.RedisPassword,
		DB:       Global.RedisDB,
	})
	if err != nil {
		logger.Warnf("[config] redis unavailable, presence mirror disabled: %v", err)
	}
	return err
}

func GetJwtSecret() []byte {
	return []byte(Global.JwtSecret)
}
