package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var Ctx = context.Background()
var RedisClient *redis.Client

// ConnectRedis initializes the Redis client used by the report rate limiter
func ConnectRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     GetEnv("REDIS_ADDRESS", "localhost:6379"),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       0, // default DB
	})

	_, err := RedisClient.Ping(Ctx).Result()
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	fmt.Println("Connected to Redis")
}
