package auth

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis key layout of the bearer session registry.
const (
	SessionRedisPrefix = "session:"
	UserSessionsPrefix = "user_sessions:"
)

// DestroyUserSessions removes all sessions for a user.
// Deletes each session key (session:<jti>) and the user_sessions:<user_id> set.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if userID == "" || rdb == nil {
		return
	}
	key := UserSessionsPrefix + userID
	ids, err := rdb.SMembers(ctx, key).Result()
	if err != nil || len(ids) == 0 {
		rdb.Del(ctx, key)
		return
	}
	for _, id := range ids {
		rdb.Del(ctx, SessionRedisPrefix+id)
	}
	rdb.Del(ctx, key)
}
