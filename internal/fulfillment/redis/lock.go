package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Lock serializes fulfillment of a single payment session across concurrent
// webhook deliveries. The database transaction is the correctness guard;
// this lock just keeps retried deliveries from doing duplicate work.
type Lock struct {
	Client *redis.Client
}

func NewLock(client *redis.Client) *Lock {
	return &Lock{Client: client}
}

func (l *Lock) getLockTTL() time.Duration {
	defaultTTL := 2 * time.Minute

	ttlStr := os.Getenv("FULFILL_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil || ttlSec <= 0 {
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// AcquireSessionLock takes the fulfillment lock for a session. false means
// another delivery is already being processed.
func (l *Lock) AcquireSessionLock(sessionID string) (bool, error) {
	key := fmt.Sprintf("fulfill_lock:%s", sessionID)
	return l.Client.SetNX(context.Background(), key, "1", l.getLockTTL()).Result()
}

// ReleaseSessionLock drops the lock once fulfillment has committed.
func (l *Lock) ReleaseSessionLock(sessionID string) error {
	key := fmt.Sprintf("fulfill_lock:%s", sessionID)
	_, err := l.Client.Del(context.Background(), key).Result()
	return err
}
