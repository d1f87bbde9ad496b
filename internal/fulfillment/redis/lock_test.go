package redis

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestAcquireSessionLock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := NewLock(client)

	mock.ExpectSetNX("fulfill_lock:cs_1", "1", 2*time.Minute).SetVal(true)

	acquired, err := lock.AcquireSessionLock("cs_1")
	assert.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireSessionLockBusy(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := NewLock(client)

	mock.ExpectSetNX("fulfill_lock:cs_1", "1", 2*time.Minute).SetVal(false)

	acquired, err := lock.AcquireSessionLock("cs_1")
	assert.NoError(t, err)
	assert.False(t, acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSessionLock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := NewLock(client)

	mock.ExpectDel("fulfill_lock:cs_1").SetVal(1)

	assert.NoError(t, lock.ReleaseSessionLock("cs_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTTLFromEnv(t *testing.T) {
	t.Setenv("FULFILL_LOCK_TTL_SECONDS", "30")

	client, mock := redismock.NewClientMock()
	lock := NewLock(client)

	mock.ExpectSetNX("fulfill_lock:cs_1", "1", 30*time.Second).SetVal(true)

	acquired, err := lock.AcquireSessionLock("cs_1")
	assert.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTTLInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("FULFILL_LOCK_TTL_SECONDS", "nope")

	lock := NewLock(nil)
	assert.Equal(t, 2*time.Minute, lock.getLockTTL())
}
