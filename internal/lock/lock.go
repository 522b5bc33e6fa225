package lock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"voltbay/internal/clock"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
)

// Locker hands out expiring leases on named keys
type Locker interface {
	// TryLock returns ok=false when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Unlock releases key only if token still owns it.
	Unlock(ctx context.Context, key, token string) error
}

var releaseScript = radix.NewEvalScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker shares leases across replicas
type RedisLocker struct {
	client radix.Client
}

func NewRedisLocker(client radix.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// NewRedisPool dials addr
func NewRedisPool(addr string, size int) (*radix.Pool, error) {
	return radix.NewPool("tcp", addr, size)
}

func (l *RedisLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	var reply string
	mn := radix.MaybeNil{Rcv: &reply}
	err := l.client.Do(radix.Cmd(&mn, "SET", key, token, "NX", "PX", strconv.FormatInt(ttl.Milliseconds(), 10)))
	if err != nil {
		return "", false, err
	}
	if mn.Nil {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLocker) Unlock(_ context.Context, key, token string) error {
	var deleted int
	return l.client.Do(releaseScript.Cmd(&deleted, key, token))
}

type localLease struct {
	token   string
	expires time.Time
}

// LocalLocker is an in-process Locker used when Redis is not configured
type LocalLocker struct {
	mu     sync.Mutex
	clock  clock.Clock
	leases map[string]localLease
}

func NewLocalLocker(clk clock.Clock) *LocalLocker {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &LocalLocker{clock: clk, leases: make(map[string]localLease)}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if cur, held := l.leases[key]; held && now.Before(cur.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.leases[key] = localLease{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, held := l.leases[key]; held && cur.token == token {
		delete(l.leases, key)
	}
	return nil
}
