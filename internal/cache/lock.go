package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseLockScript 仅当持有者匹配时才删除锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 短期互斥锁句柄
type Lock struct {
	key   string
	owner string
}

// ReminderLockKey 提醒发送锁：同一记录同一序号同时只允许一个 worker 发送
func ReminderLockKey(abandonedCartID uint, slot int) string {
	return fmt.Sprintf("lock:reminder:%d:%d", abandonedCartID, slot)
}

// SchedulerLockKey 定时任务锁：多个 worker 实例同一时刻只有一个执行
func SchedulerLockKey(job string) string {
	return fmt.Sprintf("lock:scheduler:%s", job)
}

// AcquireLock 尝试获取锁；Redis 未启用时总是成功并返回空句柄
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, bool, error) {
	if !Enabled() {
		return &Lock{}, true, nil
	}
	owner, err := newLockOwner()
	if err != nil {
		return nil, false, err
	}
	fullKey := buildKey(key)
	ok, err := redisClient.SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{key: fullKey, owner: owner}, true, nil
}

// Release 释放锁，锁已过期或被他人持有时不做任何事
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.key == "" || !Enabled() {
		return nil
	}
	return releaseLockScript.Run(ctx, redisClient, []string{l.key}, l.owner).Err()
}

func newLockOwner() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
