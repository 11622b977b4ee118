package service

import (
	"context"
	"errors"
	"time"

	"face-attendance/pkg/redis"
)

// errLedgerBusy 员工锁被其他请求持有，按可重试冲突处理
var errLedgerBusy = errors.New("员工账本正被其他请求写入")

// LedgerLocker 员工级互斥：同一员工的打卡请求串行化
type LedgerLocker interface {
	Lock(ctx context.Context, employeeRef string) (release func(), err error)
}

// NewLedgerLocker 基于 Redis 的员工锁；rdb 为 nil 时返回空实现，仅依赖数据库条件追加
func NewLedgerLocker(rdb *redis.Client, ttl time.Duration) LedgerLocker {
	if rdb == nil {
		return noopLocker{}
	}
	return &redisLocker{rdb: rdb, ttl: ttl}
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

type redisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func (l *redisLocker) Lock(ctx context.Context, employeeRef string) (func(), error) {
	lock, err := l.rdb.ObtainLock(ctx, employeeRef, l.ttl)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, errLedgerBusy
		}
		return nil, err
	}
	return func() {
		// 使用独立 context：请求已取消时仍需释放
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}, nil
}
