package auth

import (
	"context"
	"sync"
	"time"
)

var (
	loginWindow      = 15 * time.Minute
	lockDuration     = 10 * time.Minute
	maxLoginAttempts = 5

	maxTrackedClients = 10000
)

// AttemptLimiter はクライアントごとのログイン失敗回数を数え、一定回数でロックします。
type AttemptLimiter interface {
	// Check はロック中であれば残り時間を返します。ロックされていなければ 0 です。
	Check(ctx context.Context, key string) (time.Duration, error)
	// Fail は失敗を記録し、ロックまでの残り回数を返します。
	Fail(ctx context.Context, key string) (int, error)
	// Reset は成功時に記録を消去します。
	Reset(ctx context.Context, key string) error
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// expired はウィンドウが過ぎたか、ロックが明けた状態かを返します。
func (s *attemptState) expired(now time.Time) bool {
	if !s.lockedUntil.IsZero() {
		return !now.Before(s.lockedUntil)
	}
	return now.Sub(s.firstAttempt) > loginWindow
}

// MemoryLimiter はプロセス内で試行回数を保持します。単一インスタンス構成向けです。
type MemoryLimiter struct {
	lock     sync.Mutex
	attempts map[string]*attemptState
	now      func() time.Time
}

// NewMemoryLimiter は MemoryLimiter を作成します。
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		attempts: make(map[string]*attemptState),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Check(_ context.Context, key string) (time.Duration, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[key]
	if !ok {
		return 0, nil
	}
	now := m.now()
	if !now.Before(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

func (m *MemoryLimiter) Fail(_ context.Context, key string) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	state, ok := m.attempts[key]
	if !ok || state.expired(now) {
		if len(m.attempts) >= maxTrackedClients {
			m.prune(now)
		}
		state = &attemptState{firstAttempt: now}
		m.attempts[key] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, key)
	return nil
}

func (m *MemoryLimiter) prune(now time.Time) {
	for key, state := range m.attempts {
		if state.expired(now) {
			delete(m.attempts, key)
		}
	}
}
