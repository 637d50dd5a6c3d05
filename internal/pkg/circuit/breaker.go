// Package circuit 提供一个最小的熔断器，保护对外部行情接口的调用：
// 连续失败达到阈值后打开，冷却期过后放行一次探测请求。
package circuit

import (
	"sync"
	"time"

	"sarathi/internal/logger"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker 是按调用方命名的熔断器。零值不可用，必须经 NewBreaker 创建。
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	threshold   int
	cooldown    time.Duration
	lastFailure time.Time
	name        string
}

// NewBreaker 创建熔断器。threshold 是触发打开的连续失败次数，
// cooldown 是打开后的冷却时长。
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     StateClosed,
	}
}

// Allow 报告当前是否允许发起调用。
// 打开状态超过冷却期时转入半开，放行一次探测。
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) > b.cooldown {
			b.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess 记录一次成功调用；半开状态下成功即恢复闭合。
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.transition(StateClosed)
		b.failures = 0
	case StateClosed:
		b.failures = 0
	}
}

// RecordFailure 记录一次失败调用；连续失败达到阈值或半开探测失败时打开。
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.threshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	}
}

// OpenFor 返回打开状态剩余的冷却时间（非打开状态为 0）。
func (b *Breaker) OpenFor() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return 0
	}
	remain := b.cooldown - time.Since(b.lastFailure)
	if remain < 0 {
		return 0
	}
	return remain
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	logger.Warnf("熔断器 %s 状态切换: %s -> %s (failures=%d/%d cooldown=%s)",
		b.name, from, to, b.failures, b.threshold, b.cooldown)
}
